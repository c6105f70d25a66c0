// Package integration contains the channel integration bounded context.
// It owns everything that faces external sales channels.
//
// Key concepts:
//   - Channel: a tagged external marketplace with its own delisting policy
//   - MarketplaceListing: an internal product advertised on one channel
//   - CanonicalOrderData: a channel sale normalized into one shape
//   - ChannelAdapter: pure translator from a channel payload to CanonicalOrderData
//   - DelistTask: a failed delist attempt waiting for asynchronous retry
//
// Ports (interfaces) live here; adapters live in the infrastructure layer.
package integration
