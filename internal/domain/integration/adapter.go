package integration

// ChannelAdapter translates one channel's sale payload into CanonicalOrderData.
// Implementations are pure: no I/O, no clock reads beyond parsing, no shared state.
type ChannelAdapter interface {
	// Channel returns the channel this adapter handles
	Channel() Channel
	// Normalize decodes a raw payload. Missing optional fields are left empty;
	// missing required fields or undecodable input return ErrPayloadMalformed.
	Normalize(raw []byte) (*CanonicalOrderData, error)
}

// AdapterRegistry looks adapters up by channel
type AdapterRegistry interface {
	// Adapter returns ErrChannelNotSupported for unregistered channels
	Adapter(channel Channel) (ChannelAdapter, error)
	// Channels lists registered channels
	Channels() []Channel
}
