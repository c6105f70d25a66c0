package ecommerce

import (
	"sort"

	"github.com/marketsync/backend/internal/domain/integration"
)

// Registry maps channels to their adapters.
// It is built once at startup and read concurrently afterwards.
type Registry struct {
	adapters map[integration.Channel]integration.ChannelAdapter
}

// NewRegistry creates a registry from the given adapters.
// A later adapter for the same channel replaces an earlier one.
func NewRegistry(adapters ...integration.ChannelAdapter) *Registry {
	r := &Registry{adapters: make(map[integration.Channel]integration.ChannelAdapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Channel()] = a
	}
	return r
}

// NewDefaultRegistry registers an adapter for every supported channel
func NewDefaultRegistry() *Registry {
	return NewRegistry(
		NewEtsyAdapter(),
		NewEbayAdapter(),
		NewDepopAdapter(),
	)
}

// Adapter implements integration.AdapterRegistry
func (r *Registry) Adapter(channel integration.Channel) (integration.ChannelAdapter, error) {
	a, ok := r.adapters[channel]
	if !ok {
		return nil, integration.ErrChannelNotSupported
	}
	return a, nil
}

// Channels implements integration.AdapterRegistry
func (r *Registry) Channels() []integration.Channel {
	out := make([]integration.Channel, 0, len(r.adapters))
	for c := range r.adapters {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var _ integration.AdapterRegistry = (*Registry)(nil)
