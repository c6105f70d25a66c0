package integration

// Channel identifies an external sales channel
type Channel string

const (
	ChannelEtsy  Channel = "etsy"
	ChannelEbay  Channel = "ebay"
	ChannelDepop Channel = "depop"
)

// DelistPolicy describes how a channel stops advertising an item
type DelistPolicy string

const (
	// DelistSoft keeps the listing row and marks it inactive.
	// Used by channels whose listing ids can be reactivated.
	DelistSoft DelistPolicy = "soft"
	// DelistHard deletes the listing row. Used by channels with one-shot ids.
	DelistHard DelistPolicy = "hard"
)

type channelInfo struct {
	displayName string
	policy      DelistPolicy
}

var channels = map[Channel]channelInfo{
	ChannelEtsy:  {displayName: "Etsy", policy: DelistSoft},
	ChannelEbay:  {displayName: "eBay", policy: DelistHard},
	ChannelDepop: {displayName: "Depop", policy: DelistHard},
}

// AllChannels returns every supported channel in a stable order
func AllChannels() []Channel {
	return []Channel{ChannelEtsy, ChannelEbay, ChannelDepop}
}

// IsValid checks if the channel is supported
func (c Channel) IsValid() bool {
	_, ok := channels[c]
	return ok
}

// String returns the string representation
func (c Channel) String() string {
	return string(c)
}

// DisplayName returns the human-readable channel name
func (c Channel) DisplayName() string {
	if info, ok := channels[c]; ok {
		return info.displayName
	}
	return string(c)
}

// DelistPolicy returns how listings on this channel are taken down.
// Unknown channels default to hard delisting.
func (c Channel) DelistPolicy() DelistPolicy {
	if info, ok := channels[c]; ok {
		return info.policy
	}
	return DelistHard
}

// ParseChannel validates and converts a raw channel name
func ParseChannel(s string) (Channel, error) {
	c := Channel(s)
	if !c.IsValid() {
		return "", ErrChannelNotSupported
	}
	return c, nil
}
