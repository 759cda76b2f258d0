// Package sales holds the canonical order model shared by every sales channel,
// the generic raw record accessors used to read upstream data, and the status
// priority policies used to map channel vocabularies onto canonical statuses.
package sales

import "errors"

// Domain errors
var (
	ErrUnknownChannel = errors.New("sales: unknown channel")
	ErrUnknownStatus  = errors.New("sales: unknown order status")
	ErrUnknownPolicy  = errors.New("sales: unknown status policy")
)

// ---------------------------------------------------------------------------
// Channel
// ---------------------------------------------------------------------------

// Channel identifies one of the marketplace integrations
type Channel string

const (
	// ChannelCafe24 is the self-hosted storefront platform
	ChannelCafe24 Channel = "cafe24"
	// ChannelNaver is the Naver SmartStore marketplace
	ChannelNaver Channel = "naver"
	// ChannelCoupang is the Coupang Wing marketplace with integrated shipping
	ChannelCoupang Channel = "coupang"
)

// AllChannels returns every channel in presentation order
func AllChannels() []Channel {
	return []Channel{ChannelCafe24, ChannelNaver, ChannelCoupang}
}

// ParseChannel converts a string into a Channel
func ParseChannel(s string) (Channel, error) {
	c := Channel(s)
	if !c.IsValid() {
		return "", ErrUnknownChannel
	}
	return c, nil
}

// IsValid returns true if the channel is one of the supported channels
func (c Channel) IsValid() bool {
	switch c {
	case ChannelCafe24, ChannelNaver, ChannelCoupang:
		return true
	}
	return false
}

// String returns the channel code
func (c Channel) String() string {
	return string(c)
}

// DisplayName returns a human readable name
func (c Channel) DisplayName() string {
	switch c {
	case ChannelCafe24:
		return "Cafe24"
	case ChannelNaver:
		return "Naver SmartStore"
	case ChannelCoupang:
		return "Coupang"
	default:
		return string(c)
	}
}
