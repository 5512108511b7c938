package enums

import "fmt"

// MessageChannel selects the template store a rule or step resolves against.
type MessageChannel string

const (
	MessageChannelEmail MessageChannel = "email"
	MessageChannelSMS   MessageChannel = "sms"
)

var validMessageChannels = []MessageChannel{
	MessageChannelEmail,
	MessageChannelSMS,
}

// IsValid checks whether the given channel matches the canonical enum.
func (c MessageChannel) IsValid() bool {
	for _, candidate := range validMessageChannels {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseMessageChannel converts raw strings into MessageChannel.
func ParseMessageChannel(value string) (MessageChannel, error) {
	for _, candidate := range validMessageChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid message channel %q", value)
}
