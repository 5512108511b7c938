package enums

// MessageStatus tracks a scheduled message through the delivery dispatcher.
// The engine only ever writes pending; the dispatcher owns the terminal states.
type MessageStatus string

const (
	MessageStatusPending MessageStatus = "pending"
	MessageStatusSent    MessageStatus = "sent"
	MessageStatusFailed  MessageStatus = "failed"
)

// IsValid checks whether the given status matches the canonical enum.
func (s MessageStatus) IsValid() bool {
	return s == MessageStatusPending || s == MessageStatusSent || s == MessageStatusFailed
}

// IsTerminal reports whether the dispatcher has finished with the message.
func (s MessageStatus) IsTerminal() bool {
	return s == MessageStatusSent || s == MessageStatusFailed
}
