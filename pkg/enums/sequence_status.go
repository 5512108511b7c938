package enums

import "fmt"

// SequenceStatus maps to the sequence_status enum in Postgres. Only active
// sequences accept new enrollments.
type SequenceStatus string

const (
	SequenceStatusDraft    SequenceStatus = "draft"
	SequenceStatusActive   SequenceStatus = "active"
	SequenceStatusPaused   SequenceStatus = "paused"
	SequenceStatusArchived SequenceStatus = "archived"
)

var validSequenceStatuses = []SequenceStatus{
	SequenceStatusDraft,
	SequenceStatusActive,
	SequenceStatusPaused,
	SequenceStatusArchived,
}

// IsValid checks whether the given status matches the canonical enum.
func (s SequenceStatus) IsValid() bool {
	for _, candidate := range validSequenceStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSequenceStatus converts raw strings into SequenceStatus.
func ParseSequenceStatus(value string) (SequenceStatus, error) {
	for _, candidate := range validSequenceStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sequence status %q", value)
}
