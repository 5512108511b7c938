package enums

import "fmt"

// EnrollmentStatus tracks a contact's progress through a sequence. The trigger
// engine creates enrollments as active; the step worker moves them to
// completed; the exit processor is the only writer of cancelled.
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
	EnrollmentStatusCancelled EnrollmentStatus = "cancelled"
)

var validEnrollmentStatuses = []EnrollmentStatus{
	EnrollmentStatusActive,
	EnrollmentStatusCompleted,
	EnrollmentStatusCancelled,
}

// IsValid checks whether the given status matches the canonical enum.
func (s EnrollmentStatus) IsValid() bool {
	for _, candidate := range validEnrollmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseEnrollmentStatus converts raw strings into EnrollmentStatus.
func ParseEnrollmentStatus(value string) (EnrollmentStatus, error) {
	for _, candidate := range validEnrollmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid enrollment status %q", value)
}
