package enums

// DelayFrom selects the base timestamp a step delay is measured against.
type DelayFrom string

const (
	DelayFromEnrollment   DelayFrom = "enrollment"
	DelayFromPreviousStep DelayFrom = "previous_step"
)

// IsValid checks whether the given value matches the canonical enum.
func (d DelayFrom) IsValid() bool {
	return d == DelayFromEnrollment || d == DelayFromPreviousStep
}
