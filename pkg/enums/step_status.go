package enums

// StepStatus maps to the step_status enum in Postgres.
type StepStatus string

const (
	StepStatusActive   StepStatus = "active"
	StepStatusInactive StepStatus = "inactive"
)

// IsValid checks whether the given status matches the canonical enum.
func (s StepStatus) IsValid() bool {
	return s == StepStatusActive || s == StepStatusInactive
}
