package enums

import "fmt"

// RuleStatus maps to the rule_status enum in Postgres.
type RuleStatus string

const (
	RuleStatusActive   RuleStatus = "active"
	RuleStatusInactive RuleStatus = "inactive"
)

var validRuleStatuses = []RuleStatus{
	RuleStatusActive,
	RuleStatusInactive,
}

// IsValid checks whether the given status matches the canonical enum.
func (s RuleStatus) IsValid() bool {
	for _, candidate := range validRuleStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseRuleStatus converts raw strings into RuleStatus.
func ParseRuleStatus(value string) (RuleStatus, error) {
	for _, candidate := range validRuleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rule status %q", value)
}
