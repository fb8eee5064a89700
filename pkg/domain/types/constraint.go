package types

import "fmt"

// ConstraintType represents the kind of constraint a user reports in the baseline
type ConstraintType string

const (
	ConstraintTime        ConstraintType = "time"
	ConstraintBudget      ConstraintType = "budget"
	ConstraintSkill       ConstraintType = "skill"
	ConstraintTools       ConstraintType = "tools"
	ConstraintEnvironment ConstraintType = "environment"
	ConstraintOther       ConstraintType = "other"
)

// AllConstraintTypes returns all valid constraint types
func AllConstraintTypes() []ConstraintType {
	return []ConstraintType{
		ConstraintTime,
		ConstraintBudget,
		ConstraintSkill,
		ConstraintTools,
		ConstraintEnvironment,
		ConstraintOther,
	}
}

// IsValid checks if the constraint type is valid
func (c ConstraintType) IsValid() bool {
	switch c {
	case ConstraintTime, ConstraintBudget, ConstraintSkill,
		ConstraintTools, ConstraintEnvironment, ConstraintOther:
		return true
	default:
		return false
	}
}

// String returns the string representation of the constraint type
func (c ConstraintType) String() string {
	return string(c)
}

// Severity represents how strongly a constraint or pain point binds
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// AllSeverities returns all valid severities
func AllSeverities() []Severity {
	return []Severity{SeverityLow, SeverityMedium, SeverityHigh}
}

// IsValid checks if the severity is valid
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	default:
		return false
	}
}

// String returns the string representation of the severity
func (s Severity) String() string {
	return string(s)
}

// ParseSeverity parses a string into a Severity
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(s)
	if !sev.IsValid() {
		return "", fmt.Errorf("invalid severity: %s", s)
	}
	return sev, nil
}
