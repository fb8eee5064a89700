package types

// QuestionPriority ranks diagnostic questions for presentation order
type QuestionPriority string

const (
	PriorityPrimary   QuestionPriority = "primary"
	PrioritySecondary QuestionPriority = "secondary"
	PriorityFollowUp  QuestionPriority = "follow_up"
)

// IsValid checks if the question priority is valid
func (q QuestionPriority) IsValid() bool {
	switch q {
	case PriorityPrimary, PrioritySecondary, PriorityFollowUp:
		return true
	default:
		return false
	}
}

// String returns the string representation of the question priority
func (q QuestionPriority) String() string {
	return string(q)
}
