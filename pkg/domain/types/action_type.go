package types

import "fmt"

// ActionType represents the kind of action the mentor decides to take next
type ActionType string

const (
	ActionAsk      ActionType = "ask"
	ActionExplain  ActionType = "explain"
	ActionGuide    ActionType = "guide"
	ActionLoopBack ActionType = "loop_back"
)

// AllActionTypes returns all valid action types
func AllActionTypes() []ActionType {
	return []ActionType{
		ActionAsk,
		ActionExplain,
		ActionGuide,
		ActionLoopBack,
	}
}

// IsValid checks if the action type is valid
func (a ActionType) IsValid() bool {
	switch a {
	case ActionAsk, ActionExplain, ActionGuide, ActionLoopBack:
		return true
	default:
		return false
	}
}

// String returns the string representation of the action type
func (a ActionType) String() string {
	return string(a)
}

// ParseActionType parses a string into an ActionType
func ParseActionType(s string) (ActionType, error) {
	a := ActionType(s)
	if !a.IsValid() {
		return "", fmt.Errorf("invalid action type: %s", s)
	}
	return a, nil
}
