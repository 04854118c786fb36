package valueobject

import "fmt"

// Action is the discrete outcome of a risk decision.
type Action struct {
	value string
}

var (
	ActionApprove = Action{value: "Approve"}
	ActionOTP     = Action{value: "OTP"}
	ActionBlock   = Action{value: "Block"}
)

// ActionFromString reconstructs an Action from its persisted form.
func ActionFromString(s string) (Action, error) {
	switch s {
	case "Approve":
		return ActionApprove, nil
	case "OTP":
		return ActionOTP, nil
	case "Block":
		return ActionBlock, nil
	default:
		return Action{}, fmt.Errorf("invalid action: %q", s)
	}
}

// String returns the string representation.
func (a Action) String() string {
	return a.value
}

// IsZero returns true if the action has not been set.
func (a Action) IsZero() bool {
	return a.value == ""
}

// Equal checks equality with another Action.
func (a Action) Equal(other Action) bool {
	return a.value == other.value
}

// IsBlock reports whether the transaction was blocked as fraud.
func (a Action) IsBlock() bool {
	return a.value == "Block"
}

// IsChallenge reports whether a step-up OTP challenge is required.
func (a Action) IsChallenge() bool {
	return a.value == "OTP"
}
