package dialog

import (
	"encoding/json"
	"fmt"
)

// State is one step of the controller cycle. A session loops
// idle_listening → capturing → transcribing → interpreting → responding
// → idle_listening until it reaches the terminal session_done.
type State int

const (
	StateIdleListening State = iota
	StateCapturing
	StateTranscribing
	StateInterpreting
	StateResponding
	StateSessionDone
)

// String returns the snake_case name of the state.
func (s State) String() string {
	switch s {
	case StateIdleListening:
		return "idle_listening"
	case StateCapturing:
		return "capturing"
	case StateTranscribing:
		return "transcribing"
	case StateInterpreting:
		return "interpreting"
	case StateResponding:
		return "responding"
	case StateSessionDone:
		return "session_done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether the session has ended.
func (s State) Terminal() bool {
	return s == StateSessionDone
}

// MarshalJSON implements json.Marshaler.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *State) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "idle_listening":
		*s = StateIdleListening
	case "capturing":
		*s = StateCapturing
	case "transcribing":
		*s = StateTranscribing
	case "interpreting":
		*s = StateInterpreting
	case "responding":
		*s = StateResponding
	case "session_done":
		*s = StateSessionDone
	default:
		return fmt.Errorf("dialog: unknown state %q", name)
	}
	return nil
}
