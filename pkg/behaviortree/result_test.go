package behaviortree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult_Constructors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		result  Result
		outcome Outcome
		state   State
		str     string
	}{
		{"success", Success(), OutcomeSuccess, StateSucceeded, "success"},
		{"failure", Failure(), OutcomeFailure, StateFailed, "failure"},
		{"panic", Panic(boom), OutcomePanic, StatePanicked, "panic(boom)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.outcome, tt.result.Outcome)
			assert.Equal(t, tt.state, tt.result.terminalState())
			assert.Equal(t, tt.str, tt.result.String())
			assert.Equal(t, tt.outcome == OutcomeSuccess, tt.result.IsSuccess())
			assert.Equal(t, tt.outcome == OutcomeFailure, tt.result.IsFailure())
			assert.Equal(t, tt.outcome == OutcomePanic, tt.result.IsPanic())
		})
	}
}

func TestPanic_NilPayload(t *testing.T) {
	r := Panic(nil)
	assert.True(t, r.IsPanic())
	assert.ErrorIs(t, r.Err, ErrPanicWithoutCause)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "unknown", Outcome(42).String())
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state    State
		name     string
		terminal bool
	}{
		{StateIdle, "idle", false},
		{StateRunning, "running", false},
		{StateSucceeded, "succeeded", true},
		{StateFailed, "failed", true},
		{StatePanicked, "panicked", true},
		{StateCanceled, "canceled", true},
		{State(99), "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.state.String())
			assert.Equal(t, tt.terminal, tt.state.IsTerminal())
		})
	}
}

func TestCanTransition(t *testing.T) {
	all := []State{StateIdle, StateRunning, StateSucceeded, StateFailed, StatePanicked, StateCanceled}
	allowed := map[[2]State]bool{
		{StateIdle, StateRunning}:      true,
		{StateIdle, StateCanceled}:     true,
		{StateRunning, StateSucceeded}: true,
		{StateRunning, StateFailed}:    true,
		{StateRunning, StatePanicked}:  true,
		// re-execution of a finished node
		{StateSucceeded, StateRunning}: true,
		{StateFailed, StateRunning}:    true,
		{StatePanicked, StateRunning}:  true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]State{from, to}]
			assert.Equal(t, want, canTransition(from, to), "%s -> %s", from, to)
		}
	}
}
