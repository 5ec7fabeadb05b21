package domain

import (
	"fmt"

	"go.trai.ch/zerr"
)

// State is a pipeline state. States only ever advance one step at a time.
type State int

const (
	// StateUnresolved means no lock exists yet.
	StateUnresolved State = iota
	// StateLocked means a lock has been produced.
	StateLocked
	// StateAssembled means a runtime image has been committed.
	StateAssembled
	// StateRunning means the server is listening.
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateLocked:
		return "locked"
	case StateAssembled:
		return "assembled"
	case StateRunning:
		return "running"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Stage names the operation that moves the pipeline out of a state.
type Stage string

const (
	// StageResolve turns a manifest into a lock.
	StageResolve Stage = "resolve"
	// StageAssemble turns a lock into an image.
	StageAssemble Stage = "assemble"
	// StageLaunch turns an image into a running server.
	StageLaunch Stage = "launch"
)

// StageFor returns the stage that leaves the given state.
func StageFor(from State) Stage {
	switch from {
	case StateUnresolved:
		return StageResolve
	case StateLocked:
		return StageAssemble
	default:
		return StageLaunch
	}
}

// StateMachine enforces the strictly forward Unresolved → Locked → Assembled → Running order.
type StateMachine struct {
	current State
}

// NewStateMachine starts a machine in the given state.
func NewStateMachine(start State) *StateMachine {
	return &StateMachine{current: start}
}

// Current returns the current state.
func (m *StateMachine) Current() State {
	return m.current
}

// Advance moves to next, which must be the immediate successor of the current state.
func (m *StateMachine) Advance(next State) error {
	if next != m.current+1 || next > StateRunning {
		err := zerr.With(zerr.Wrap(ErrInvalidTransition, "states only advance one step"), "from", m.current.String())
		return zerr.With(err, "to", next.String())
	}
	m.current = next
	return nil
}

// StageError reports which stage failed and the state the pipeline halted in.
type StageError struct {
	Stage Stage
	State State
	Err   error
}

func (e *StageError) Error() string {
	return e.Message() + ": " + e.Err.Error()
}

// Message returns the stage summary without the cause chain.
func (e *StageError) Message() string {
	return fmt.Sprintf("%s stage failed (halted at %s)", e.Stage, e.State)
}

// Unwrap returns the originating error.
func (e *StageError) Unwrap() error {
	return e.Err
}
