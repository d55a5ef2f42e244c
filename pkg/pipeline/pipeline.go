package pipeline

import (
	"errors"
	"fmt"

	"safelens/internal/entity"
)

var (
	ErrOperationInProgress = errors.New("an analysis or edit is already running")
	ErrNotAnalyzed         = errors.New("image has not been analyzed")
	ErrInvalidTransition   = errors.New("invalid pipeline transition")
)

// Machine drives the pipeline state stored on a session. Error means the
// last detect failed and behaves like Idle.
type Machine struct {
	s *entity.EditSession
}

func For(s *entity.EditSession) *Machine {
	return &Machine{s: s}
}

func (m *Machine) State() entity.PipelineState {
	return m.s.State
}

func (m *Machine) BeginAnalyze() error {
	if m.s.State.Busy() {
		return ErrOperationInProgress
	}
	m.s.ResumeState = m.s.State
	m.s.State = entity.StateAnalyzing
	m.s.LastError = ""
	return nil
}

func (m *Machine) CompleteAnalyze() error {
	if err := m.expect(entity.StateAnalyzing); err != nil {
		return err
	}
	m.s.State = entity.StateAnalyzed
	return nil
}

// FailAnalyze leaves the session unanalyzed. Regions were already cleared
// when the analysis began.
func (m *Machine) FailAnalyze(cause error) error {
	if err := m.expect(entity.StateAnalyzing); err != nil {
		return err
	}
	m.s.State = entity.StateError
	m.s.LastError = message(cause)
	return nil
}

func (m *Machine) BeginProcess() error {
	switch m.s.State {
	case entity.StateAnalyzing, entity.StateProcessing:
		return ErrOperationInProgress
	case entity.StateAnalyzed, entity.StateProcessed:
	default:
		return ErrNotAnalyzed
	}
	m.s.ResumeState = m.s.State
	m.s.State = entity.StateProcessing
	m.s.LastError = ""
	return nil
}

func (m *Machine) CompleteProcess() error {
	if err := m.expect(entity.StateProcessing); err != nil {
		return err
	}
	m.s.State = entity.StateProcessed
	return nil
}

// FailProcess returns to whatever state processing started from.
func (m *Machine) FailProcess(cause error) error {
	if err := m.expect(entity.StateProcessing); err != nil {
		return err
	}
	m.s.State = m.s.ResumeState
	m.s.LastError = message(cause)
	return nil
}

// Abort rolls back a transition whose network call never started.
func (m *Machine) Abort() {
	if m.s.State.Busy() {
		m.s.State = m.s.ResumeState
	}
}

func (m *Machine) expect(want entity.PipelineState) error {
	if m.s.State != want {
		return fmt.Errorf("%w: %s while expecting %s", ErrInvalidTransition, m.s.State, want)
	}
	return nil
}

func message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
