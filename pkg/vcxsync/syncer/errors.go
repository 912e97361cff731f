package syncer

import (
	"errors"
	"fmt"
)

// Phase names a step of a sync run.
type Phase string

// Sync phases in execution order.
const (
	PhaseConfig    Phase = "config"
	PhaseDiscovery Phase = "discovery"
	PhaseLock      Phase = "lock"
	PhaseScan      Phase = "scan"
	PhaseLoad      Phase = "load"
	PhaseReconcile Phase = "reconcile"
	PhaseWrite     Phase = "write"
)

// ErrOutOfDate is returned in check mode when the project documents do not
// match the source tree.
var ErrOutOfDate = errors.New("project files are out of date")

// PhaseError reports the phase and path at which a run failed.
type PhaseError struct {
	Phase Phase
	Path  string
	Err   error
}

func (e *PhaseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Phase, e.Path, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

func phaseErr(phase Phase, path string, err error) error {
	return &PhaseError{Phase: phase, Path: path, Err: err}
}
