package services

import (
	"errors"
	"fmt"
)

// Failure taxonomy for the data pipeline: access-denied and not-found are
// terminal for the current operation and surfaced distinctly; anything else
// from storage is treated as transient and subject to the retry policy.
var (
	ErrAccessDenied = errors.New("you do not have permission to access this project")
	ErrNotFound     = errors.New("project not found")
)

// CollectorError wraps a pipeline failure with the operation and project it
// belongs to, keeping the sentinel reachable through errors.Is.
type CollectorError struct {
	Op        string
	ProjectID string
	Err       error
}

func (e *CollectorError) Error() string {
	return fmt.Sprintf("%s failed for project %s: %v", e.Op, e.ProjectID, e.Err)
}

func (e *CollectorError) Unwrap() error { return e.Err }
