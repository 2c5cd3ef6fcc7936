package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure in a run wraps exactly one of these so callers
// can classify it with errors.Is.
var (
	ErrFileAccess     = errors.New("file access error")
	ErrParse          = errors.New("parse error")
	ErrDateFormat     = errors.New("date format error")
	ErrGeometryFormat = errors.New("geometry format error")
	ErrStore          = errors.New("store error")
)

// RowError ties a normalization failure to its source line.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Pipeline stage names used in StageError and in metric labels.
const (
	StageLoad      = "load"
	StageTransform = "transform"
	StagePersist   = "persist"
	StageExport    = "export"
	StagePublish   = "publish"
)

// StageError identifies the pipeline stage a fatal error came from.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
