package models

import "time"

// StageResult is recorded once per stage invocation.
type StageResult struct {
	StageName      string
	Success        bool
	ProcessedCount int
	ErrorCount     int
	Errors         []error
	Warnings       []string
	Data           map[string]any
	Duration       time.Duration
}

// NewStageResult creates a StageResult with Success derived from the
// usual rule (success == error_count == 0); callers that need to mark a
// partial success explicitly may override Success after construction.
func NewStageResult(name string) *StageResult {
	return &StageResult{
		StageName: name,
		Success:   true,
		Data:      make(map[string]any),
	}
}

// AddError records an error against the stage result and flips Success
// to false (unless later overridden for an explicit partial success).
func (r *StageResult) AddError(err error) {
	r.Errors = append(r.Errors, err)
	r.ErrorCount++
	r.Success = false
}

// AddWarning records a non-fatal warning.
func (r *StageResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// ExecutionMetrics aggregates the results of a full Executor run.
type ExecutionMetrics struct {
	Success       bool
	StageResults  map[string]*StageResult
	SkippedStages []string
	Duration      time.Duration
	Errors        []error
}
