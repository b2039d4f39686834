// Package events implements the process-wide pub/sub bus that delivers
// stage-lifecycle and post-lifecycle notifications to observers (console,
// file log, statistics aggregator) without coupling the pipeline executor
// to any one of them.
package events

import (
	"time"

	"github.com/jmylchreest/mediapull/internal/models"
)

// Type names one of the seven event types the core emits.
type Type string

const (
	TypeStageStarted    Type = "stage_started"
	TypeStageCompleted  Type = "stage_completed"
	TypeStageFailed     Type = "stage_failed"
	TypePostDiscovered  Type = "post_discovered"
	TypePostProcessed   Type = "post_processed"
	TypeErrorOccurred   Type = "error_occurred"
	TypeStatisticsEvent Type = "statistics_event"
)

// Envelope wraps every event with the fields common to all of them.
// Publishers construct a typed payload (StageStarted, PostDiscovered,
// ...) and pass it to Bus.Emit/EmitAsync, which wraps it in an Envelope
// before delivery.
type Envelope struct {
	Timestamp     time.Time
	Type          Type
	SessionID     models.ULID
	CorrelationID string
	Payload       any
}

// StageStarted is emitted immediately before a stage's Process runs.
type StageStarted struct {
	Name   string
	Config map[string]any
}

// StageCompleted is emitted after a stage finishes without an unresolved
// failure.
type StageCompleted struct {
	Name      string
	Duration  time.Duration
	Processed int
	Succeeded int
	Failed    int
	Data      map[string]any
}

// StageFailed is emitted when a stage's failure is not resolved by the
// recovery manager.
type StageFailed struct {
	Name      string
	Duration  time.Duration
	Error     error
	ErrorCode string
	Config    map[string]any
}

// PostDiscovered is emitted per target when posts arrive during
// Acquisition.
type PostDiscovered struct {
	Source  string
	Target  string
	Type    string
	Count   int
	Preview []string // up to 3 post titles/ids
}

// PostProcessed is emitted per post after Processing dispatches it to a
// content handler.
type PostProcessed struct {
	PostID  string
	Handler string
	Success bool
}

// ErrorOccurred is emitted for every recoverable and unrecoverable
// failure, mirroring what the auditor also records.
type ErrorOccurred struct {
	Kind        string
	Message     string
	Stage       string
	Recoverable bool
	Extra       map[string]any
}

// StatisticsEvent carries a point-in-time snapshot for the statistics
// observer.
type StatisticsEvent struct {
	Name  string
	Value float64
	Tags  map[string]string
}
