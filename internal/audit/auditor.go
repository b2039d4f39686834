package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/masq"
)

// Config tunes an Auditor's log destination and rotation policy. An
// empty LogFile keeps the auditor in-memory only (detector still runs,
// nothing is persisted).
type Config struct {
	LogFile        string
	MaxFileSize    int64
	BackupCount    int
	EnableDetector bool
}

// DefaultConfig matches audit.py's constructor defaults (10MB files,
// 5 backups, detector on).
func DefaultConfig() Config {
	return Config{MaxFileSize: 10 * 1024 * 1024, BackupCount: 5, EnableDetector: true}
}

// Auditor is the process-wide security-event log. Every SecurityEvent
// passed to Log is buffered, optionally persisted to a rotating file,
// and run through the suspicious-activity Detector unless it is itself
// a suspicious-activity event (preventing detection recursion, per
// audit.py's log_event).
type Auditor struct {
	logger   *slog.Logger
	detector *Detector
	writer   *rotatingWriter
	buffer   []SecurityEvent
	maxBuf   int
}

// New constructs an Auditor. If cfg.LogFile is set, events are also
// appended there through a size-based rotating writer.
func New(cfg Config) (*Auditor, error) {
	var writer *rotatingWriter
	var handler slog.Handler

	if cfg.LogFile != "" {
		w, err := newRotatingWriter(cfg.LogFile, cfg.MaxFileSize, cfg.BackupCount)
		if err != nil {
			return nil, err
		}
		writer = w
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			ReplaceAttr: masq.New(
				masq.WithFieldName("password"),
				masq.WithFieldName("token"),
				masq.WithFieldName("secret"),
				masq.WithFieldName("client_secret"),
			),
		})
	} else {
		handler = slog.NewJSONHandler(discardWriter{}, nil)
	}

	var detector *Detector
	if cfg.EnableDetector {
		detector = NewDetector()
	}

	return &Auditor{
		logger:   slog.New(handler),
		detector: detector,
		writer:   writer,
		maxBuf:   1000,
	}, nil
}

// Log records event: buffers it in memory, writes it to the rotating
// file if configured, and (unless event is itself a suspicious-activity
// event) runs it through the Detector, logging whatever additional
// events the detector raises.
func (a *Auditor) Log(event SecurityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	a.append(event)
	a.write(event)

	if a.detector == nil || event.EventType == EventSuspiciousActivity {
		return
	}
	for _, raised := range a.detector.Analyze(event) {
		a.append(raised)
		a.write(raised)
	}
}

func (a *Auditor) append(event SecurityEvent) {
	a.buffer = append(a.buffer, event)
	if len(a.buffer) > a.maxBuf {
		a.buffer = a.buffer[len(a.buffer)-a.maxBuf:]
	}
}

func (a *Auditor) write(event SecurityEvent) {
	a.logger.Log(context.Background(), levelFor(event.Severity), event.Message,
		slog.String("event_type", string(event.EventType)),
		slog.String("severity", string(event.Severity)),
		slog.String("session_id", event.SessionID),
		slog.String("user_id", event.UserID),
		slog.String("resource", event.Resource),
		slog.String("action", event.Action),
		slog.String("result", event.Result),
		slog.Any("context", event.Context),
	)
}

func levelFor(s Severity) slog.Level {
	switch s {
	case SeverityLow:
		return slog.LevelInfo
	case SeverityMedium:
		return slog.LevelWarn
	case SeverityHigh, SeverityCritical:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogAuthentication logs an AUTH_SUCCESS/AUTH_FAILURE event.
func (a *Auditor) LogAuthentication(success bool, userID, sessionID string, errMessage string) {
	eventType := EventAuthSuccess
	severity := SeverityLow
	result := "success"
	if !success {
		eventType = EventAuthFailure
		severity = SeverityMedium
		result = "failure"
	}
	ctx := map[string]any{}
	if errMessage != "" {
		ctx["error_message"] = errMessage
	}
	a.Log(SecurityEvent{
		EventType: eventType,
		Severity:  severity,
		Message:   "authentication " + result,
		UserID:    userID,
		SessionID: sessionID,
		Result:    result,
		Context:   ctx,
	})
}

// LogFileOperation logs a FILE_* event for operation against path.
func (a *Auditor) LogFileOperation(operation, path string, success bool, sessionID string) {
	eventType, ok := fileEventTypes[operation]
	if !ok {
		eventType = EventFileRead
	}
	severity := SeverityLow
	result := "success"
	if !success {
		severity = SeverityMedium
		result = "failure"
	}
	a.Log(SecurityEvent{
		EventType: eventType,
		Severity:  severity,
		Message:   "file " + operation + " " + result,
		Resource:  path,
		Action:    operation,
		Result:    result,
		SessionID: sessionID,
	})
}

var fileEventTypes = map[string]EventType{
	"read":     EventFileRead,
	"write":    EventFileWrite,
	"delete":   EventFileDelete,
	"download": EventFileDownload,
}

// LogConfigEvent logs a CONFIG_* event.
func (a *Auditor) LogConfigEvent(action, key string, success bool, sessionID string) {
	eventType, ok := configEventTypes[action]
	if !ok {
		eventType = EventConfigLoad
	}
	severity := SeverityLow
	result := "success"
	if !success {
		severity = SeverityMedium
		result = "failure"
	}
	a.Log(SecurityEvent{
		EventType: eventType,
		Severity:  severity,
		Message:   "configuration " + action + " " + result,
		Resource:  key,
		Action:    action,
		Result:    result,
		SessionID: sessionID,
	})
}

var configEventTypes = map[string]EventType{
	"load":     EventConfigLoad,
	"change":   EventConfigChange,
	"validate": EventConfigValidate,
}

// LogPluginEvent logs a PLUGIN_* event. Plugin events carry a higher
// baseline severity than file/config events given their security
// implications, matching audit.py's log_plugin_event.
func (a *Auditor) LogPluginEvent(action, pluginName string, success bool, sessionID string) {
	eventType, ok := pluginEventTypes[action]
	if !ok {
		eventType = EventPluginExecute
	}
	severity := SeverityMedium
	result := "success"
	if !success {
		severity = SeverityHigh
		result = "failure"
	}
	a.Log(SecurityEvent{
		EventType: eventType,
		Severity:  severity,
		Message:   "plugin " + action + " " + result,
		Resource:  pluginName,
		Action:    action,
		Result:    result,
		SessionID: sessionID,
	})
}

var pluginEventTypes = map[string]EventType{
	"load":     EventPluginLoad,
	"unload":   EventPluginUnload,
	"execute":  EventPluginExecute,
	"validate": EventPluginValidate,
}

// Recent returns a snapshot of the in-memory event buffer, most recent
// last, capped at limit (0 means the whole buffer).
func (a *Auditor) Recent(limit int) []SecurityEvent {
	if limit <= 0 || limit >= len(a.buffer) {
		out := make([]SecurityEvent, len(a.buffer))
		copy(out, a.buffer)
		return out
	}
	out := make([]SecurityEvent, limit)
	copy(out, a.buffer[len(a.buffer)-limit:])
	return out
}

// Close flushes and closes the underlying rotating file, if configured.
func (a *Auditor) Close() error {
	if a.writer == nil {
		return nil
	}
	return a.writer.Close()
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
