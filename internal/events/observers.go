package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

// ConsoleObserver logs each event through a structured logger. It is the
// simplest observer and a reasonable default subscriber for "*".
type ConsoleObserver struct {
	logger *slog.Logger
}

// NewConsoleObserver creates a ConsoleObserver writing through logger.
func NewConsoleObserver(logger *slog.Logger) *ConsoleObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleObserver{logger: logger}
}

func (o *ConsoleObserver) OnEvent(env Envelope) {
	level := slog.LevelInfo
	if env.Type == TypeStageFailed || env.Type == TypeErrorOccurred {
		level = slog.LevelWarn
	}
	o.logger.Log(context.Background(), level, "pipeline event",
		slog.String("event_type", string(env.Type)),
		slog.String("session_id", env.SessionID.String()),
		slog.Any("payload", env.Payload),
	)
}

// FileLogObserver appends each event as a JSON line to a file, rotating
// it through the same size-based rotation internal/audit uses.
type FileLogObserver struct {
	mu       sync.Mutex
	f        *os.File
	path     string
	maxBytes int64
	backups  int
	written  atomic.Int64
}

// NewFileLogObserver opens (creating if needed) path for append and
// returns an observer that writes one JSON line per event.
func NewFileLogObserver(path string, maxBytes int64, backups int) (*FileLogObserver, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return nil, fmt.Errorf("events: open file log: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("events: stat file log: %w", err)
	}
	o := &FileLogObserver{f: f, path: path, maxBytes: maxBytes, backups: backups}
	o.written.Store(info.Size())
	return o, nil
}

func (o *FileLogObserver) OnEvent(env Envelope) {
	line, err := json.Marshal(struct {
		Timestamp     string `json:"timestamp"`
		Type          Type   `json:"type"`
		SessionID     string `json:"session_id"`
		CorrelationID string `json:"correlation_id"`
		Payload       any    `json:"payload"`
	}{
		Timestamp:     env.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
		Type:          env.Type,
		SessionID:     env.SessionID.String(),
		CorrelationID: env.CorrelationID,
		Payload:       env.Payload,
	})
	if err != nil {
		return
	}
	line = append(line, '\n')

	o.mu.Lock()
	defer o.mu.Unlock()
	n, err := o.f.Write(line)
	if err != nil {
		return
	}
	if o.written.Add(int64(n)) >= o.maxBytes {
		o.rotateLocked()
	}
}

func (o *FileLogObserver) rotateLocked() {
	o.f.Close()
	for i := o.backups - 1; i >= 1; i-- {
		src := fmt.Sprintf("%s.%d", o.path, i)
		dst := fmt.Sprintf("%s.%d", o.path, i+1)
		os.Rename(src, dst)
	}
	os.Rename(o.path, o.path+".1")
	f, err := os.OpenFile(o.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err == nil {
		o.f = f
		o.written.Store(0)
	}
}

// Close flushes and closes the underlying file.
func (o *FileLogObserver) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.f.Close()
}

// StatisticsObserver accumulates simple per-type counters for the run's
// final summary (event counts by event type, per-stage durations,
// error counts).
type StatisticsObserver struct {
	mu         sync.Mutex
	counts     map[Type]int64
	stageDurMS map[string]int64
	errorCount int64
}

// NewStatisticsObserver creates an empty StatisticsObserver.
func NewStatisticsObserver() *StatisticsObserver {
	return &StatisticsObserver{
		counts:     make(map[Type]int64),
		stageDurMS: make(map[string]int64),
	}
}

func (o *StatisticsObserver) OnEvent(env Envelope) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.counts[env.Type]++
	switch p := env.Payload.(type) {
	case StageCompleted:
		o.stageDurMS[p.Name] = p.Duration.Milliseconds()
	case StageFailed:
		o.stageDurMS[p.Name] = p.Duration.Milliseconds()
		o.errorCount++
	case ErrorOccurred:
		o.errorCount++
	}
}

// Snapshot returns a copy of the accumulated counters.
func (o *StatisticsObserver) Snapshot() (counts map[Type]int64, stageDurationsMS map[string]int64, errors int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	counts = make(map[Type]int64, len(o.counts))
	for k, v := range o.counts {
		counts[k] = v
	}
	stageDurationsMS = make(map[string]int64, len(o.stageDurMS))
	for k, v := range o.stageDurMS {
		stageDurationsMS[k] = v
	}
	return counts, stageDurationsMS, o.errorCount
}
