package audit

import (
	"fmt"
	"os"
	"sync"
)

// rotatingWriter is a size-based rotating append writer: once the file
// crosses maxBytes, it's renamed .1 (cascading existing .1..backups-1
// upward) and a fresh file is opened. Mirrors internal/events'
// FileLogObserver rotation, hand-rolled rather than importing a
// third-party rotation library — see DESIGN.md.
type rotatingWriter struct {
	mu       sync.Mutex
	f        *os.File
	path     string
	maxBytes int64
	backups  int
	written  int64
}

func newRotatingWriter(path string, maxBytes int64, backups int) (*rotatingWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return nil, fmt.Errorf("audit: open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("audit: stat log file: %w", err)
	}
	return &rotatingWriter{f: f, path: path, maxBytes: maxBytes, backups: backups, written: info.Size()}, nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.f.Write(p)
	if err != nil {
		return n, err
	}
	w.written += int64(n)
	if w.maxBytes > 0 && w.written >= w.maxBytes {
		w.rotateLocked()
	}
	return n, nil
}

func (w *rotatingWriter) rotateLocked() {
	w.f.Close()
	for i := w.backups - 1; i >= 1; i-- {
		src := fmt.Sprintf("%s.%d", w.path, i)
		dst := fmt.Sprintf("%s.%d", w.path, i+1)
		os.Rename(src, dst)
	}
	os.Rename(w.path, w.path+".1")
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err == nil {
		w.f = f
		w.written = 0
	}
}

func (w *rotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}
