// Package handlers implements the Content-Handler Dispatch: a
// deterministic content-type classifier plus a priority-ordered
// registry of ContentHandler implementations, grounded on
// internal/ingestor's HandlerFactory (priority-ordered registration,
// can_handle predicate, dispatch-or-skip) from an earlier content-handler dispatch package, and
// on redditdl's redditdl/pipeline/stages/processing.py for the
// classifier rules and per-type handler behavior this package
// replaces entirely.
package handlers

import (
	"context"

	"github.com/jmylchreest/mediapull/internal/models"
)

// ContentHandler processes one PostRecord of a type it declares
// support for. Implementations are registered into a Registry and
// selected by priority among those whose CanHandle returns true.
type ContentHandler interface {
	// Name identifies the handler for logging and plugin bookkeeping.
	Name() string
	// SupportedTypes lists the PostTypes this handler is willing to
	// consider; Detect's output must be a member for CanHandle to be
	// consulted at all.
	SupportedTypes() []models.PostType
	// Priority orders handlers within a supported type; lower values
	// are tried first.
	Priority() int
	// CanHandle performs the final fine-grained check (e.g. a
	// recognized file extension) beyond the coarse type match.
	CanHandle(post *models.PostRecord, contentType models.PostType) bool
	// Process performs the handler's work and reports what it did.
	// outputDir is a sandbox-relative directory already scoped to this
	// post.
	Process(ctx context.Context, post *models.PostRecord, outputDir string) (*models.HandlerResult, error)
}

// Cleanupable is implemented by plugin handlers that hold resources
// needing an explicit teardown call when the plugin manager unloads
// them. Built-in handlers do not need it.
type Cleanupable interface {
	Cleanup() error
}
