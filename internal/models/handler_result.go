package models

import "time"

// HandlerResult is produced once per handled post. FilesCreated is
// exhaustive for the post; Success is always (Error == nil) except where
// a caller explicitly overrides it for a recovered retry.
type HandlerResult struct {
	Success             bool
	FilesCreated        []string
	OperationsPerformed []string
	EmbeddedMetadata    bool
	SidecarCreated      bool
	Duration            time.Duration
	Error               error
}
