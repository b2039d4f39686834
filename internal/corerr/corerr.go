// Package corerr implements the error-kind taxonomy, structured
// ErrorRecord construction, and the recovery-strategy table shared by
// every component in the pipeline.
//
// Grounded on internal/pipeline/core/errors.go's StageError/
// ConfigurationError wrapping pattern, generalized from two ad hoc
// error types to the full kind set used across this module, and on the
// kind-to-strategy table recovered from redditdl's
// core/exceptions.py and core/error_recovery.py.
package corerr

import (
	"fmt"

	"github.com/jmylchreest/mediapull/internal/models"
)

// New builds an ErrorRecord of the given kind with a message, wrapping
// cause (which may be nil).
func New(kind models.ErrorKind, code int, message string, cause error) *models.ErrorRecord {
	return &models.ErrorRecord{
		Kind:    kind,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithContext returns a copy of rec with its ErrorContext set.
func WithContext(rec *models.ErrorRecord, ctx models.ErrorContext) *models.ErrorRecord {
	out := *rec
	out.Context = ctx
	return &out
}

// WithSuggestions returns a copy of rec with recovery suggestions appended.
func WithSuggestions(rec *models.ErrorRecord, suggestions ...models.RecoverySuggestion) *models.ErrorRecord {
	out := *rec
	out.RecoverySuggestions = append(append([]models.RecoverySuggestion{}, out.RecoverySuggestions...), suggestions...)
	return &out
}

// Configuration constructs a Configuration-kind ErrorRecord. Configuration
// errors always map to the abort strategy.
func Configuration(field, message string) *models.ErrorRecord {
	return New(models.ErrorKindConfiguration, 400, fmt.Sprintf("configuration error for %s: %s", field, message), nil)
}

// Validation constructs a Validation-kind ErrorRecord.
func Validation(message string, cause error) *models.ErrorRecord {
	return New(models.ErrorKindValidation, 422, message, cause)
}

// Authentication constructs an Authentication-kind ErrorRecord. Maps to
// abort unless the caller has fallback credentials configured.
func Authentication(message string, cause error) *models.ErrorRecord {
	return New(models.ErrorKindAuthentication, 401, message, cause)
}

// Network constructs a Network-kind ErrorRecord. Transient by default;
// maps to retry.
func Network(message string, cause error) *models.ErrorRecord {
	return New(models.ErrorKindNetwork, 502, message, cause)
}

// TargetNotFound constructs a TargetNotFound-kind ErrorRecord.
func TargetNotFound(target string, cause error) *models.ErrorRecord {
	return New(models.ErrorKindTargetNotFound, 404, fmt.Sprintf("target not found: %s", target), cause)
}

// TargetAccessDenied constructs a TargetAccessDenied-kind ErrorRecord.
func TargetAccessDenied(target string, cause error) *models.ErrorRecord {
	return New(models.ErrorKindTargetAccessDenied, 403, fmt.Sprintf("access denied for target: %s", target), cause)
}

// Processing constructs a Processing-kind ErrorRecord, the catch-all for
// content-handler and stage-internal failures.
func Processing(message string, cause error) *models.ErrorRecord {
	return New(models.ErrorKindProcessing, 500, message, cause)
}

// UnsupportedFormat constructs an UnsupportedFormat-kind ErrorRecord.
func UnsupportedFormat(format string) *models.ErrorRecord {
	return New(models.ErrorKindUnsupportedFormat, 415, fmt.Sprintf("unsupported format: %s", format), nil)
}

// Filesystem constructs a Filesystem-kind ErrorRecord.
func Filesystem(message string, cause error) *models.ErrorRecord {
	return New(models.ErrorKindFilesystem, 500, message, cause)
}

// Unknown constructs an Unknown-kind ErrorRecord, the fallthrough for
// errors that arrive as plain Go errors with no classification attached.
func Unknown(cause error) *models.ErrorRecord {
	return New(models.ErrorKindUnknown, 500, cause.Error(), cause)
}

// AsErrorRecord classifies a plain error as Unknown unless it already is
// (or wraps) an *models.ErrorRecord.
func AsErrorRecord(err error) *models.ErrorRecord {
	if err == nil {
		return nil
	}
	var rec *models.ErrorRecord
	if as(err, &rec) {
		return rec
	}
	return Unknown(err)
}

// as is a small local errors.As to avoid importing errors just for this.
func as(err error, target **models.ErrorRecord) bool {
	for err != nil {
		if rec, ok := err.(*models.ErrorRecord); ok {
			*target = rec
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
