package corerr

import "github.com/jmylchreest/mediapull/internal/models"

// Strategy names the recovery action chosen for an ErrorRecord's kind.
type Strategy string

const (
	StrategyRetry  Strategy = "retry"
	StrategySkip   Strategy = "skip"
	StrategyIgnore Strategy = "ignore"
	StrategyAbort  Strategy = "abort"
)

// defaultStrategy maps each error kind to its default recovery strategy,
// retry for transient Network/rate-limit, skip for
// unrecoverable per-item issues, ignore for warnings only, abort for
// Configuration/Authentication.
var defaultStrategy = map[models.ErrorKind]Strategy{
	models.ErrorKindConfiguration:      StrategyAbort,
	models.ErrorKindValidation:         StrategySkip,
	models.ErrorKindAuthentication:     StrategyAbort,
	models.ErrorKindNetwork:            StrategyRetry,
	models.ErrorKindTargetNotFound:     StrategySkip,
	models.ErrorKindTargetAccessDenied: StrategySkip,
	models.ErrorKindProcessing:         StrategySkip,
	models.ErrorKindUnsupportedFormat:  StrategySkip,
	models.ErrorKindFilesystem:         StrategyRetry,
	models.ErrorKindUnknown:            StrategySkip,
}

// Outcome is the result of RecoveryManager.Recover: whether the error was
// resolved, which strategy was applied, and a human-readable message.
type Outcome struct {
	Success  bool
	Strategy Strategy
	Message  string
}

// RecoveryManager selects and (where automatic) applies a recovery
// strategy for a failed operation. Callers decide whether to re-invoke
// the failed operation based on Outcome.Success and Outcome.Strategy.
//
// Grounded structurally on redditdl's core/error_recovery.py
// (kind -> strategy lookup, {success, strategy_used, message} return
// shape) with HasFallbackCredentials standing in for its
// "fallback credentials configured" escape hatch on Authentication.
type RecoveryManager struct {
	// HasFallbackCredentials, if set, is consulted for Authentication
	// errors: when it returns true the manager treats the failure as
	// retryable instead of fatal.
	HasFallbackCredentials func() bool
}

// NewRecoveryManager creates a RecoveryManager with the default strategy
// table and no fallback-credentials escape hatch.
func NewRecoveryManager() *RecoveryManager {
	return &RecoveryManager{}
}

// StrategyFor returns the strategy that would be chosen for rec, without
// applying it.
func (m *RecoveryManager) StrategyFor(rec *models.ErrorRecord) Strategy {
	if rec == nil {
		return StrategyIgnore
	}
	if rec.Kind == models.ErrorKindAuthentication && m.HasFallbackCredentials != nil && m.HasFallbackCredentials() {
		return StrategyRetry
	}
	if s, ok := defaultStrategy[rec.Kind]; ok {
		return s
	}
	return StrategySkip
}

// IsFatal reports whether rec's kind aborts immediately regardless of the
// executor's configured error-handling policy ("Fatal kinds
// (Configuration, Authentication without fallback credentials) abort
// immediately regardless of policy").
func (m *RecoveryManager) IsFatal(rec *models.ErrorRecord) bool {
	return m.StrategyFor(rec) == StrategyAbort
}

// Recover classifies err, selects a strategy, and reports the outcome.
// It does not itself retry the failed operation — it only recommends
// whether a caller should.
func (m *RecoveryManager) Recover(err error) Outcome {
	rec := AsErrorRecord(err)
	strategy := m.StrategyFor(rec)
	switch strategy {
	case StrategyRetry:
		return Outcome{Success: false, Strategy: strategy, Message: "retry recommended: " + rec.Message}
	case StrategyIgnore:
		return Outcome{Success: true, Strategy: strategy, Message: "ignored: " + rec.Message}
	case StrategySkip:
		return Outcome{Success: false, Strategy: strategy, Message: "skipped: " + rec.Message}
	default: // StrategyAbort
		return Outcome{Success: false, Strategy: strategy, Message: "abort: " + rec.Message}
	}
}
