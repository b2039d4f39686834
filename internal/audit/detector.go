package audit

import (
	"fmt"
	"sync"
	"time"
)

// rateThresholds gives a few event types a tighter per-class window
// before EventRateLimitHit fires; everything else falls back to
// defaultRateThreshold, mirroring audit.py's rate_thresholds table.
var rateThresholds = map[EventType]int{
	EventAuthFailure:       10,
	EventFileDownload:      100,
	EventValidationFailure: 20,
}

const defaultRateThreshold = 50

// repeatedFailureThreshold is the count of same-key failures before a
// repeated_failures SuspiciousActivity event fires.
const repeatedFailureThreshold = 5

// escalationThreshold is the count of access-denied/permission-check
// events in the analysis window before a privilege_escalation pattern
// fires.
const escalationThreshold = 5

// scanningThreshold is the count of distinct resources touched in the
// analysis window before a resource_scanning pattern fires.
const scanningThreshold = 15

// patternWindow is how many of the most recent events detectWindowPatterns
// inspects, matching audit.py's recent[-20:] slice.
const patternWindow = 20

// Detector keeps a bounded sliding window of recent events and flags
// patterns that look like privilege escalation, resource scanning, or
// rate/failure abuse. Window size and time bound match the
// (size 100, 300s).
type Detector struct {
	mu            sync.Mutex
	windowSize    int
	timeWindow    time.Duration
	recent        []SecurityEvent
	failureCounts map[string]int
	rateEvents    map[string][]time.Time
}

// NewDetector creates a Detector with the default window (100 events,
// 300s).
func NewDetector() *Detector {
	return NewDetectorWithWindow(100, 300*time.Second)
}

// NewDetectorWithWindow creates a Detector with a custom window, mainly
// for tests that need a shorter time bound.
func NewDetectorWithWindow(windowSize int, timeWindow time.Duration) *Detector {
	return &Detector{
		windowSize:    windowSize,
		timeWindow:    timeWindow,
		failureCounts: make(map[string]int),
		rateEvents:    make(map[string][]time.Time),
	}
}

// Analyze records event and returns any additional SecurityEvents the
// patterns it and its recent history match should raise. Never called
// recursively on the events it itself returns — the caller (Auditor)
// logs them without re-running detection.
func (d *Detector) Analyze(event SecurityEvent) []SecurityEvent {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.recent = append(d.recent, event)
	if len(d.recent) > d.windowSize {
		d.recent = d.recent[len(d.recent)-d.windowSize:]
	}

	var raised []SecurityEvent

	if event.Result == "failure" {
		key := event.failureKey()
		d.failureCounts[key]++
		if d.failureCounts[key] >= repeatedFailureThreshold {
			raised = append(raised, SecurityEvent{
				EventType: EventSuspiciousActivity,
				Severity:  SeverityHigh,
				Message:   fmt.Sprintf("multiple %s failures detected", event.EventType),
				SessionID: event.SessionID,
				UserID:    event.UserID,
				Timestamp: event.Timestamp,
				Context: map[string]any{
					"failure_count":       d.failureCounts[key],
					"original_event_type": string(event.EventType),
					"pattern":             "repeated_failures",
				},
			})
		}
	}

	rateKey := event.failureKey()
	now := event.Timestamp
	cutoff := now.Add(-d.timeWindow)
	times := d.rateEvents[rateKey]
	pruned := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			pruned = append(pruned, t)
		}
	}
	pruned = append(pruned, now)
	d.rateEvents[rateKey] = pruned

	threshold, ok := rateThresholds[event.EventType]
	if !ok {
		threshold = defaultRateThreshold
	}
	if len(pruned) > threshold {
		raised = append(raised, SecurityEvent{
			EventType: EventRateLimitHit,
			Severity:  SeverityMedium,
			Message:   fmt.Sprintf("rate limit exceeded for %s", event.EventType),
			SessionID: event.SessionID,
			UserID:    event.UserID,
			Timestamp: event.Timestamp,
			Context: map[string]any{
				"event_count":         len(pruned),
				"threshold":           threshold,
				"time_window_seconds": d.timeWindow.Seconds(),
				"original_event_type": string(event.EventType),
			},
		})
	}

	if len(d.recent) >= 10 {
		raised = append(raised, d.detectWindowPatterns()...)
	}

	return raised
}

// detectWindowPatterns checks the privilege-escalation and
// resource-scanning patterns over the most recent patternWindow
// events, and the compound severity-escalation rule: when both
// co-occur in the same window, a critical event is raised in addition
// to (not instead of) the two high/medium ones.
func (d *Detector) detectWindowPatterns() []SecurityEvent {
	recent := d.recent
	if len(recent) > patternWindow {
		recent = recent[len(recent)-patternWindow:]
	}

	var escalationCount int
	resources := make(map[string]struct{})
	for _, e := range recent {
		if e.EventType == EventAccessDenied || e.EventType == EventPermissionCheck {
			escalationCount++
		}
		if e.Resource != "" {
			resources[e.Resource] = struct{}{}
		}
	}

	isEscalation := escalationCount >= escalationThreshold
	isScanning := len(resources) >= scanningThreshold

	var patterns []SecurityEvent
	if isEscalation {
		patterns = append(patterns, SecurityEvent{
			EventType: EventSuspiciousActivity,
			Severity:  SeverityHigh,
			Message:   "potential privilege escalation attempt detected",
			Timestamp: recent[len(recent)-1].Timestamp,
			Context: map[string]any{
				"pattern":     "privilege_escalation",
				"event_count": escalationCount,
			},
		})
	}
	if isScanning {
		patterns = append(patterns, SecurityEvent{
			EventType: EventSuspiciousActivity,
			Severity:  SeverityMedium,
			Message:   "potential scanning behavior detected",
			Timestamp: recent[len(recent)-1].Timestamp,
			Context: map[string]any{
				"pattern":          "resource_scanning",
				"unique_resources": len(resources),
				"total_events":     len(recent),
			},
		})
	}
	if isEscalation && isScanning {
		patterns = append(patterns, SecurityEvent{
			EventType: EventSuspiciousActivity,
			Severity:  SeverityCritical,
			Message:   "privilege escalation combined with scanning behavior detected",
			Timestamp: recent[len(recent)-1].Timestamp,
			Context: map[string]any{
				"pattern":          "privilege_escalation_with_scanning",
				"escalation_count": escalationCount,
				"unique_resources": len(resources),
			},
		})
	}

	return patterns
}
