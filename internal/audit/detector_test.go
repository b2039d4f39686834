package audit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeRaisesRepeatedFailurePattern(t *testing.T) {
	d := NewDetector()
	now := time.Now()

	var lastRaised []SecurityEvent
	for i := 0; i < repeatedFailureThreshold; i++ {
		lastRaised = d.Analyze(SecurityEvent{
			EventType: EventAuthFailure,
			UserID:    "alice",
			Result:    "failure",
			Timestamp: now.Add(time.Duration(i) * time.Millisecond),
		})
	}

	require.NotEmpty(t, lastRaised)
	found := false
	for _, e := range lastRaised {
		if e.EventType == EventSuspiciousActivity && e.Context["pattern"] == "repeated_failures" {
			found = true
		}
	}
	assert.True(t, found, "expected a repeated_failures suspicious-activity event")
}

func TestAnalyzeRaisesRateLimitHitAboveThreshold(t *testing.T) {
	d := NewDetector()
	now := time.Now()

	threshold := rateThresholds[EventFileDownload]
	var raised []SecurityEvent
	for i := 0; i < threshold+1; i++ {
		raised = d.Analyze(SecurityEvent{
			EventType: EventFileDownload,
			UserID:    "bob",
			Timestamp: now.Add(time.Duration(i) * time.Millisecond),
		})
	}

	found := false
	for _, e := range raised {
		if e.EventType == EventRateLimitHit {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDetectWindowPatternsRaisesPrivilegeEscalation(t *testing.T) {
	d := NewDetector()
	now := time.Now()

	var raised []SecurityEvent
	for i := 0; i < 12; i++ {
		eventType := EventAccessDenied
		if i%2 == 0 {
			eventType = EventPermissionCheck
		}
		raised = d.Analyze(SecurityEvent{
			EventType: eventType,
			Timestamp: now.Add(time.Duration(i) * time.Millisecond),
		})
	}

	found := false
	for _, e := range raised {
		if e.Context["pattern"] == "privilege_escalation" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDetectWindowPatternsRaisesScanning(t *testing.T) {
	d := NewDetector()
	now := time.Now()

	var raised []SecurityEvent
	for i := 0; i < 18; i++ {
		raised = d.Analyze(SecurityEvent{
			EventType: EventFileRead,
			Resource:  fmt.Sprintf("resource-%d", i),
			Timestamp: now.Add(time.Duration(i) * time.Millisecond),
		})
	}

	found := false
	for _, e := range raised {
		if e.Context["pattern"] == "resource_scanning" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDetectWindowPatternsEscalatesToCriticalWhenBothCooccur(t *testing.T) {
	d := NewDetector()
	now := time.Now()

	var raised []SecurityEvent
	for i := 0; i < 20; i++ {
		eventType := EventAccessDenied
		resource := fmt.Sprintf("resource-%d", i)
		raised = d.Analyze(SecurityEvent{
			EventType: eventType,
			Resource:  resource,
			Timestamp: now.Add(time.Duration(i) * time.Millisecond),
		})
	}

	var criticalFound, escalationFound, scanningFound bool
	for _, e := range raised {
		switch e.Context["pattern"] {
		case "privilege_escalation_with_scanning":
			criticalFound = e.Severity == SeverityCritical
		case "privilege_escalation":
			escalationFound = true
		case "resource_scanning":
			scanningFound = true
		}
	}
	assert.True(t, escalationFound)
	assert.True(t, scanningFound)
	assert.True(t, criticalFound, "expected a critical compound escalation event")
}

func TestAnalyzeIgnoresSuccessForFailurePattern(t *testing.T) {
	d := NewDetector()
	raised := d.Analyze(SecurityEvent{EventType: EventAuthSuccess, Result: "success", Timestamp: time.Now()})
	for _, e := range raised {
		assert.NotEqual(t, "repeated_failures", e.Context["pattern"])
	}
}
