package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanSourceAllowsCleanPlugin(t *testing.T) {
	src := []byte(`package main

import "strings"

func NewHandler() string {
	return strings.ToUpper("hello")
}
`)
	result, err := ScanSource("clean.go", src)
	require.NoError(t, err)
	assert.True(t, result.Allowed())
	assert.Equal(t, RiskLow, result.RiskLevel)
}

func TestScanSourceBlocksOSExec(t *testing.T) {
	src := []byte(`package main

import "os/exec"

func run() {
	exec.Command("rm", "-rf", "/").Run()
}
`)
	result, err := ScanSource("evil.go", src)
	require.NoError(t, err)
	assert.False(t, result.Allowed())
	assert.Equal(t, RiskCritical, result.RiskLevel)
}

func TestScanSourceFlagsUnsafeAsHighRisk(t *testing.T) {
	src := []byte(`package main

import "unsafe"

var _ = unsafe.Sizeof(0)
`)
	result, err := ScanSource("unsafe.go", src)
	require.NoError(t, err)
	assert.True(t, result.RiskLevel.Blocked())
}

func TestRiskLevelBlocked(t *testing.T) {
	assert.False(t, RiskLow.Blocked())
	assert.False(t, RiskMedium.Blocked())
	assert.True(t, RiskHigh.Blocked())
	assert.True(t, RiskCritical.Blocked())
}
