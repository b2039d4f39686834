// Package plugin discovers and loads external ContentHandler
// implementations compiled as Go plugins (.so), static-scanning each
// one's source before it is ever opened. Grounded on
// redditdl's redditdl/core/security/plugin_security.py
// (PluginSecurityScanner: AST walk over imports/calls, risk-level
// calculation, high-risk block), reexpressed here over go/ast instead
// of Python's ast module since Go ships its own parser for exactly
// this job.
package plugin

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
)

// RiskLevel is the scanner's verdict on a plugin's source.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Blocked reports whether r should prevent a plugin from loading, per
// "high and above are blocked".
func (r RiskLevel) Blocked() bool { return r >= RiskHigh }

// disallowedImports are packages a content-handler plugin has no
// legitimate reason to import: process execution, raw syscalls,
// unsafe memory, reflection-based dispatch, and the plugin loader
// itself (no plugins-loading-plugins).
var disallowedImports = map[string]RiskLevel{
	"os/exec":         RiskCritical,
	"syscall":         RiskCritical,
	"unsafe":          RiskHigh,
	"reflect":         RiskMedium,
	"plugin":          RiskHigh,
	"net":             RiskMedium,
	"net/http":        RiskMedium,
	"debug/buildinfo": RiskMedium,
}

// suspiciousCalls are identifier names that, when called, suggest a
// plugin is trying to execute code dynamically or escape its sandbox
// even without importing an obviously dangerous package.
var suspiciousCalls = map[string]RiskLevel{
	"Command":    RiskCritical, // exec.Command called via a dot-import or alias
	"Open":       RiskHigh,     // plugin.Open: plugin loading a plugin
	"NewSandbox": RiskMedium,   // reimplementing sandboxing rather than using the host's
}

// ScanResult is the outcome of scanning one plugin source file.
type ScanResult struct {
	Imports   []string
	Findings  []string
	RiskLevel RiskLevel
}

// Allowed reports whether the scanned plugin may be loaded.
func (r *ScanResult) Allowed() bool { return !r.RiskLevel.Blocked() }

// ScanSource statically analyzes Go source for disallowed imports and
// suspicious calls, returning the aggregate risk level. It never
// executes the plugin; this is a pre-load gate only.
func ScanSource(filename string, src []byte) (*ScanResult, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("plugin scan: parse %s: %w", filename, err)
	}

	result := &ScanResult{}

	for _, imp := range file.Imports {
		path := importPath(imp)
		result.Imports = append(result.Imports, path)
		if risk, bad := disallowedImports[path]; bad {
			result.Findings = append(result.Findings, fmt.Sprintf("disallowed import %q (%s risk)", path, risk))
			result.RiskLevel = maxRisk(result.RiskLevel, risk)
		}
	}

	ast.Inspect(file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		name := calleeName(call)
		if risk, bad := suspiciousCalls[name]; bad {
			result.Findings = append(result.Findings, fmt.Sprintf("suspicious call %q (%s risk)", name, risk))
			result.RiskLevel = maxRisk(result.RiskLevel, risk)
		}
		return true
	})

	return result, nil
}

func importPath(imp *ast.ImportSpec) string {
	path := imp.Path.Value
	if len(path) >= 2 {
		path = path[1 : len(path)-1]
	}
	return path
}

// calleeName extracts the trailing identifier of a call expression,
// e.g. "exec.Command(...)" -> "Command", "plugin.Open(...)" -> "Open".
func calleeName(call *ast.CallExpr) string {
	switch fn := call.Fun.(type) {
	case *ast.Ident:
		return fn.Name
	case *ast.SelectorExpr:
		return fn.Sel.Name
	default:
		return ""
	}
}

func maxRisk(a, b RiskLevel) RiskLevel {
	if b > a {
		return b
	}
	return a
}
