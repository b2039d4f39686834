package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"sort"

	"github.com/jmylchreest/mediapull/internal/handlers"
)

// Symbol is the exported constructor every plugin .so must provide:
// `var NewHandler = func() handlers.ContentHandler { ... }`.
const Symbol = "NewHandler"

// loaded tracks one successfully opened plugin for ordered teardown.
type loaded struct {
	name    string
	handler handlers.ContentHandler
}

// Manager discovers ContentHandler plugins under a set of plugin
// directories, static-scans their source before opening the compiled
// .so, and registers the allowed ones into a Registry identically to
// built-ins. Grounded on redditdl's plugin discovery/loading
// flow (redditdl/core/plugins), adapted from Python entry-point
// discovery to Go's plugin.Open mechanism.
type Manager struct {
	Registry    *handlers.Registry
	Directories []string

	loadedInOrder []loaded
}

// NewManager creates a Manager scanning dirs for plugins and
// registering accepted handlers into registry.
func NewManager(registry *handlers.Registry, dirs ...string) *Manager {
	return &Manager{Registry: registry, Directories: dirs}
}

// LoadAll discovers every *.so in Directories, paired with a *.go
// source file of the same base name for scanning, and loads the ones
// the scanner allows. It returns the names of plugins it refused to
// load, each paired with the reason.
func (m *Manager) LoadAll() (rejected map[string]string, err error) {
	rejected = make(map[string]string)

	for _, dir := range m.Directories {
		entries, readErr := os.ReadDir(dir)
		if readErr != nil {
			if os.IsNotExist(readErr) {
				continue
			}
			return rejected, fmt.Errorf("plugin manager: reading %s: %w", dir, readErr)
		}

		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if filepath.Ext(e.Name()) == ".so" {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)

		for _, name := range names {
			soPath := filepath.Join(dir, name)
			srcPath := soPath[:len(soPath)-len(".so")] + ".go"

			src, readErr := os.ReadFile(srcPath)
			if readErr != nil {
				rejected[name] = fmt.Sprintf("no source file to scan at %s: %v", srcPath, readErr)
				continue
			}

			scan, scanErr := ScanSource(srcPath, src)
			if scanErr != nil {
				rejected[name] = scanErr.Error()
				continue
			}
			if !scan.Allowed() {
				rejected[name] = fmt.Sprintf("risk level %s: %v", scan.RiskLevel, scan.Findings)
				continue
			}

			h, loadErr := m.open(soPath)
			if loadErr != nil {
				rejected[name] = loadErr.Error()
				continue
			}

			m.Registry.Register(h)
			m.loadedInOrder = append(m.loadedInOrder, loaded{name: name, handler: h})
		}
	}

	return rejected, nil
}

func (m *Manager) open(soPath string) (handlers.ContentHandler, error) {
	p, err := plugin.Open(soPath)
	if err != nil {
		return nil, fmt.Errorf("opening plugin %s: %w", soPath, err)
	}
	sym, err := p.Lookup(Symbol)
	if err != nil {
		return nil, fmt.Errorf("plugin %s missing %s symbol: %w", soPath, Symbol, err)
	}
	factory, ok := sym.(func() handlers.ContentHandler)
	if !ok {
		return nil, fmt.Errorf("plugin %s: %s has the wrong signature", soPath, Symbol)
	}
	return factory(), nil
}

// Shutdown tears down every loaded plugin in reverse registration
// order, calling its Cleanup hook where implemented.
func (m *Manager) Shutdown() []error {
	var errs []error
	for i := len(m.loadedInOrder) - 1; i >= 0; i-- {
		entry := m.loadedInOrder[i]
		if cleaner, ok := entry.handler.(handlers.Cleanupable); ok {
			if err := cleaner.Cleanup(); err != nil {
				errs = append(errs, fmt.Errorf("cleanup %s: %w", entry.name, err))
			}
		}
	}
	m.loadedInOrder = nil
	return errs
}
