package acquisition

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/jmylchreest/mediapull/internal/corerr"
	"github.com/jmylchreest/mediapull/internal/urlutil"
)

// LoadTargetsFromFile reads one target per line, skipping blank lines
// and lines starting with "#". path may be a local filesystem path or a
// http(s):// / file:// URL, so a targets list can be hosted alongside a
// shared configuration rather than copied onto every machine running a
// run.
func LoadTargetsFromFile(ctx context.Context, path string) ([]string, error) {
	var reader io.ReadCloser
	if urlutil.IsRemoteURL(path) || urlutil.IsFileURL(path) {
		fetcher := urlutil.NewDefaultResourceFetcher()
		fetched, err := fetcher.Fetch(ctx, path)
		if err != nil {
			return nil, corerr.Configuration("targets_file", "fetching targets file: "+err.Error())
		}
		reader = fetched
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, corerr.Configuration("targets_file", "targets file not found: "+path)
		}
		reader = f
	}
	defer reader.Close()

	var targets []string
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, corerr.Configuration("targets_file", "error reading targets file: "+path)
	}
	return targets, nil
}

// MergeTargets combines inline targets, a targets_file load, and the
// legacy single target_user value, deduplicating while preserving order.
func MergeTargets(inline []string, fileTargets []string, legacyUser string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(t string) {
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		out = append(out, t)
	}
	for _, t := range fileTargets {
		add(t)
	}
	for _, t := range inline {
		add(t)
	}
	add(legacyUser)
	return out
}
