package orchestrator

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
)

// DebugRecorder writes crawl failure dumps that API error payloads
// reference by file name. Dumps are best effort; a write failure never
// affects the crawl response.
type DebugRecorder struct {
	dir    string
	logger arbor.ILogger
}

// NewDebugRecorder creates the failure dump writer
func NewDebugRecorder(dir string, logger arbor.ILogger) *DebugRecorder {
	return &DebugRecorder{dir: dir, logger: logger}
}

// failureDump is the persisted record of one exhausted crawl
type failureDump struct {
	URL              string            `json:"url"`
	Error            string            `json:"error"`
	AttemptedEngines []string          `json:"attempted_engines"`
	EngineErrors     map[string]string `json:"engine_errors"`
	Timestamp        string            `json:"timestamp"`
}

// DumpFailure persists the failure record and returns the dump file name,
// or "" when the dump could not be written
func (d *DebugRecorder) DumpFailure(rawURL string, attempted []string, engineErrors map[string]string, finalErr string) string {
	if d.dir == "" {
		return ""
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to create debug directory")
		return ""
	}

	name := fmt.Sprintf("crawl_failure_%s_%s.json",
		time.Now().Format("20060102_150405"),
		safeHostLabel(rawURL))

	dump := failureDump{
		URL:              rawURL,
		Error:            finalErr,
		AttemptedEngines: attempted,
		EngineErrors:     engineErrors,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	}

	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		d.logger.Warn().Err(err).Msg("Failed to encode failure dump")
		return ""
	}

	path := filepath.Join(d.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		d.logger.Warn().Err(err).Str("path", path).Msg("Failed to write failure dump")
		return ""
	}

	d.logger.Debug().Str("file", name).Str("url", rawURL).Msg("Crawl failure dump written")
	return name
}

// safeHostLabel reduces a URL to a filesystem-safe host fragment
func safeHostLabel(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	host := ""
	if err == nil {
		host = parsed.Host
	}
	if host == "" {
		host = "unknown"
	}
	host = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, host)
	if len(host) > 40 {
		host = host[:40]
	}
	return host
}
