// Package policy loads optional forwarding policy overrides from YAML.
package policy

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/relay/internal/forward"
)

// Loader reads a policy file.
type Loader struct {
	filePath string
}

// NewLoader creates a loader for filePath.
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the policy file. ${VAR} references are expanded
// from the environment before parsing.
func (l *Loader) Load() (*File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var file File
	if err := yaml.Unmarshal([]byte(expanded), &file); err != nil {
		return nil, fmt.Errorf("failed to parse policy yaml: %w", err)
	}

	return &file, nil
}

// Apply overlays the file on base and returns the result.
func (f *File) Apply(base forward.Policy) (forward.Policy, error) {
	out := base
	fw := f.Forward

	if fw.MaxRedirects != nil {
		if *fw.MaxRedirects < 0 {
			return base, fmt.Errorf("max_redirects must be >= 0, got %d", *fw.MaxRedirects)
		}
		out.MaxRedirects = *fw.MaxRedirects
	}

	if fw.IgnoredHeaders != nil {
		out.IgnoredHeaders = append([]string(nil), fw.IgnoredHeaders...)
	}

	if fw.DialTimeout != "" {
		d, err := parsePositive("dial_timeout", fw.DialTimeout)
		if err != nil {
			return base, err
		}
		out.DialTimeout = d
	}

	if fw.ResponseHeaderTimeout != "" {
		d, err := parsePositive("response_header_timeout", fw.ResponseHeaderTimeout)
		if err != nil {
			return base, err
		}
		out.ResponseHeaderTimeout = d
	}

	return out, nil
}

func parsePositive(field, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be > 0, got %v", field, d)
	}
	return d, nil
}
