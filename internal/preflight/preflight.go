package preflight

import (
	"context"

	"vid2manga/internal/config"
	"vid2manga/internal/language"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name    string
	Passed  bool
	Skipped bool
	Detail  string
}

// Failed reports whether any non-skipped result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Skipped {
			return true
		}
	}
	return false
}

// RunAll executes every preflight check for the given config.
// The notification check is skipped when no topic is configured.
func RunAll(ctx context.Context, cfg *config.Config, backend Pinger) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckLanguage(cfg.Conversion.Language),
		CheckBackend(ctx, backend),
		CheckNotifications(ctx, cfg),
	}
	return results
}

// CheckLanguage reports the default spoken language.
func CheckLanguage(code string) Result {
	const name = "Default language"
	if !language.IsSupported(code) {
		return Result{Name: name, Detail: code + " (error: unsupported)"}
	}
	return Result{Name: name, Passed: true, Detail: language.DisplayName(code) + " (" + code + ")"}
}
