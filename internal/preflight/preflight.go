package preflight

import (
	"context"
	"path/filepath"

	"studyhall/internal/config"
)

// minFreeBytes is the free space below which the data directory check fails.
const minFreeBytes = 64 << 20

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// RunAll executes the client-side checks followed by the server-side ones.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckAPI(ctx, cfg))
	results = append(results, CheckToken(ctx, cfg))
	results = append(results, CheckCache(ctx, cfg))
	if cfg.Cache.Enabled {
		cacheDir := filepath.Dir(cfg.Cache.Path)
		results = append(results, CheckDirectoryAccess("Cache directory", cacheDir))
		results = append(results, CheckFreeSpace("Cache volume", cacheDir, minFreeBytes))
	}
	results = append(results, RunServer(cfg)...)

	if cfg.LLMEnabled() {
		results = append(results, CheckLLM(ctx, "LLM", cfg.LLM))
	} else {
		results = append(results, Result{Name: "LLM", Passed: true, Detail: "Disabled (AI generation returns 503)"})
	}
	return results
}

// RunServer executes the local checks the development backend needs before it
// can serve. It makes no network calls.
func RunServer(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckJWTSecret(cfg))
	results = append(results, CheckDirectoryAccess("Data directory", cfg.Server.DataDir))
	results = append(results, CheckFreeSpace("Data volume", cfg.Server.DataDir, minFreeBytes))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Logging.Dir))
	return results
}
