package preflight

import (
	"context"
	"fmt"
	"os"

	"studyhall/internal/config"
	"studyhall/internal/flashcache"
)

// CheckCache reports whether the offline flashcard cache can be opened and how
// many documents it holds. A missing cache file is not a failure.
func CheckCache(ctx context.Context, cfg *config.Config) Result {
	const name = "Flashcard cache"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.Cache.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	if _, err := os.Stat(cfg.Cache.Path); os.IsNotExist(err) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (empty)", cfg.Cache.Path)}
	}

	cache, err := flashcache.Open(ctx, cfg.Cache.Path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.Cache.Path, err)}
	}
	defer cache.Close()

	entries, err := cache.List(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.Cache.Path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d documents)", cfg.Cache.Path, len(entries))}
}
