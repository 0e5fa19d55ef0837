package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/omniforge/agentcore/pkg/governance"
	"github.com/omniforge/agentcore/pkg/ratelimit"
)

const reloadDebounce = 200 * time.Millisecond

// WatchPolicyFile reloads path on every write and re-applies it to gov
// and limiter, grounded on the teacher's FileProvider.Watch
// (pkg/config/provider/file.go): watch the containing directory (some
// filesystems don't support watching a single file directly), debounce
// rapid writes, and log reload failures without tearing down the watch.
// The watch stops when ctx is cancelled.
func WatchPolicyFile(ctx context.Context, path string, gov *governance.Governance, limiter *ratelimit.Limiter) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	file := filepath.Base(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()

		var debounce *time.Timer
		reload := func() {
			pf, err := LoadPolicyFile(path)
			if err != nil {
				slog.Error("failed to reload policy file", "path", path, "error", err)
				return
			}
			pf.Apply(gov, limiter)
			slog.Info("reloaded tenant policy file", "path", path, "tenants", len(pf.Tenants))
		}

		for {
			select {
			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				return

			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != file {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(reloadDebounce, reload)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("policy file watcher error", "error", err)
			}
		}
	}()

	return nil
}
