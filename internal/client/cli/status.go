package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/notex/internal/client/cache"
)

// Status probes the server and prints connectivity and queue state.
func (a *App) Status(ctx context.Context) error {
	online := a.poller.Poll(ctx)

	mode := ModeOffline
	if online {
		mode = ModeOnline
	}
	fmt.Fprintf(a.out, "Server: %s (%s)\n", a.config.ServerURL, mode)
	fmt.Fprintf(a.out, "Pending changes: %d\n", a.gateway.PendingChanges(ctx))
	fmt.Fprintln(a.out, "Cache:", a.cacheLocation())
	return nil
}

// cacheLocation is the file the cache really uses, which differs from the
// configured path once Open fell back to memory.
func (a *App) cacheLocation() string {
	path := a.config.CachePath
	if a.store != nil {
		path = a.store.Path()
	}
	if path == cache.MemoryPath {
		return "in memory, changes are lost on exit"
	}
	return path
}

// Sync replays queued offline changes now instead of waiting for the next
// reconnect.
func (a *App) Sync(ctx context.Context) error {
	if !a.poller.Poll(ctx) {
		fmt.Fprintf(a.out, "Offline, %d change(s) waiting\n", a.gateway.PendingChanges(ctx))
		return nil
	}

	report := a.syncer.Drain(ctx)
	fmt.Fprintf(a.out, "Synced %d change(s), %d dropped\n", report.Done, report.Failed)
	for _, o := range report.Outcomes {
		if o.Err != nil {
			fmt.Fprintf(a.out, "  %s %s: %s\n", o.Action, o.Target, describe(o.Err))
		}
	}
	return nil
}
