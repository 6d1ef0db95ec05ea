package cli

import (
	"context"
	"time"

	"github.com/dmitrijs2005/synqlikk/internal/client/services"
)

// checkOnline pings the authority and records the result. It reports
// whether the client just came back online.
func (a *App) checkOnline(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := a.client.Ping(ctx)
	cancel()

	if err != nil {
		a.setMode(ModeOffline)
		return false
	}
	return a.setMode(ModeOnline)
}

// watch pings every OnlineCheckInterval. With AutoSyncInterval set it
// also syncs on that schedule and right after reconnecting.
func (a *App) watch(ctx context.Context) {
	if a.config.OnlineCheckInterval <= 0 {
		return
	}
	ping := time.NewTicker(a.config.OnlineCheckInterval)
	defer ping.Stop()

	var schedule <-chan time.Time
	if a.config.AutoSyncInterval > 0 {
		t := time.NewTicker(a.config.AutoSyncInterval)
		defer t.Stop()
		schedule = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-ping.C:
			if a.checkOnline(ctx) && schedule != nil {
				a.scheduledSync(ctx)
			}

		case <-schedule:
			if a.currentMode() == ModeOnline {
				a.scheduledSync(ctx)
			}
		}
	}
}

func (a *App) scheduledSync(ctx context.Context) {
	if !a.isLoggedIn() {
		return
	}
	report, err := a.runSync(ctx, services.ModeIncremental, services.TriggerSchedule)
	if err != nil {
		a.logger.Warn(ctx, "scheduled sync failed", "error", err)
		return
	}
	a.logger.Debug(ctx, "scheduled sync done", "pushed", report.Pushed, "applied", report.Applied)
}
