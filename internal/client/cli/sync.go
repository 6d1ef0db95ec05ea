package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/synqlikk/internal/client/services"
)

// Sync runs a manual cycle; "sync full" discards the checkpoint and
// pulls everything.
func (a *App) Sync(ctx context.Context, args []string) error {
	mode := services.ModeIncremental
	if len(args) > 0 {
		if args[0] != "full" {
			return fmt.Errorf("%w: sync [full]", errUsage)
		}
		mode = services.ModeForceFull
	}

	report, err := a.runSync(ctx, mode, services.TriggerManual)
	if err != nil {
		return err
	}
	printReport(a, report)
	return nil
}

func printReport(a *App, r *services.Report) {
	fmt.Fprintf(a.out, "Sync (%s): pushed %d, applied %d, skipped %d, conflicts %d, purged %d\n",
		r.Mode, r.Pushed, r.Applied, r.Skipped, r.Conflicts, r.Purged)
}
