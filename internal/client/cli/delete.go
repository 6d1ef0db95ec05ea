package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/synqlikk/internal/models"
)

// Delete soft-deletes a record; the tombstone syncs like any other edit.
func (a *App) Delete(ctx context.Context, kind models.Kind, id string) error {
	if err := a.records.Delete(ctx, kind, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s %s\n", kind, id)
	return nil
}
