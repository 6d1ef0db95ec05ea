package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/synqlikk/internal/models"
)

func (a *App) ListExpenses(ctx context.Context, args []string) error {
	recs, err := a.records.List(ctx, models.KindExpense, models.Filter{Category: strings.Join(args, " ")})
	if err != nil {
		return err
	}

	var total float64
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tAMOUNT\tCATEGORY\tDESCRIPTION\t")
	for _, r := range recs {
		e := r.Data.(*models.Expense)
		total += e.Amount
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\t%s\n", r.ID, e.Date, e.Amount, e.Category, e.Description, dirtyMark(r))
	}
	fmt.Fprintf(tw, "\t\t%.2f\ttotal\t\t\n", total)
	return tw.Flush()
}

func (a *App) AddExpense(ctx context.Context) error {
	e := &models.Expense{}
	if err := a.promptExpense(e); err != nil {
		return err
	}
	r, err := a.records.Create(ctx, e)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Created expense", r.ID)
	return nil
}

func (a *App) EditExpense(ctx context.Context, id string) error {
	r, err := a.records.Get(ctx, models.KindExpense, id)
	if err != nil {
		return err
	}
	e := *r.Data.(*models.Expense)
	if err := a.promptExpense(&e); err != nil {
		return err
	}
	if _, err := a.records.Update(ctx, models.KindExpense, id, &e); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Updated expense", id)
	return nil
}

// promptExpense leaves an empty date for the service to default to today.
func (a *App) promptExpense(e *models.Expense) error {
	current := ""
	if e.Amount != 0 {
		current = strconv.FormatFloat(e.Amount, 'f', -1, 64)
	}
	amount, err := GetWithDefault(a.reader, "Amount", current, a.out)
	if err != nil {
		return err
	}
	if e.Amount, err = strconv.ParseFloat(amount, 64); err != nil {
		return fmt.Errorf("amount must be a number, got %q", amount)
	}

	if e.Category, err = GetWithDefault(a.reader, "Category", e.Category, a.out); err != nil {
		return err
	}
	if e.Description, err = GetWithDefault(a.reader, "Description", e.Description, a.out); err != nil {
		return err
	}
	date, err := GetWithDefault(a.reader, "Date (YYYY-MM-DD, empty for today)", e.Date, a.out)
	if err != nil {
		return err
	}
	e.Date = date
	return nil
}
