package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/synqlikk/internal/models"
)

const previewLen = 40

func (a *App) ListNotes(ctx context.Context, args []string) error {
	recs, err := a.records.List(ctx, models.KindNote, models.Filter{Search: strings.Join(args, " ")})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCONTENT\t")
	for _, r := range recs {
		n := r.Data.(*models.Note)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, n.Title, preview(n.Content), dirtyMark(r))
	}
	return tw.Flush()
}

// preview is the first line of s, cut to previewLen runes.
func preview(s string) string {
	line, _, more := strings.Cut(s, "\n")
	runes := []rune(line)
	if len(runes) > previewLen {
		return string(runes[:previewLen]) + "..."
	}
	if more {
		return line + " ..."
	}
	return line
}

func (a *App) AddNote(ctx context.Context) error {
	note := &models.Note{}
	if err := a.promptNote(note); err != nil {
		return err
	}
	r, err := a.records.Create(ctx, note)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Created note", r.ID)
	return nil
}

func (a *App) EditNote(ctx context.Context, id string) error {
	r, err := a.records.Get(ctx, models.KindNote, id)
	if err != nil {
		return err
	}
	note := *r.Data.(*models.Note)
	if err := a.promptNote(&note); err != nil {
		return err
	}
	if _, err := a.records.Update(ctx, models.KindNote, id, &note); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Updated note", id)
	return nil
}

// promptNote keeps the old content when nothing new is typed.
func (a *App) promptNote(n *models.Note) error {
	var err error
	if n.Title, err = GetWithDefault(a.reader, "Title", n.Title, a.out); err != nil {
		return err
	}
	content, err := GetMultiline(a.reader, "Content", a.out)
	if err != nil {
		return err
	}
	if content != "" {
		n.Content = content
	}
	return nil
}
