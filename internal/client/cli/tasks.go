package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/synqlikk/internal/models"
)

// parseTaskFilter accepts status=, priority=, due= and free words, which
// are joined into the search text.
func parseTaskFilter(args []string) (models.Filter, error) {
	var f models.Filter
	var words []string

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			words = append(words, arg)
			continue
		}
		switch key {
		case "status":
			f.Status = models.TaskStatus(value)
			if !f.Status.Valid() {
				return f, fmt.Errorf("unknown status %q", value)
			}
		case "priority":
			p, err := parsePriority(value)
			if err != nil {
				return f, err
			}
			f.Priority = p
		case "due":
			f.DueDate = value
		case "search", "q":
			words = append(words, value)
		default:
			return f, fmt.Errorf("unknown filter %q", key)
		}
	}
	f.Search = strings.Join(words, " ")
	return f, nil
}

func parsePriority(s string) (int, error) {
	switch strings.ToLower(s) {
	case "high", "h":
		return models.PriorityHigh, nil
	case "medium", "m":
		return models.PriorityMedium, nil
	case "low", "l":
		return models.PriorityLow, nil
	}
	p, err := strconv.Atoi(s)
	if err != nil || p < models.PriorityHigh || p > models.PriorityLow {
		return 0, fmt.Errorf("priority must be 1-3 or high/medium/low, got %q", s)
	}
	return p, nil
}

func (a *App) ListTasks(ctx context.Context, args []string) error {
	filter, err := parseTaskFilter(args)
	if err != nil {
		return err
	}
	recs, err := a.records.List(ctx, models.KindTask, filter)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tPRIORITY\tDUE\t")
	for _, r := range recs {
		t := r.Data.(*models.Task)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", r.ID, t.Title, t.Status, t.Priority, t.DueDate, dirtyMark(r))
	}
	return tw.Flush()
}

func (a *App) AddTask(ctx context.Context) error {
	task := models.NewTask("")
	if err := a.promptTask(task); err != nil {
		return err
	}
	r, err := a.records.Create(ctx, task)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Created task", r.ID)
	return nil
}

func (a *App) EditTask(ctx context.Context, id string) error {
	r, err := a.records.Get(ctx, models.KindTask, id)
	if err != nil {
		return err
	}
	task := *r.Data.(*models.Task)
	if err := a.promptTask(&task); err != nil {
		return err
	}
	if _, err := a.records.Update(ctx, models.KindTask, id, &task); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Updated task", id)
	return nil
}

// promptTask fills t field by field; Enter keeps the shown value and "-"
// clears the due date.
func (a *App) promptTask(t *models.Task) error {
	var err error
	if t.Title, err = GetWithDefault(a.reader, "Title", t.Title, a.out); err != nil {
		return err
	}
	if t.Description, err = GetWithDefault(a.reader, "Description", t.Description, a.out); err != nil {
		return err
	}
	due, err := GetWithDefault(a.reader, "Due date (YYYY-MM-DD, - for none)", t.DueDate, a.out)
	if err != nil {
		return err
	}
	t.DueDate = clearable(due)

	priority, err := GetWithDefault(a.reader, "Priority (1 high, 2 medium, 3 low)", strconv.Itoa(t.Priority), a.out)
	if err != nil {
		return err
	}
	if t.Priority, err = parsePriority(priority); err != nil {
		return err
	}

	status, err := GetWithDefault(a.reader, "Status (pending, in_progress, completed)", string(t.Status), a.out)
	if err != nil {
		return err
	}
	t.Status = models.TaskStatus(status)
	return nil
}

func clearable(v string) string {
	if v == "-" {
		return ""
	}
	return v
}

func dirtyMark(r *models.Record) string {
	if r.Synced {
		return ""
	}
	return "*"
}
