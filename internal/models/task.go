package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

const (
	PriorityHigh   = 1
	PriorityMedium = 2
	PriorityLow    = 3
)

// DateLayout is the format of calendar dates inside payloads.
const DateLayout = "2006-01-02"

type Task struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     string     `json:"due_date"`
	Priority    int        `json:"priority"`
	Status      TaskStatus `json:"status"`
}

func NewTask(title string) *Task {
	return &Task{Title: title, Priority: PriorityMedium, Status: TaskPending}
}

func (t *Task) Kind() Kind { return KindTask }

func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("task title is required")
	}
	if t.Priority < PriorityHigh || t.Priority > PriorityLow {
		return fmt.Errorf("task priority must be 1, 2 or 3, got %d", t.Priority)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("unknown task status %q", t.Status)
	}
	return validateDate("due_date", t.DueDate, true)
}

func (t *Task) Columns() []string {
	return []string{"title", "description", "due_date", "priority", "status"}
}

func (t *Task) Values() []any {
	return []any{t.Title, t.Description, t.DueDate, t.Priority, string(t.Status)}
}

func (t *Task) Targets() []any {
	return []any{&t.Title, &t.Description, &t.DueDate, &t.Priority, &t.Status}
}

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted:
		return true
	}
	return false
}

func validateDate(field, value string, optional bool) error {
	if value == "" {
		if optional {
			return nil
		}
		return fmt.Errorf("%s is required", field)
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		return fmt.Errorf("%s must be YYYY-MM-DD, got %q", field, value)
	}
	return nil
}
