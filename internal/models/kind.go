// Package models defines the synchronized record: a common envelope
// (id, owner, timestamps, soft-delete and dirty flags) around one of three
// kind-specific payloads.
package models

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindTask    Kind = "task"
	KindNote    Kind = "note"
	KindExpense Kind = "expense"
)

// Kinds lists every kind in the order they are synchronized.
var Kinds = []Kind{KindTask, KindNote, KindExpense}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown record kind %q", s)
	}
	return k, nil
}

func (k Kind) Valid() bool {
	switch k {
	case KindTask, KindNote, KindExpense:
		return true
	}
	return false
}

// Table is the table name holding records of this kind on both sides.
func (k Kind) Table() string {
	switch k {
	case KindTask:
		return "tasks"
	case KindNote:
		return "notes"
	case KindExpense:
		return "expenses"
	}
	panic(fmt.Sprintf("models: no table for kind %q", string(k)))
}

// Payload is the kind-specific part of a Record.
//
// Columns, Values and Targets describe the payload's table columns in one
// fixed order so repositories can build SQL without per-kind code.
type Payload interface {
	Kind() Kind
	Validate() error
	Columns() []string
	Values() []any
	Targets() []any
}

// NewPayload returns an empty payload of kind k with its defaults applied.
func NewPayload(k Kind) (Payload, error) {
	switch k {
	case KindTask:
		return NewTask(""), nil
	case KindNote:
		return &Note{}, nil
	case KindExpense:
		return &Expense{}, nil
	}
	return nil, fmt.Errorf("unknown record kind %q", string(k))
}
