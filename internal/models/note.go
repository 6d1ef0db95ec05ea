package models

import (
	"errors"
	"strings"
)

type Note struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (n *Note) Kind() Kind { return KindNote }

func (n *Note) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return errors.New("note title is required")
	}
	return nil
}

func (n *Note) Columns() []string { return []string{"title", "content"} }
func (n *Note) Values() []any     { return []any{n.Title, n.Content} }
func (n *Note) Targets() []any    { return []any{&n.Title, &n.Content} }
