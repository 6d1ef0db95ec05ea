package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

type Expense struct {
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

func (e *Expense) Kind() Kind { return KindExpense }

func (e *Expense) Validate() error {
	if math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) || e.Amount <= 0 {
		return fmt.Errorf("expense amount must be positive, got %v", e.Amount)
	}
	if strings.TrimSpace(e.Category) == "" {
		return errors.New("expense category is required")
	}
	return validateDate("date", e.Date, false)
}

func (e *Expense) Columns() []string { return []string{"amount", "category", "description", "date"} }
func (e *Expense) Values() []any     { return []any{e.Amount, e.Category, e.Description, e.Date} }
func (e *Expense) Targets() []any    { return []any{&e.Amount, &e.Category, &e.Description, &e.Date} }
