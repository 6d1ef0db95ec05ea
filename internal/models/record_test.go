package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dmitrijs2005/synqlikk/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(t *testing.T, s string) timex.Timestamp {
	t.Helper()
	v, err := timex.Parse(s)
	require.NoError(t, err)
	return v
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Task ")
	require.NoError(t, err)
	assert.Equal(t, KindTask, k)

	_, err = ParseKind("invoice")
	require.Error(t, err)

	assert.Equal(t, "tasks", KindTask.Table())
	assert.Equal(t, "notes", KindNote.Table())
	assert.Equal(t, "expenses", KindExpense.Table())
	assert.Panics(t, func() { _ = Kind("x").Table() })
}

func TestPayloadColumnsMatchValuesAndTargets(t *testing.T) {
	for _, k := range Kinds {
		p, err := NewPayload(k)
		require.NoError(t, err)
		assert.Equal(t, k, p.Kind())
		assert.Len(t, p.Values(), len(p.Columns()), k)
		assert.Len(t, p.Targets(), len(p.Columns()), k)
	}
	_, err := NewPayload("x")
	require.Error(t, err)
}

func TestTaskValidate(t *testing.T) {
	task := NewTask("write report")
	require.NoError(t, task.Validate())
	assert.Equal(t, PriorityMedium, task.Priority)
	assert.Equal(t, TaskPending, task.Status)

	bad := []*Task{
		{Title: "", Priority: 2, Status: TaskPending},
		{Title: "x", Priority: 4, Status: TaskPending},
		{Title: "x", Priority: 1, Status: "done"},
		{Title: "x", Priority: 1, Status: TaskCompleted, DueDate: "31/12/2024"},
	}
	for _, b := range bad {
		assert.Error(t, b.Validate(), "%+v", b)
	}

	task.DueDate = "2024-12-31"
	assert.NoError(t, task.Validate())
}

func TestExpenseAndNoteValidate(t *testing.T) {
	assert.NoError(t, (&Expense{Amount: 12.5, Category: "food", Date: "2024-01-01"}).Validate())
	assert.Error(t, (&Expense{Amount: 0, Category: "food", Date: "2024-01-01"}).Validate())
	assert.Error(t, (&Expense{Amount: 1, Category: " ", Date: "2024-01-01"}).Validate())
	assert.Error(t, (&Expense{Amount: 1, Category: "food"}).Validate())

	assert.NoError(t, (&Note{Title: "t"}).Validate())
	assert.Error(t, (&Note{Content: "no title"}).Validate())
}

func TestRecord_ReplaceAndMarkDeleted(t *testing.T) {
	r := NewRecord("owner-1", NewTask("a"))
	r.Synced = true
	r.LastModified = r.LastModified.Add(time.Hour)
	before := r.LastModified

	r.Replace(NewTask("b"))
	assert.False(t, r.Synced)
	assert.True(t, r.LastModified.After(before))
	assert.Equal(t, "b", r.Data.(*Task).Title)

	r.Synced = true
	r.MarkDeleted()
	assert.True(t, r.IsDeleted)
	require.NotNil(t, r.DeletedAt)
	assert.Equal(t, r.LastModified, *r.DeletedAt)
	assert.False(t, r.Synced)
	assert.NoError(t, r.Validate())
}

func TestRecord_Validate(t *testing.T) {
	good := NewRecord("o", &Note{Title: "n"})
	require.NoError(t, good.Validate())

	cases := map[string]func(r *Record){
		"bad id":        func(r *Record) { r.ID = "42" },
		"bad kind":      func(r *Record) { r.Kind = "x" },
		"no timestamp":  func(r *Record) { r.LastModified = timex.Timestamp{} },
		"no deleted_at": func(r *Record) { r.IsDeleted = true },
		"no data":       func(r *Record) { r.Data = nil },
		"kind mismatch": func(r *Record) { r.Data = NewTask("t") },
		"bad payload":   func(r *Record) { r.Data = &Note{} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			r := good.Clone()
			mutate(r)
			assert.Error(t, r.Validate())
		})
	}
}

func TestRecord_JSON(t *testing.T) {
	deleted := ts(t, "2024-03-01T10:00:05Z")
	r := &Record{
		ID:           "6f1c1c77-8a2f-4f0c-9b8e-3a0f4f1f9c11",
		OwnerID:      "u1",
		Kind:         KindExpense,
		LastModified: ts(t, "2024-03-01T10:00:05Z"),
		IsDeleted:    true,
		DeletedAt:    &deleted,
		Data:         &Expense{Amount: 9.99, Category: "books", Date: "2024-03-01"},
	}

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id":"6f1c1c77-8a2f-4f0c-9b8e-3a0f4f1f9c11","owner_id":"u1","kind":"expense",
		"last_modified":"2024-03-01T10:00:05Z","is_deleted":true,"deleted_at":"2024-03-01T10:00:05Z",
		"synced":false,
		"data":{"amount":9.99,"category":"books","description":"","date":"2024-03-01"}
	}`, string(b))

	var back Record
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, r, &back)
}

func TestRecord_UnmarshalErrors(t *testing.T) {
	var r Record
	assert.Error(t, json.Unmarshal([]byte(`{"id":"x","data":{}}`), &r), "missing kind")
	assert.Error(t, json.Unmarshal([]byte(`{"id":"x","kind":"invoice"}`), &r))
	assert.Error(t, json.Unmarshal([]byte(`{"id":"x","kind":"task","data":{"priority":"high"}}`), &r))

	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","kind":"note","data":null}`), &r))
	assert.Nil(t, r.Data)
}

func TestRecord_CloneIsDeep(t *testing.T) {
	r := NewRecord("o", NewTask("a"))
	r.MarkDeleted()

	c := r.Clone()
	c.Data.(*Task).Title = "changed"
	*c.DeletedAt = c.DeletedAt.Add(time.Hour)

	assert.Equal(t, "a", r.Data.(*Task).Title)
	assert.NotEqual(t, *r.DeletedAt, *c.DeletedAt)
	assert.Nil(t, (*Record)(nil).Clone())
}

func TestRecord_SameContent(t *testing.T) {
	a := NewRecord("o", &Note{Title: "t", Content: "x"})
	b := a.Clone()
	b.Synced = true
	b.OwnerID = "other"
	assert.True(t, a.SameContent(b))

	b.Data.(*Note).Content = "y"
	assert.False(t, a.SameContent(b))

	assert.True(t, (*Record)(nil).SameContent(nil))
	assert.False(t, a.SameContent(nil))
}

func TestChangeSet(t *testing.T) {
	cs := ChangeSet{}
	assert.Equal(t, 0, cs.Len())

	t1 := NewRecord("o", NewTask("a"))
	n1 := NewRecord("o", &Note{Title: "n"})
	cs.Add(t1)
	cs.Add(n1)

	assert.Equal(t, 2, cs.Len())
	v := cs.Versions()
	assert.Equal(t, []Version{t1.Version()}, v[KindTask])
	assert.Equal(t, []Version{n1.Version()}, v[KindNote])
	assert.Empty(t, v[KindExpense])
}
