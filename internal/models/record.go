package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/dmitrijs2005/synqlikk/internal/timex"
	"github.com/google/uuid"
)

// Record is one synchronized item of any kind.
type Record struct {
	ID           string
	OwnerID      string
	Kind         Kind
	LastModified timex.Timestamp
	IsDeleted    bool
	DeletedAt    *timex.Timestamp
	Synced       bool
	Data         Payload
}

// Version identifies one exact state of a record.
type Version struct {
	ID           string
	LastModified timex.Timestamp
}

// EnvelopeColumns are the columns every record table shares, in scan order.
var EnvelopeColumns = []string{"id", "owner_id", "last_modified", "is_deleted", "deleted_at"}

// NewRecord builds a fresh, dirty record owned by ownerID.
func NewRecord(ownerID string, data Payload) *Record {
	return &Record{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Kind:         data.Kind(),
		LastModified: timex.Now(),
		Data:         data,
	}
}

// Replace swaps the payload, stamps a newer last_modified and clears synced.
func (r *Record) Replace(data Payload) {
	r.Data = data
	r.touch()
}

// MarkDeleted soft-deletes the record.
func (r *Record) MarkDeleted() {
	r.touch()
	r.IsDeleted = true
	r.DeletedAt = r.LastModified.Ptr()
}

func (r *Record) touch() {
	r.LastModified = timex.Next(r.LastModified)
	r.Synced = false
}

func (r *Record) Version() Version {
	return Version{ID: r.ID, LastModified: r.LastModified}
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.DeletedAt != nil {
		c.DeletedAt = r.DeletedAt.Ptr()
	}
	switch d := r.Data.(type) {
	case *Task:
		cp := *d
		c.Data = &cp
	case *Note:
		cp := *d
		c.Data = &cp
	case *Expense:
		cp := *d
		c.Data = &cp
	}
	return &c
}

// SameContent reports whether r and o hold identical user-visible state.
// The synced flag and owner are ignored.
func (r *Record) SameContent(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.ID != o.ID || r.Kind != o.Kind || r.IsDeleted != o.IsDeleted {
		return false
	}
	return reflect.DeepEqual(r.Data, o.Data)
}

// Validate checks the envelope and the payload.
func (r *Record) Validate() error {
	if _, err := uuid.Parse(r.ID); err != nil {
		return fmt.Errorf("record id %q is not a uuid", r.ID)
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("record %s: unknown kind %q", r.ID, r.Kind)
	}
	if r.LastModified.IsZero() {
		return fmt.Errorf("record %s: last_modified is required", r.ID)
	}
	if r.IsDeleted && r.DeletedAt == nil {
		return fmt.Errorf("record %s: deleted_at is required for deleted records", r.ID)
	}
	if r.Data == nil {
		return fmt.Errorf("record %s: data is required", r.ID)
	}
	if r.Data.Kind() != r.Kind {
		return fmt.Errorf("record %s: %s payload in %s record", r.ID, r.Data.Kind(), r.Kind)
	}
	if err := r.Data.Validate(); err != nil {
		return fmt.Errorf("record %s: %w", r.ID, err)
	}
	return nil
}

type recordJSON struct {
	ID           string           `json:"id"`
	OwnerID      string           `json:"owner_id"`
	Kind         Kind             `json:"kind"`
	LastModified timex.Timestamp  `json:"last_modified"`
	IsDeleted    bool             `json:"is_deleted"`
	DeletedAt    *timex.Timestamp `json:"deleted_at"`
	Synced       bool             `json:"synced"`
	Data         json.RawMessage  `json:"data"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		Kind:         r.Kind,
		LastModified: r.LastModified,
		IsDeleted:    r.IsDeleted,
		DeletedAt:    r.DeletedAt,
		Synced:       r.Synced,
		Data:         json.RawMessage("null"),
	}
	if r.Data != nil {
		b, err := json.Marshal(r.Data)
		if err != nil {
			return nil, err
		}
		out.Data = b
	}
	return json.Marshal(out)
}

func (r *Record) UnmarshalJSON(b []byte) error {
	var in recordJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	if in.Kind == "" {
		return errors.New("record kind is missing")
	}

	data, err := NewPayload(in.Kind)
	if err != nil {
		return err
	}
	if len(in.Data) > 0 && string(in.Data) != "null" {
		if err := json.Unmarshal(in.Data, data); err != nil {
			return fmt.Errorf("record %s: %w", in.ID, err)
		}
	} else {
		data = nil
	}

	*r = Record{
		ID:           in.ID,
		OwnerID:      in.OwnerID,
		Kind:         in.Kind,
		LastModified: in.LastModified,
		IsDeleted:    in.IsDeleted,
		DeletedAt:    in.DeletedAt,
		Synced:       in.Synced,
		Data:         data,
	}
	return nil
}

// ChangeSet groups records by kind.
type ChangeSet map[Kind][]*Record

func (c ChangeSet) Add(r *Record) {
	c[r.Kind] = append(c[r.Kind], r)
}

func (c ChangeSet) Len() int {
	n := 0
	for _, rs := range c {
		n += len(rs)
	}
	return n
}

// Versions returns the exact versions held per kind.
func (c ChangeSet) Versions() map[Kind][]Version {
	out := make(map[Kind][]Version, len(c))
	for k, rs := range c {
		for _, r := range rs {
			out[k] = append(out[k], r.Version())
		}
	}
	return out
}
