package timex

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Layout is the canonical text form of a Timestamp on the wire and in SQLite.
const Layout = "2006-01-02T15:04:05Z"

// Timestamp is a UTC point in time truncated to whole seconds.
// The zero value is the zero time.
type Timestamp struct {
	t time.Time
}

// nowFn is replaced in tests.
var nowFn = time.Now

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return From(nowFn())
}

// From normalizes t to UTC and drops sub-second precision.
func From(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{t: t.UTC().Truncate(time.Second)}
}

// Next returns a timestamp strictly greater than prev, using the wall clock
// when it is already ahead.
func Next(prev Timestamp) Timestamp {
	now := Now()
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Second)
}

// Parse accepts the canonical layout and falls back to RFC 3339.
func Parse(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(Layout, s); err == nil {
		return From(t), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return From(t), nil
}

func (ts Timestamp) Time() time.Time { return ts.t }
func (ts Timestamp) IsZero() bool    { return ts.t.IsZero() }
func (ts Timestamp) Unix() int64     { return ts.t.Unix() }

func (ts Timestamp) Add(d time.Duration) Timestamp { return From(ts.t.Add(d)) }
func (ts Timestamp) Before(o Timestamp) bool       { return ts.t.Before(o.t) }
func (ts Timestamp) After(o Timestamp) bool        { return ts.t.After(o.t) }
func (ts Timestamp) Equal(o Timestamp) bool        { return ts.t.Equal(o.t) }

// Compare returns -1, 0 or +1.
func (ts Timestamp) Compare(o Timestamp) int { return ts.t.Compare(o.t) }

func (ts Timestamp) String() string {
	if ts.IsZero() {
		return ""
	}
	return ts.t.Format(Layout)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.String())
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*ts = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*ts = Timestamp{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

// Value stores the canonical text form. PostgreSQL casts it to timestamptz,
// SQLite keeps it as TEXT, which sorts chronologically.
func (ts Timestamp) Value() (driver.Value, error) {
	if ts.IsZero() {
		return nil, nil
	}
	return ts.String(), nil
}

func (ts *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*ts = Timestamp{}
		return nil
	case time.Time:
		*ts = From(v)
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*ts = parsed
		return nil
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*ts = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into timex.Timestamp", src)
	}
}

// Ptr returns a pointer to a copy of ts, handy for nullable fields.
func (ts Timestamp) Ptr() *Timestamp { return &ts }
