package conflict

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/synqlikk/internal/models"
	"github.com/dmitrijs2005/synqlikk/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = timex.From(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

func note(id string, at timex.Timestamp, content string) *models.Record {
	return &models.Record{
		ID:           id,
		OwnerID:      "owner",
		Kind:         models.KindNote,
		LastModified: at,
		Data:         &models.Note{Title: "n", Content: content},
	}
}

func TestResolve_NoExistingAccepts(t *testing.T) {
	d := Resolve(note("a", base, "x"), nil)
	assert.Equal(t, Accept, d.Outcome)
	assert.Nil(t, d.Existing)
	assert.False(t, d.Tie)
}

func TestResolve_NewerIncomingAccepts(t *testing.T) {
	existing := note("a", base, "old")
	incoming := note("a", base.Add(time.Second), "new")

	d := Resolve(incoming, existing)
	assert.True(t, d.Accepted())
	assert.Same(t, incoming, d.Winner(incoming))
}

func TestResolve_OlderIncomingRejectsWithExisting(t *testing.T) {
	existing := note("a", base.Add(time.Minute), "server")
	incoming := note("a", base, "client")

	d := Resolve(incoming, existing)
	assert.Equal(t, Reject, d.Outcome)
	assert.Same(t, existing, d.Existing)
	assert.Same(t, existing, d.Winner(incoming))
	assert.Equal(t, "reject", d.Outcome.String())
}

func TestResolve_EqualTimestampAccepts(t *testing.T) {
	r := note("a", base, "same")

	d := Resolve(r, r.Clone())
	assert.Equal(t, Accept, d.Outcome)
	assert.True(t, d.Tie)
	assert.False(t, d.DivergentTie(r))

	other := note("a", base, "different")
	d = Resolve(other, r)
	assert.True(t, d.Accepted())
	assert.True(t, d.DivergentTie(other))
}

func TestResolve_DeterministicRegardlessOfOrder(t *testing.T) {
	offsets := []time.Duration{-48 * time.Hour, -time.Second, time.Second, 90 * time.Minute}

	for _, off := range offsets {
		a := note("a", base, "a")
		b := note("a", base.Add(off), "b")

		want := a
		if b.LastModified.After(a.LastModified) {
			want = b
		}

		ab := Resolve(a, b)
		ba := Resolve(b, a)
		require.Same(t, want, ab.Winner(a), "offset %v", off)
		require.Same(t, want, ba.Winner(b), "offset %v", off)
		require.NotEqual(t, ab.Outcome, ba.Outcome)
	}
}
