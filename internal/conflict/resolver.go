// Package conflict decides between two versions of the same record using
// last-write-wins on last_modified. Both the client and the server call it,
// so the merge policy is identical in both directions.
package conflict

import "github.com/dmitrijs2005/synqlikk/internal/models"

type Outcome int

const (
	// Accept means the incoming record replaces the existing one.
	Accept Outcome = iota
	// Reject means the existing record stays; it is reported back as the
	// authoritative version.
	Reject
)

func (o Outcome) String() string {
	if o == Reject {
		return "reject"
	}
	return "accept"
}

type Decision struct {
	Outcome  Outcome
	Existing *models.Record
	// Tie is set when both versions carry the same last_modified.
	// Ties are accepted.
	Tie bool
}

func (d Decision) Accepted() bool { return d.Outcome == Accept }

// Winner returns the record that survives the decision.
func (d Decision) Winner(incoming *models.Record) *models.Record {
	if d.Outcome == Reject {
		return d.Existing
	}
	return incoming
}

// Resolve compares incoming against existing, which may be nil.
func Resolve(incoming, existing *models.Record) Decision {
	if existing == nil {
		return Decision{Outcome: Accept}
	}

	switch incoming.LastModified.Compare(existing.LastModified) {
	case 1:
		return Decision{Outcome: Accept, Existing: existing}
	case -1:
		return Decision{Outcome: Reject, Existing: existing}
	default:
		return Decision{Outcome: Accept, Existing: existing, Tie: true}
	}
}

// DivergentTie reports an accepted tie whose payloads differ: the incoming
// write silently replaces a different edit with the same timestamp.
func (d Decision) DivergentTie(incoming *models.Record) bool {
	return d.Tie && !incoming.SameContent(d.Existing)
}
