package models

import (
	"time"

	rm "github.com/dmitrijs2005/synqlikk/internal/models"
	"github.com/dmitrijs2005/synqlikk/internal/timex"
)

// Conflict records a push the authority rejected because it already held
// a newer version.
type Conflict struct {
	OwnerID              string
	Kind                 rm.Kind
	RecordID             string
	IncomingLastModified timex.Timestamp
	ExistingLastModified timex.Timestamp
	DetectedAt           time.Time
}
