package proto

import (
	"github.com/dmitrijs2005/synqlikk/internal/models"
	"github.com/dmitrijs2005/synqlikk/internal/timex"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SyncRequest carries the client's dirty records and its checkpoint.
// A nil LastSyncTime asks for the complete record set.
type SyncRequest struct {
	Tasks        []*models.Record `json:"tasks"`
	Notes        []*models.Record `json:"notes"`
	Expenses     []*models.Record `json:"expenses"`
	LastSyncTime *timex.Timestamp `json:"last_sync_time"`
}

// SyncResponse carries the authority's changes since the checkpoint,
// the authoritative versions of rejected pushes and the new checkpoint.
type SyncResponse struct {
	Tasks      []*models.Record `json:"tasks"`
	Notes      []*models.Record `json:"notes"`
	Expenses   []*models.Record `json:"expenses"`
	Conflicts  []*models.Record `json:"conflicts"`
	ServerTime timex.Timestamp  `json:"server_time"`
}

// NewSyncRequest lays a change set out in per-kind arrays.
func NewSyncRequest(cs models.ChangeSet, since *timex.Timestamp) *SyncRequest {
	return &SyncRequest{
		Tasks:        nonNil(cs[models.KindTask]),
		Notes:        nonNil(cs[models.KindNote]),
		Expenses:     nonNil(cs[models.KindExpense]),
		LastSyncTime: since,
	}
}

// ChangeSet regroups the per-kind arrays, forcing each record's kind to
// the array it arrived in.
func (r *SyncRequest) ChangeSet() models.ChangeSet {
	return groupByArray(r.Tasks, r.Notes, r.Expenses)
}

// Changes regroups the per-kind arrays of the response.
func (r *SyncResponse) Changes() models.ChangeSet {
	return groupByArray(r.Tasks, r.Notes, r.Expenses)
}

// SetChanges fills the per-kind arrays from cs.
func (r *SyncResponse) SetChanges(cs models.ChangeSet) {
	r.Tasks = nonNil(cs[models.KindTask])
	r.Notes = nonNil(cs[models.KindNote])
	r.Expenses = nonNil(cs[models.KindExpense])
}

func groupByArray(tasks, notes, expenses []*models.Record) models.ChangeSet {
	cs := models.ChangeSet{}
	for kind, rs := range map[models.Kind][]*models.Record{
		models.KindTask:    tasks,
		models.KindNote:    notes,
		models.KindExpense: expenses,
	} {
		for _, r := range rs {
			if r == nil {
				continue
			}
			r.Kind = kind
			cs.Add(r)
		}
	}
	return cs
}

func nonNil(rs []*models.Record) []*models.Record {
	if rs == nil {
		return []*models.Record{}
	}
	return rs
}
