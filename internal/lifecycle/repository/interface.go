package repository

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lead does not exist in the store.
var ErrNotFound = errors.New("lead not found")

// Lead is the persistent lead record. The thread anchor (ChannelID, ThreadTS)
// is set at ingestion and never changes; it correlates all later events to
// this lead.
type Lead struct {
	LeadID           string
	FirstName        string
	LastName         string
	Name             string
	Email            string
	Phone            string
	City             string
	Product          string
	Source           string
	Status           string
	Owner            *string
	OwnerName        *string
	UpdatedBy        *string
	ChannelID        string
	ThreadTS         string
	EscalatedBy      *string
	EscalatedAt      *time.Time
	EscalatedChannel *string
	CreatedAt        time.Time
	LastActivity     time.Time
	LastReminder     *time.Time
}

// UpsertParams carries an ingestion payload. On conflict the descriptive
// fields win last-writer-wins per field, while status, owner and the thread
// anchor of the existing record are preserved (owner only when the payload
// does not name one).
type UpsertParams struct {
	LeadID    string
	FirstName string
	LastName  string
	Name      string
	Email     string
	Phone     string
	City      string
	Product   string
	Source    string
	Owner     string
	ChannelID string
	ThreadTS  string
}

// UpdateParams is a partial lead update. Nil fields are left untouched.
// LastActivity is applied monotonically: the stored value never decreases.
type UpdateParams struct {
	Status           *string
	Owner            *string
	OwnerName        *string
	UpdatedBy        *string
	EscalatedBy      *string
	EscalatedAt      *time.Time
	EscalatedChannel *string
	LastActivity     *time.Time
}

// StageChange is an append-only audit record of a committed stage transition.
type StageChange struct {
	LeadID    string
	FromStage string
	ToStage   string
	ChangedAt time.Time
	ChangedBy string
}

// LeadStore is the persistence gateway used by the orchestrator and the
// idle sweep.
type LeadStore interface {
	// Upsert inserts or merges a lead keyed by LeadID and returns the
	// resulting record.
	Upsert(ctx context.Context, params UpsertParams) (Lead, error)

	// Update applies a partial update. Returns ErrNotFound when the lead
	// does not exist.
	Update(ctx context.Context, leadID string, params UpdateParams) error

	// GetByID returns the lead or ErrNotFound.
	GetByID(ctx context.Context, leadID string) (Lead, error)

	// QueryIdle returns leads with an owner, a non-terminal status and no
	// activity within the threshold. When excludeReminded is true, leads
	// already reminded within the threshold are skipped.
	QueryIdle(ctx context.Context, now time.Time, threshold time.Duration, excludeReminded bool) ([]Lead, error)

	// MarkReminded stamps last_reminder for a lead.
	MarkReminded(ctx context.Context, leadID string, at time.Time) error

	// AppendStageChange records a stage transition in the audit log.
	AppendStageChange(ctx context.Context, change StageChange) error
}
