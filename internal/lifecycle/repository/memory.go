package repository

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is an in-memory LeadStore used by tests and local development.
// It mirrors the merge and monotonicity semantics of the Postgres store.
type Memory struct {
	mu           sync.Mutex
	leads        map[string]Lead
	stageChanges []StageChange
}

func NewMemory() *Memory {
	return &Memory{leads: make(map[string]Lead)}
}

func (m *Memory) Upsert(_ context.Context, params UpsertParams) (Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()

	existing, ok := m.leads[params.LeadID]
	if !ok {
		lead := Lead{
			LeadID:       params.LeadID,
			FirstName:    params.FirstName,
			LastName:     params.LastName,
			Name:         params.Name,
			Email:        params.Email,
			Phone:        params.Phone,
			City:         params.City,
			Product:      params.Product,
			Source:       params.Source,
			Status:       "New",
			ChannelID:    params.ChannelID,
			ThreadTS:     params.ThreadTS,
			CreatedAt:    now,
			LastActivity: now,
		}
		if params.Owner != "" {
			owner := params.Owner
			lead.Owner = &owner
		}
		m.leads[params.LeadID] = lead
		return lead, nil
	}

	// Merge: descriptive fields last-writer-wins, anchor and status preserved.
	existing.FirstName = params.FirstName
	existing.LastName = params.LastName
	existing.Name = params.Name
	existing.Email = params.Email
	existing.Phone = params.Phone
	existing.City = params.City
	existing.Product = params.Product
	existing.Source = params.Source
	if params.Owner != "" {
		owner := params.Owner
		existing.Owner = &owner
	}
	if now.After(existing.LastActivity) {
		existing.LastActivity = now
	}
	m.leads[params.LeadID] = existing
	return existing, nil
}

func (m *Memory) Update(_ context.Context, leadID string, params UpdateParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lead, ok := m.leads[leadID]
	if !ok {
		return ErrNotFound
	}

	if params.Status != nil {
		lead.Status = *params.Status
	}
	if params.Owner != nil {
		lead.Owner = params.Owner
	}
	if params.OwnerName != nil {
		lead.OwnerName = params.OwnerName
	}
	if params.UpdatedBy != nil {
		lead.UpdatedBy = params.UpdatedBy
	}
	if params.EscalatedBy != nil {
		lead.EscalatedBy = params.EscalatedBy
	}
	if params.EscalatedAt != nil {
		lead.EscalatedAt = params.EscalatedAt
	}
	if params.EscalatedChannel != nil {
		lead.EscalatedChannel = params.EscalatedChannel
	}
	if params.LastActivity != nil && params.LastActivity.After(lead.LastActivity) {
		lead.LastActivity = *params.LastActivity
	}

	m.leads[leadID] = lead
	return nil
}

func (m *Memory) GetByID(_ context.Context, leadID string) (Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lead, ok := m.leads[leadID]
	if !ok {
		return Lead{}, ErrNotFound
	}
	return lead, nil
}

func (m *Memory) QueryIdle(_ context.Context, now time.Time, threshold time.Duration, excludeReminded bool) ([]Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := now.Add(-threshold)

	idle := make([]Lead, 0)
	for _, lead := range m.leads {
		if lead.Owner == nil || *lead.Owner == "" {
			continue
		}
		if lead.Status == "Won" || lead.Status == "Lost" {
			continue
		}
		if lead.LastActivity.After(cutoff) {
			continue
		}
		if excludeReminded && lead.LastReminder != nil && lead.LastReminder.After(cutoff) {
			continue
		}
		idle = append(idle, lead)
	}

	sort.Slice(idle, func(i, j int) bool {
		return idle[i].LastActivity.Before(idle[j].LastActivity)
	})

	return idle, nil
}

func (m *Memory) MarkReminded(_ context.Context, leadID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lead, ok := m.leads[leadID]
	if !ok {
		return ErrNotFound
	}
	lead.LastReminder = &at
	m.leads[leadID] = lead
	return nil
}

func (m *Memory) AppendStageChange(_ context.Context, change StageChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stageChanges = append(m.stageChanges, change)
	return nil
}

// SetLastActivity backdates a lead's activity clock. Tests use it to build
// idle leads without waiting out the threshold.
func (m *Memory) SetLastActivity(leadID string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if lead, ok := m.leads[leadID]; ok {
		lead.LastActivity = at
		m.leads[leadID] = lead
	}
}

// StageChanges returns a copy of the audit log for assertions in tests.
func (m *Memory) StageChanges() []StageChange {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]StageChange, len(m.stageChanges))
	copy(out, m.stageChanges)
	return out
}

// Compile-time check that Memory implements LeadStore.
var _ LeadStore = (*Memory)(nil)
