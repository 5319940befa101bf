package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the Postgres-backed LeadStore.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `lead_id, first_name, last_name, name, email, phone, city, product, source,
	status, owner, owner_name, updated_by, channel_id, thread_ts,
	escalated_by, escalated_at, escalated_channel, created_at, last_activity, last_reminder`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.LeadID, &lead.FirstName, &lead.LastName, &lead.Name, &lead.Email, &lead.Phone,
		&lead.City, &lead.Product, &lead.Source,
		&lead.Status, &lead.Owner, &lead.OwnerName, &lead.UpdatedBy, &lead.ChannelID, &lead.ThreadTS,
		&lead.EscalatedBy, &lead.EscalatedAt, &lead.EscalatedChannel,
		&lead.CreatedAt, &lead.LastActivity, &lead.LastReminder,
	)
	return lead, err
}

func (r *Repository) Upsert(ctx context.Context, params UpsertParams) (Lead, error) {
	// On conflict the descriptive fields are overwritten (last writer wins),
	// the thread anchor and status stay, and owner only changes when the
	// payload names one.
	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			lead_id, first_name, last_name, name, email, phone, city, product, source,
			status, owner, channel_id, thread_ts, created_at, last_activity
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'New', NULLIF($10, ''), $11, $12, now(), now())
		ON CONFLICT (lead_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			city = EXCLUDED.city,
			product = EXCLUDED.product,
			source = EXCLUDED.source,
			owner = COALESCE(EXCLUDED.owner, leads.owner),
			last_activity = GREATEST(leads.last_activity, now())
		RETURNING `+leadColumns,
		params.LeadID, params.FirstName, params.LastName, params.Name, params.Email,
		params.Phone, params.City, params.Product, params.Source,
		params.Owner, params.ChannelID, params.ThreadTS,
	)

	return scanLead(row)
}

func (r *Repository) Update(ctx context.Context, leadID string, params UpdateParams) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET
			status = COALESCE($2, status),
			owner = COALESCE($3, owner),
			owner_name = COALESCE($4, owner_name),
			updated_by = COALESCE($5, updated_by),
			escalated_by = COALESCE($6, escalated_by),
			escalated_at = COALESCE($7, escalated_at),
			escalated_channel = COALESCE($8, escalated_channel),
			last_activity = GREATEST(last_activity, COALESCE($9, last_activity))
		WHERE lead_id = $1
	`, leadID, params.Status, params.Owner, params.OwnerName, params.UpdatedBy,
		params.EscalatedBy, params.EscalatedAt, params.EscalatedChannel, params.LastActivity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, leadID string) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE lead_id = $1
	`, leadID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

func (r *Repository) QueryIdle(ctx context.Context, now time.Time, threshold time.Duration, excludeReminded bool) ([]Lead, error) {
	cutoff := now.Add(-threshold)

	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE owner IS NOT NULL AND owner <> ''
			AND status NOT IN ('Won', 'Lost')
			AND last_activity <= $1
			AND ($2 = false OR last_reminder IS NULL OR last_reminder <= $1)
		ORDER BY last_activity ASC
	`, cutoff, excludeReminded)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return leads, nil
}

func (r *Repository) MarkReminded(ctx context.Context, leadID string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET last_reminder = $2 WHERE lead_id = $1
	`, leadID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) AppendStageChange(ctx context.Context, change StageChange) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO stage_changes (lead_id, from_stage, to_stage, changed_at, changed_by)
		VALUES ($1, $2, $3, $4, $5)
	`, change.LeadID, change.FromStage, change.ToStage, change.ChangedAt, change.ChangedBy)
	return err
}

// Compile-time check that Repository implements LeadStore.
var _ LeadStore = (*Repository)(nil)
