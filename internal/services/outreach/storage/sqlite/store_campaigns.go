package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/outreach/internal/services/outreach/campaign"
	"github.com/louisbranch/outreach/internal/services/outreach/storage"
)

const campaignColumns = `id, name, subject, content_template, segment_definition_id,
	scheduled_at, status, sent_count, failed_count, created_at, updated_at,
	launched_at, completed_at`

// PutCampaign inserts or replaces one campaign. The recipient snapshot is
// written while the campaign is draft or scheduled and left untouched once
// sending has begun.
func (s *Store) PutCampaign(ctx context.Context, c campaign.Campaign) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	campaignID := strings.TrimSpace(c.ID)
	if campaignID == "" {
		return fmt.Errorf("campaign id is required")
	}
	scheduledAt := sql.NullInt64{}
	if !c.ScheduledAt.IsZero() {
		scheduledAt = sql.NullInt64{Int64: toMillis(c.ScheduledAt), Valid: true}
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO campaigns (`+campaignColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   name = excluded.name,
			   subject = excluded.subject,
			   content_template = excluded.content_template,
			   segment_definition_id = excluded.segment_definition_id,
			   scheduled_at = excluded.scheduled_at,
			   status = excluded.status,
			   sent_count = excluded.sent_count,
			   failed_count = excluded.failed_count,
			   updated_at = excluded.updated_at,
			   launched_at = excluded.launched_at,
			   completed_at = excluded.completed_at`,
			campaignID,
			c.Name,
			c.Subject,
			c.ContentTemplate,
			c.SegmentDefinitionID,
			scheduledAt,
			string(c.Status),
			c.SentCount,
			c.FailedCount,
			toMillis(c.CreatedAt),
			toMillis(c.UpdatedAt),
			toNullMillis(c.LaunchedAt),
			toNullMillis(c.CompletedAt),
		); err != nil {
			return fmt.Errorf("put campaign: %w", err)
		}
		if c.Status != campaign.StatusDraft && c.Status != campaign.StatusScheduled {
			return nil
		}
		return putRecipients(ctx, tx, campaignID, c.Recipients)
	})
}

func putRecipients(ctx context.Context, exec sqlExecer, campaignID string, recipients []string) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM campaign_recipients WHERE campaign_id = ?`, campaignID); err != nil {
		return fmt.Errorf("clear recipients: %w", err)
	}
	for i, customerID := range recipients {
		if _, err := exec.ExecContext(ctx,
			`INSERT INTO campaign_recipients (campaign_id, position, customer_id) VALUES (?, ?, ?)`,
			campaignID,
			i,
			customerID,
		); err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("recipient %s listed twice: %w", customerID, storage.ErrConflict)
			}
			return fmt.Errorf("put recipient %s: %w", customerID, err)
		}
	}
	return nil
}

// GetCampaign returns one campaign with its recipient snapshot.
func (s *Store) GetCampaign(ctx context.Context, campaignID string) (campaign.Campaign, error) {
	if err := s.ready(ctx); err != nil {
		return campaign.Campaign{}, err
	}
	campaignID = strings.TrimSpace(campaignID)
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`, campaignID)
	c, err := scanCampaign(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return campaign.Campaign{}, storage.ErrNotFound
	}
	if err != nil {
		return campaign.Campaign{}, fmt.Errorf("get campaign: %w", err)
	}
	recipients, err := s.recipients(ctx, campaignID)
	if err != nil {
		return campaign.Campaign{}, err
	}
	c.Recipients = recipients
	return c, nil
}

// ListCampaigns returns every campaign ordered by creation time.
func (s *Store) ListCampaigns(ctx context.Context) ([]campaign.Campaign, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT `+campaignColumns+` FROM campaigns ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []campaign.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list campaigns: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	for i := range campaigns {
		recipients, err := s.recipients(ctx, campaigns[i].ID)
		if err != nil {
			return nil, err
		}
		campaigns[i].Recipients = recipients
	}
	return campaigns, nil
}

func (s *Store) recipients(ctx context.Context, campaignID string) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT customer_id FROM campaign_recipients WHERE campaign_id = ? ORDER BY position ASC`,
		campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	defer rows.Close()
	recipients := []string{}
	for rows.Next() {
		var customerID string
		if err := rows.Scan(&customerID); err != nil {
			return nil, fmt.Errorf("list recipients: %w", err)
		}
		recipients = append(recipients, customerID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	return recipients, nil
}

func scanCampaign(scan scanner) (campaign.Campaign, error) {
	var c campaign.Campaign
	var status string
	var scheduledAt, launchedAt, completedAt sql.NullInt64
	var createdAt, updatedAt int64
	if err := scan(
		&c.ID,
		&c.Name,
		&c.Subject,
		&c.ContentTemplate,
		&c.SegmentDefinitionID,
		&scheduledAt,
		&status,
		&c.SentCount,
		&c.FailedCount,
		&createdAt,
		&updatedAt,
		&launchedAt,
		&completedAt,
	); err != nil {
		return campaign.Campaign{}, err
	}
	c.Status = campaign.Status(status)
	if scheduledAt.Valid {
		c.ScheduledAt = fromMillis(scheduledAt.Int64)
	}
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	c.LaunchedAt = fromNullMillis(launchedAt)
	c.CompletedAt = fromNullMillis(completedAt)
	return c, nil
}

// AppendOutcome appends one delivery outcome.
func (s *Store) AppendOutcome(ctx context.Context, outcome campaign.Outcome) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO delivery_outcomes (campaign_id, customer_id, event, occurred_at, detail)
		 VALUES (?, ?, ?, ?, ?)`,
		outcome.CampaignID,
		outcome.CustomerID,
		string(outcome.Event),
		toMillis(outcome.At),
		outcome.Detail,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("append outcome: %w", err)
	}
	return nil
}

// ListOutcomes returns a campaign's outcomes ordered by timestamp, then by
// append order.
func (s *Store) ListOutcomes(ctx context.Context, campaignID string) ([]campaign.Outcome, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT campaign_id, customer_id, event, occurred_at, detail
		   FROM delivery_outcomes
		  WHERE campaign_id = ?
		  ORDER BY occurred_at ASC, seq ASC`,
		strings.TrimSpace(campaignID),
	)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []campaign.Outcome{}
	for rows.Next() {
		var outcome campaign.Outcome
		var event string
		var occurredAt int64
		if err := rows.Scan(&outcome.CampaignID, &outcome.CustomerID, &event, &occurredAt, &outcome.Detail); err != nil {
			return nil, fmt.Errorf("list outcomes: %w", err)
		}
		outcome.Event = campaign.Event(event)
		outcome.At = fromMillis(occurredAt)
		outcomes = append(outcomes, outcome)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	return outcomes, nil
}

var _ campaign.Store = (*Store)(nil)
