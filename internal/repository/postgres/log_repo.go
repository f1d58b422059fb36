package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"
)

// NotificationLogRepo implements NotificationLogRepository using PostgreSQL.
type NotificationLogRepo struct{ db *DB }

// NewNotificationLogRepo constructs a notification log repository.
func NewNotificationLogRepo(db *DB) *NotificationLogRepo { return &NotificationLogRepo{db: db} }

// MarkSent appends one log row per (recipient, campaign type). The conflict
// clause makes a duplicate write a no-op under at-least-once execution.
func (r *NotificationLogRepo) MarkSent(ctx context.Context, recipientID uuid.UUID, campaignType string) error {
	const q = `
INSERT INTO notification_log (recipient_id, campaign_type, sent_at)
VALUES ($1, $2, now())
ON CONFLICT (recipient_id, campaign_type) DO NOTHING`
	_, err := r.db.Pool.Exec(ctx, q, recipientID, campaignType)
	return err
}
