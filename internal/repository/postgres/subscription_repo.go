package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/ZenSolar/zensolar-sub004/internal/model"
)

// SubscriptionRepo implements SubscriptionRepository using PostgreSQL.
type SubscriptionRepo struct{ db *DB }

// NewSubscriptionRepo constructs a subscription repository.
func NewSubscriptionRepo(db *DB) *SubscriptionRepo { return &SubscriptionRepo{db: db} }

// GetByRecipient returns every registration owned by the recipient.
func (r *SubscriptionRepo) GetByRecipient(ctx context.Context, recipientID uuid.UUID) ([]model.Subscription, error) {
	const q = `
SELECT endpoint, recipient_id, p256dh, auth, platform, created_at
FROM push_subscriptions WHERE recipient_id=$1`
	rows, err := r.db.Pool.Query(ctx, q, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Subscription
	for rows.Next() {
		var s model.Subscription
		if err = rows.Scan(&s.Endpoint, &s.RecipientID, &s.P256DH, &s.Auth, &s.Platform, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteByEndpoint removes a subscription; zero rows affected means it was
// already gone, which is fine.
func (r *SubscriptionRepo) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	const q = `DELETE FROM push_subscriptions WHERE endpoint=$1`
	_, err := r.db.Pool.Exec(ctx, q, endpoint)
	return err
}
