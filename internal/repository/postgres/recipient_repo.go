package postgres

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
)

// RecipientRepo implements RecipientRepository using PostgreSQL.
type RecipientRepo struct{ db *DB }

// NewRecipientRepo constructs a recipient repository.
func NewRecipientRepo(db *DB) *RecipientRepo { return &RecipientRepo{db: db} }

// SelectEligible returns recipients created inside the window with no
// provider link and no prior log entry for the campaign type. Running the
// same selection twice can never re-yield an already-notified recipient
// because the log row written on success excludes them.
func (r *RecipientRepo) SelectEligible(
	ctx context.Context, campaignType string, from, to time.Time,
) ([]uuid.UUID, error) {
	const q = `
SELECT r.id
FROM recipients r
WHERE r.created_at >= $1 AND r.created_at < $2
  AND NOT EXISTS (SELECT 1 FROM provider_accounts p WHERE p.recipient_id = r.id)
  AND NOT EXISTS (SELECT 1 FROM notification_log n WHERE n.recipient_id = r.id AND n.campaign_type = $3)
ORDER BY r.created_at ASC`
	rows, err := r.db.Pool.Query(ctx, q, from, to, campaignType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
