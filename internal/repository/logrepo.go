package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"
)

// NotificationLogRepository records successful sends. The log is the sole
// de-duplication state and is append-only.
type NotificationLogRepository interface {
	// MarkSent writes one entry per (recipient, campaign type). Writing a
	// pair that already exists is a no-op, keeping the operation safe
	// under at-least-once execution.
	MarkSent(ctx context.Context, recipientID uuid.UUID, campaignType string) error
}
