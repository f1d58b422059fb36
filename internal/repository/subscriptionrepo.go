package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/ZenSolar/zensolar-sub004/internal/model"
)

// SubscriptionRepository provides read/delete access to push registrations.
// Subscriptions are created by the browser-side flow; this system never
// inserts or updates them.
type SubscriptionRepository interface {
	// GetByRecipient returns all registrations for one recipient
	// (zero, one or many devices).
	GetByRecipient(ctx context.Context, recipientID uuid.UUID) ([]model.Subscription, error)

	// DeleteByEndpoint removes an invalidated subscription. Deleting an
	// endpoint that is already gone is a no-op, not an error.
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}
