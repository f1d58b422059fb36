// Package repository declares the data-access interfaces implemented by the
// postgres subpackage and faked in service tests.
package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
)

// RecipientRepository selects campaign candidates from the application's
// user store.
type RecipientRepository interface {
	// SelectEligible returns recipients created in [from, to) that have
	// no linked provider account and no notification log entry for
	// campaignType.
	SelectEligible(ctx context.Context, campaignType string, from, to time.Time) ([]uuid.UUID, error)
}
