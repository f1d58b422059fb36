// Package model defines domain entities used by services and repositories.
package model

import (
	"encoding/json"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/ZenSolar/zensolar-sub004/internal/errs"
)

// Subscription is one browser/device push registration, keyed by endpoint.
// Created by the browser-side flow; this system only reads and deletes it.
type Subscription struct {
	Endpoint    string    // push service URL, unique
	RecipientID uuid.UUID // FK -> recipients.id
	P256DH      []byte    // client public key, 65-byte uncompressed P-256 point
	Auth        []byte    // client auth secret, 16 bytes
	Platform    string    // e.g. "web", "pwa"
	CreatedAt   time.Time
}

// NotificationPayload is the message shown by the browser. Immutable once
// built for a campaign; serialized to compact JSON before encryption.
type NotificationPayload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Icon  string            `json:"icon,omitempty"`
	Badge string            `json:"badge,omitempty"`
	Tag   string            `json:"tag,omitempty"`
	URL   string            `json:"url,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

// Marshal serializes the payload to its wire form.
func (p NotificationPayload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// OutcomeClass classifies a single delivery attempt.
type OutcomeClass string

const (
	OutcomeSuccess OutcomeClass = "success"
	OutcomeExpired OutcomeClass = "expired"
	OutcomeOther   OutcomeClass = "other"
)

// DeliveryOutcome is the result of one attempt against one subscription.
// Only aggregated counts and the expired classification outlive the run.
type DeliveryOutcome struct {
	Endpoint    string
	RecipientID uuid.UUID
	Class       OutcomeClass
	StatusCode  int    // 0 when the request never completed
	Detail      string // response text or error string, diagnostics only
}

// Err maps the classification onto the error taxonomy; nil for success.
func (o DeliveryOutcome) Err() error {
	switch o.Class {
	case OutcomeExpired:
		return errs.ErrSubscriptionExpired
	case OutcomeOther:
		return errs.ErrTransientDelivery
	}
	return nil
}

// Campaign identifies one notification campaign run.
type Campaign struct {
	Type    string // de-duplication key together with recipient id
	Payload NotificationPayload
}

// RunReport aggregates a campaign run.
type RunReport struct {
	Eligible  int // recipients selected
	Notified  int // recipients with at least one successful delivery
	Delivered int // per-subscription successes
	Expired   int // per-subscription 404/410
	Failed    int // per-subscription other failures
}

// NotificationLogEntry records a successful send; (RecipientID, CampaignType)
// existence is the sole de-duplication signal. Append-only.
type NotificationLogEntry struct {
	RecipientID  uuid.UUID
	CampaignType string
	SentAt       time.Time
}
