// Package push performs the HTTP delivery of encrypted messages to push
// services and classifies the outcome of each attempt.
package push

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ZenSolar/zensolar-sub004/internal/model"
)

// maxDetail bounds how much response text is kept for diagnostics.
const maxDetail = 512

// Dispatcher posts encrypted blobs to subscription endpoints. Each Send is
// fully independent; a failure never affects other subscriptions.
type Dispatcher struct {
	client  *http.Client
	ttl     int // seconds the push service may queue the message
	urgency string
	logger  *zap.Logger
}

// NewDispatcher constructs a Dispatcher with a bounded request timeout.
func NewDispatcher(timeout time.Duration, ttl int, urgency string, logger *zap.Logger) *Dispatcher {
	if urgency == "" {
		urgency = "normal"
	}
	return &Dispatcher{
		client:  &http.Client{Timeout: timeout},
		ttl:     ttl,
		urgency: urgency,
		logger:  logger,
	}
}

// Send delivers one encrypted message to one subscription.
// 200/201 -> success, 404/410 -> expired (endpoint invalidated by the push
// service), everything else including network failures -> other.
func (d *Dispatcher) Send(ctx context.Context, sub model.Subscription, body []byte, authHeader string) model.DeliveryOutcome {
	out := model.DeliveryOutcome{Endpoint: sub.Endpoint, RecipientID: sub.RecipientID}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.Endpoint, bytes.NewReader(body))
	if err != nil {
		out.Class = model.OutcomeOther
		out.Detail = err.Error()
		return out
	}
	req.Header.Set("Content-Encoding", "aes128gcm")
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("TTL", strconv.Itoa(d.ttl))
	req.Header.Set("Urgency", d.urgency)
	req.Header.Set("Authorization", authHeader)

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Warn("push delivery failed", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		out.Class = model.OutcomeOther
		out.Detail = err.Error()
		return out
	}
	defer func() { _ = resp.Body.Close() }()

	out.StatusCode = resp.StatusCode
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		out.Class = model.OutcomeSuccess
	case http.StatusNotFound, http.StatusGone:
		out.Class = model.OutcomeExpired
	default:
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxDetail))
		out.Class = model.OutcomeOther
		out.Detail = string(text)
		d.logger.Warn("push service rejected message",
			zap.String("endpoint", sub.Endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("body", out.Detail),
		)
	}
	return out
}
