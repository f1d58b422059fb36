// Package service drives campaign runs: recipient selection, per-subscription
// encryption and delivery, and de-duplication bookkeeping.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ZenSolar/zensolar-sub004/internal/crypto/webpush"
	"github.com/ZenSolar/zensolar-sub004/internal/model"
	"github.com/ZenSolar/zensolar-sub004/internal/repository"
)

// TokenSource issues per-endpoint sender authentication headers.
type TokenSource interface {
	Authorization(endpoint string) (string, error)
}

// Deliverer posts one encrypted message to one subscription.
type Deliverer interface {
	Send(ctx context.Context, sub model.Subscription, body []byte, authHeader string) model.DeliveryOutcome
}

// Window is the eligibility policy: recipients whose account was created in
// the Span-long interval ending Lead before "now". Business policy, so it is
// configuration rather than a constant.
type Window struct {
	Lead time.Duration
	Span time.Duration
}

// Bounds resolves the window against a point in time.
func (w Window) Bounds(now time.Time) (from, to time.Time) {
	to = now.Add(-w.Lead)
	return to.Add(-w.Span), to
}

// CampaignService selects recipients for a campaign and delivers to each of
// their subscriptions independently. It holds no state between runs; all
// de-duplication lives in the notification log.
type CampaignService struct {
	recipients  repository.RecipientRepository
	subs        repository.SubscriptionRepository
	log         repository.NotificationLogRepository
	tokens      TokenSource
	deliver     Deliverer
	window      Window
	concurrency int
	logger      *zap.Logger
	now         func() time.Time
}

// NewCampaignService constructs a campaign service.
func NewCampaignService(
	recipients repository.RecipientRepository,
	subs repository.SubscriptionRepository,
	log repository.NotificationLogRepository,
	tokens TokenSource,
	deliver Deliverer,
	window Window,
	concurrency int,
	logger *zap.Logger,
) *CampaignService {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &CampaignService{
		recipients:  recipients,
		subs:        subs,
		log:         log,
		tokens:      tokens,
		deliver:     deliver,
		window:      window,
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
	}
}

// Run executes one campaign. Recipient selection failure aborts the run;
// per-subscription failures only shape the report. Recipients fan out with
// bounded concurrency, one goroutine per recipient, so the single log write
// always follows all of that recipient's attempts.
func (s *CampaignService) Run(ctx context.Context, c model.Campaign) (model.RunReport, error) {
	if c.Type == "" {
		return model.RunReport{}, errors.New("validation: empty campaign type")
	}
	plaintext, err := c.Payload.Marshal()
	if err != nil {
		return model.RunReport{}, err
	}

	from, to := s.window.Bounds(s.now())
	ids, err := s.recipients.SelectEligible(ctx, c.Type, from, to)
	if err != nil {
		return model.RunReport{}, err
	}

	report := model.RunReport{Eligible: len(ids)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			res := s.notifyRecipient(gctx, id, c.Type, plaintext)
			mu.Lock()
			report.Delivered += res.delivered
			report.Expired += res.expired
			report.Failed += res.failed
			if res.notified {
				report.Notified++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // recipient goroutines never return errors

	s.logger.Info("campaign run complete",
		zap.String("campaign", c.Type),
		zap.Int("eligible", report.Eligible),
		zap.Int("notified", report.Notified),
		zap.Int("delivered", report.Delivered),
		zap.Int("expired", report.Expired),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

type recipientResult struct {
	delivered, expired, failed int
	notified                   bool
}

// notifyRecipient attempts delivery to every device of one recipient and
// writes exactly one log entry if at least one attempt succeeded. Expired
// subscriptions are deleted immediately so a later attempt in the same run
// cannot target them again.
func (s *CampaignService) notifyRecipient(ctx context.Context, id uuid.UUID, campaignType string, plaintext []byte) recipientResult {
	var res recipientResult

	subs, err := s.subs.GetByRecipient(ctx, id)
	if err != nil {
		s.logger.Warn("fetch subscriptions", zap.String("recipient", id.String()), zap.Error(err))
		return res
	}

	for _, sub := range subs {
		out := s.attempt(ctx, sub, plaintext)
		switch out.Class {
		case model.OutcomeSuccess:
			res.delivered++
		case model.OutcomeExpired:
			res.expired++
			if err := s.subs.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
				s.logger.Warn("delete expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
			}
		default:
			res.failed++
		}
	}

	if res.delivered > 0 {
		res.notified = true
		if err := s.log.MarkSent(ctx, id, campaignType); err != nil {
			s.logger.Error("mark sent", zap.String("recipient", id.String()), zap.Error(err))
		}
	}
	return res
}

// attempt runs the full pipeline for one subscription: encrypt, sign, post.
// Any encryption or signing failure is scoped to this attempt and reported
// as an "other" outcome.
func (s *CampaignService) attempt(ctx context.Context, sub model.Subscription, plaintext []byte) model.DeliveryOutcome {
	body, err := webpush.Encrypt(sub.P256DH, sub.Auth, plaintext)
	if err != nil {
		s.logger.Warn("encrypt message", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return model.DeliveryOutcome{
			Endpoint:    sub.Endpoint,
			RecipientID: sub.RecipientID,
			Class:       model.OutcomeOther,
			Detail:      err.Error(),
		}
	}
	auth, err := s.tokens.Authorization(sub.Endpoint)
	if err != nil {
		s.logger.Warn("build authorization", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return model.DeliveryOutcome{
			Endpoint:    sub.Endpoint,
			RecipientID: sub.RecipientID,
			Class:       model.OutcomeOther,
			Detail:      err.Error(),
		}
	}
	return s.deliver.Send(ctx, sub, body, auth)
}
