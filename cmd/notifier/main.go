// Command notifier executes one push notification campaign run. It is meant
// to be invoked by an external scheduler; all de-duplication state lives in
// the database, so overlapping or repeated invocations are safe.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ZenSolar/zensolar-sub004/internal/config"
	"github.com/ZenSolar/zensolar-sub004/internal/crypto/vapid"
	"github.com/ZenSolar/zensolar-sub004/internal/migrate"
	"github.com/ZenSolar/zensolar-sub004/internal/model"
	"github.com/ZenSolar/zensolar-sub004/internal/push"
	"github.com/ZenSolar/zensolar-sub004/internal/repository/postgres"
	"github.com/ZenSolar/zensolar-sub004/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and executes a single campaign run.
func main() {
	// Notification content; identity and policy come from the environment.
	title := flag.String("title", "Reminder", "notification title")
	body := flag.String("body", "Connect now", "notification body")
	url := flag.String("url", "", "click-through URL")
	icon := flag.String("icon", "", "icon URL")
	tag := flag.String("tag", "", "notification tag")
	genKeys := flag.Bool("gen-vapid-keys", false, "print a fresh VAPID key pair and exit")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
	)

	if *genKeys {
		pub, priv, err := vapid.GenerateKeys()
		if err != nil {
			logger.Fatal("generate vapid keys", zap.Error(err))
		}
		logger.Info("vapid key pair", zap.String("public", pub), zap.String("private", priv))
		return
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	keys, err := vapid.DecodeKeys(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
	if err != nil {
		logger.Fatal("decode vapid keys", zap.Error(err))
	}
	signer, err := vapid.NewSigner(keys, cfg.VAPIDSubject, cfg.TokenTTL)
	if err != nil {
		logger.Fatal("build vapid signer", zap.Error(err))
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres.New", zap.Error(err))
	}
	defer db.Close()

	dispatcher := push.NewDispatcher(cfg.PushTimeout, cfg.PushTTL, cfg.PushUrgency, logger)
	svc := service.NewCampaignService(
		postgres.NewRecipientRepo(db),
		postgres.NewSubscriptionRepo(db),
		postgres.NewNotificationLogRepo(db),
		signer,
		dispatcher,
		service.Window{Lead: cfg.WindowLead, Span: cfg.WindowSpan},
		cfg.Concurrency,
		logger,
	)

	campaign := model.Campaign{
		Type: cfg.CampaignType,
		Payload: model.NotificationPayload{
			Title: *title,
			Body:  *body,
			Icon:  *icon,
			Tag:   *tag,
			URL:   *url,
		},
	}

	report, err := svc.Run(ctx, campaign)
	if err != nil {
		logger.Error("campaign run failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("done",
		zap.Int("eligible", report.Eligible),
		zap.Int("notified", report.Notified),
		zap.Int("delivered", report.Delivered),
		zap.Int("expired", report.Expired),
		zap.Int("failed", report.Failed),
	)
}
