package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/newsdesk/newsdesk/internal/app"
	"github.com/newsdesk/newsdesk/internal/articles"
	"github.com/newsdesk/newsdesk/internal/identity"
	jobmetrics "github.com/newsdesk/newsdesk/internal/jobs"
	"github.com/newsdesk/newsdesk/internal/notify"
	"github.com/newsdesk/newsdesk/internal/platform/db"
	"github.com/newsdesk/newsdesk/internal/publishers"
	"github.com/newsdesk/newsdesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	mailer := notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	xClient := notify.NewXClient(cfg.XAPIBaseURL, cfg.XAPIToken)

	publisherRepo := publishers.NewRepository(pool)
	articleRepo := articles.NewRepository(pool)
	identityRepo := identity.NewRepository(pool)

	notificationJob := jobs.NewNotificationJob(publisherRepo, mailer, xClient, cfg.AppBaseURL, logger)
	digestJob := jobs.NewWeeklyDigestJob(articleRepo, identityRepo, mailer, cfg.AppBaseURL, logger)

	metrics := jobmetrics.NewMetrics(nil)
	instrument := func(name string, handler asynq.HandlerFunc) asynq.HandlerFunc {
		return func(ctx context.Context, t *asynq.Task) error {
			return metrics.Track(name).End(handler(ctx, t))
		}
	}

	go func() {
		logger.Info("serving worker metrics", slog.String("addr", cfg.MetricsAddr))
		if err := http.ListenAndServe(cfg.MetricsAddr, promhttp.Handler()); err != nil {
			logger.Warn("metrics listener", slog.Any("error", err))
		}
	}()

	digestTask, err := jobs.NewWeeklyDigestTask(7)
	if err != nil {
		logger.Error("build digest task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskArticleApproved, Handler: instrument(jobs.TaskArticleApproved, notificationJob.Handle)},
			{Type: jobs.TaskWeeklyDigest, Handler: instrument(jobs.TaskWeeklyDigest, digestJob.Handle)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 8 * * 1", Task: digestTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
