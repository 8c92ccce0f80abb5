package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Spok95/school-admin-api/internal/config"
	"github.com/Spok95/school-admin-api/internal/db"
	"github.com/Spok95/school-admin-api/internal/httpapi"
	"github.com/Spok95/school-admin-api/internal/jobs"
	"github.com/Spok95/school-admin-api/internal/logging"
	"github.com/Spok95/school-admin-api/internal/notify"
	"github.com/Spok95/school-admin-api/internal/observability"
)

func main() {
	// .env опционален, в проде переменные приходят из окружения
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logs, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer logs.Closer()
	log := logs.Sugar

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, "school-admin-api")
	if err != nil {
		log.Warnw("sentry не инициализирован", "err", err)
	}
	defer flush()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalw("подключение к базе", "err", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		log.Fatalw("миграции", "err", err)
	}
	if err := db.EnsureAdmin(ctx, database, os.Getenv("ADMIN_USERNAME"), os.Getenv("ADMIN_PASSWORD")); err != nil {
		log.Fatalw("создание администратора", "err", err)
	}

	sender := buildSender(ctx, cfg, log)

	deps := jobs.Deps{DB: database, Log: log, Loc: cfg.Location}
	runner := jobs.New(ctx, cfg.Location)
	runner.DailyAt(0, 15, "attendance_generate_shift", func(ctx context.Context) error {
		return jobs.GenerateShiftAttendance(ctx, deps)
	})
	runner.DailyAt(0, 15, "attendance_generate_subject", func(ctx context.Context) error {
		return jobs.GenerateSubjectAttendance(ctx, deps)
	})
	runner.DailyAt(0, 20, "attendance_generate_event", func(ctx context.Context) error {
		return jobs.GenerateEventAttendance(ctx, deps)
	})
	runner.DailyAt(0, 28, "scan_payment_deadlines", func(ctx context.Context) error {
		return jobs.ScanPaymentDeadlines(ctx, deps)
	})
	runner.DailyAt(0, 28, "scan_task_deadlines", func(ctx context.Context) error {
		return jobs.ScanTaskDeadlines(ctx, deps)
	})
	runner.Every(time.Minute, "outbox_dispatch", func(ctx context.Context) error {
		return jobs.DispatchOutbox(ctx, deps, sender, cfg.OutboxBatch, cfg.OutboxMaxAttempts)
	})

	api := httpapi.New(cfg, database, log)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infow("HTTP-сервер запущен", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("HTTP-сервер упал", "err", err)
		}
	}()

	<-ctx.Done()
	log.Infow("останавливаемся")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("graceful shutdown", "err", err)
	}
}

func buildSender(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) notify.Sender {
	switch cfg.NotifyChannel {
	case "fcm":
		s, err := notify.NewFCMSender(ctx, cfg.FCMCredentialsFile)
		if err != nil {
			log.Warnw("FCM недоступен, уведомления выключены", "err", err)
			return notify.Discard{}
		}
		log.Infow("канал уведомлений: fcm")
		return s
	case "telegram":
		s, err := notify.NewTelegramSender(cfg.TelegramBotToken)
		if err != nil {
			log.Warnw("telegram недоступен, уведомления выключены", "err", err)
			return notify.Discard{}
		}
		log.Infow("канал уведомлений: telegram")
		return s
	default:
		log.Infow("канал уведомлений выключен")
		return notify.Discard{}
	}
}
