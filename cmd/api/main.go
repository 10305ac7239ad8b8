package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/leadbot/backend/internal/config"
	"github.com/zhouzirui/leadbot/backend/internal/handler"
	"github.com/zhouzirui/leadbot/backend/internal/logging"
	"github.com/zhouzirui/leadbot/backend/internal/model/content"
	"github.com/zhouzirui/leadbot/backend/internal/service/intake"
	"github.com/zhouzirui/leadbot/backend/internal/service/notify"
	"github.com/zhouzirui/leadbot/backend/internal/service/session"
	"github.com/zhouzirui/leadbot/backend/internal/service/submission"
	"github.com/zhouzirui/leadbot/backend/internal/transport/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("leadbot stopped with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	// 静态信息回复：内置文案或 YAML 文件
	entries := content.Seed()
	if cfg.Content.File != "" {
		loaded, err := content.LoadFile(cfg.Content.File)
		if err != nil {
			return err
		}
		entries = loaded
	}
	contentStore := content.NewMemoryStore(entries)
	sessions := session.NewMemoryStore()

	recorder, leads, closeRecorder, err := openRecorder(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeRecorder()

	var client *telegram.Client
	if cfg.Telegram.Enabled() {
		client, err = telegram.NewClient(cfg.Telegram.Token, cfg.Telegram.BaseURL, nil)
		if err != nil {
			return err
		}
	}

	var notifier submission.Notifier
	if client != nil && cfg.Telegram.OperatorChatID != 0 {
		notifier, err = notify.NewTelegramNotifier(client, cfg.Telegram.OperatorChatID)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("operator chat not configured, alerts go to the log only")
		notifier = notify.NewLogNotifier(logger.Named("notify"))
	}

	sink := submission.NewSink(recorder, notifier, logger.Named("submission"))
	dispatcher := intake.NewDispatcher(sessions, contentStore, sink, cfg.Intake.Options(), logger.Named("intake"))

	deps := handler.Deps{
		Dispatcher: dispatcher,
		Sessions:   sessions,
		Leads:      leads,
		AdminToken: cfg.Server.AdminToken,
		Logger:     logger,
	}
	if deps.AdminToken == "" {
		logger.Info("ADMIN_TOKEN not set, session and submission reads are disabled")
	}

	g, gctx := errgroup.WithContext(ctx)

	var pool *telegram.Pool
	if client != nil {
		pool = telegram.NewPool(cfg.Telegram.Workers, cfg.Telegram.QueueDepth, logger.Named("pool"))
		defer pool.Close()
		bot := telegram.NewBot(client, dispatcher, pool, telegram.DefaultKeyboards(), logger.Named("telegram"))

		switch cfg.Telegram.Mode {
		case config.ModePolling:
			poller := telegram.NewPoller(client, bot, cfg.Telegram.PollTimeout, logger.Named("telegram"))
			g.Go(func() error { return poller.Run(gctx) })
		case config.ModeWebhook:
			if err := client.SetWebhook(ctx, cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret); err != nil {
				return fmt.Errorf("register webhook: %w", err)
			}
			logger.Info("telegram webhook registered", zap.String("url", cfg.Telegram.WebhookURL))
			deps.Webhook = bot
			deps.WebhookSecret = cfg.Telegram.WebhookSecret
		}
	} else {
		logger.Info("telegram transport disabled, serving HTTP only")
	}

	g.Go(func() error {
		return sessions.RunJanitor(gctx, cfg.Intake.JanitorInterval, cfg.Intake.SessionTTL, logger.Named("session"))
	})
	if cfg.Content.File != "" && cfg.Content.Watch {
		g.Go(func() error {
			return content.Watch(gctx, cfg.Content.File, contentStore, logger.Named("content"))
		})
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	g.Go(func() error {
		logger.Info("leadbot backend listening", zap.String("addr", srv.Addr), zap.String("telegram_mode", cfg.Telegram.Mode))
		return runServer(gctx, srv)
	})

	return g.Wait()
}

// openRecorder 根据存储后端打开记录器；sqlite 后端同时支持读取
func openRecorder(cfg config.StorageConfig) (submission.Recorder, submission.Lister, func(), error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		store, err := submission.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, store, func() { _ = store.Close() }, nil
	default:
		store, err := submission.NewFileRecorder(cfg.LeadsFile)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, nil, func() {}, nil
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
