package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/examprep/internal/config"
	delivery "github.com/aliskhannn/examprep/internal/delivery/http"
	"github.com/aliskhannn/examprep/internal/delivery/telegram"
	"github.com/aliskhannn/examprep/internal/infra/questionbank"
	"github.com/aliskhannn/examprep/internal/logger"
	"github.com/aliskhannn/examprep/internal/observability"
	"github.com/aliskhannn/examprep/internal/service"
	"github.com/aliskhannn/examprep/internal/srs"
)

func main() {
	flags := config.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}
	configDir, _ := flags.GetString("config-dir")

	cfg, err := config.Load(config.Options{ConfigDir: configDir, Flags: flags})
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.Init(ctx, observability.Config{
		Enabled:     cfg.Otel.Enabled,
		ServiceName: cfg.Otel.ServiceName,
		Environment: cfg.Env,
		SampleRatio: cfg.Otel.SampleRatio,
	}, lg)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	bank, err := questionbank.Load(cfg.QuestionsPath)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	lg.Info("question bank loaded", zap.String("path", cfg.QuestionsPath), zap.Int("questions", bank.Len()))

	st, err := openStores(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer st.close()

	locker, closeLocker, err := newLocker(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer closeLocker()

	dispatcher := service.NewDispatcher(cfg.SRS.SideEffectWorkers, cfg.SRS.SideEffectTimeout, lg)

	// Initialize services.
	reviewService := service.NewReviewService(st.cards, st.history, st.sessions, st.progress, locker, dispatcher, service.ReviewOptions{
		Policy:          srs.QualityPolicy{FastSeconds: cfg.SRS.FastSeconds, SlowSeconds: cfg.SRS.SlowSeconds},
		AnalyticsWindow: cfg.SRS.AnalyticsWindow,
		BatchMax:        cfg.SRS.BatchMax,
		CASRetries:      cfg.SRS.CASRetries,
	}, lg)
	cardService := service.NewCardService(st.cards, bank, st.progress, locker, service.SeedOptions{
		AccuracyThreshold: cfg.Seeding.AccuracyThreshold,
		MinAttempts:       cfg.Seeding.MinAttempts,
		MaxCards:          cfg.Seeding.MaxCards,
	}, lg)
	sessionService := service.NewSessionService(st.sessions, lg)
	scheduleService := service.NewScheduleService(st.cards, service.ScheduleOptions{
		MaxRangeDays:         cfg.Schedule.MaxRangeDays,
		HeavyDayThreshold:    cfg.Schedule.HeavyDayThreshold,
		ConsistencyThreshold: cfg.Schedule.ConsistencyThreshold,
	}, lg)

	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	router := delivery.NewRouter(delivery.RouterConfig{
		Handler:        delivery.NewHandler(cardService, reviewService, sessionService, scheduleService, lg),
		Auth:           delivery.AuthConfig{JWTSecret: cfg.Auth.JWTSecret, OwnerHeader: cfg.Auth.OwnerHeader},
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		ServiceName:    serviceName,
		Logger:         lg.Named("http"),
	})
	server := delivery.NewServer(cfg.HTTP.Addr, router, cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout, lg)

	var bot *telegram.Handler
	if cfg.Telegram.Token != "" {
		bot, err = newTelegramHandler(cfg, lg, cardService, reviewService, scheduleService, sessionService)
		if err != nil {
			return err
		}
	} else {
		lg.Info("telegram surface disabled")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx, cfg.Shutdown)
	})
	if bot != nil {
		g.Go(func() error {
			if err := bot.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	runErr := g.Wait()
	lg.Info("shutdown signal received")

	// Drain background side effects before the stores close.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown)
	defer cancel()
	if err := dispatcher.Close(shutdownCtx); err != nil {
		lg.Warn("side effects did not drain", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		lg.Warn("failed to flush traces", zap.Error(err))
	}

	return runErr
}

var newBotAPI = tgbotapi.NewBotAPI

func newTelegramHandler(
	cfg *config.Config,
	lg *zap.Logger,
	cards telegram.CardService,
	reviews telegram.ReviewService,
	schedule telegram.ScheduleService,
	sessions telegram.SessionService,
) (*telegram.Handler, error) {
	bot, err := newBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	bot.Debug = cfg.Telegram.Debug

	// Set commands.
	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "How it works"},
		{Command: "due", Description: "Next card to review (optionally /due GS1)"},
		{Command: "schedule", Description: "Reviews for the next 7 days"},
		{Command: "sessions", Description: "Recent study sessions"},
	}
	if _, err := bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		lg.Warn("failed to set bot commands", zap.Error(err))
	}
	lg.Info("telegram authorized", zap.String("account", bot.Self.UserName))

	return telegram.NewHandler(bot, lg, cards, reviews, schedule, sessions, cfg.Telegram.Timeout), nil
}
