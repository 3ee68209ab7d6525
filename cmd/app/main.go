// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"conference-checkin/internal/config"
	"conference-checkin/internal/domain/ports/adapter"
	"conference-checkin/internal/domain/ports/repository"
	"conference-checkin/internal/infra/adapters/capture"
	"conference-checkin/internal/infra/adapters/decoder"
	"conference-checkin/internal/infra/adapters/qrimage"
	tele "conference-checkin/internal/infra/adapters/telegram"
	"conference-checkin/internal/infra/api"
	apiv1 "conference-checkin/internal/infra/api/apiv1"
	"conference-checkin/internal/infra/broker"
	"conference-checkin/internal/infra/db/memory"
	pg "conference-checkin/internal/infra/db/postgres"
	"conference-checkin/internal/infra/i18n"
	"conference-checkin/internal/infra/logging"
	"conference-checkin/internal/infra/metrics"
	red "conference-checkin/internal/infra/redis"
	"conference-checkin/internal/infra/sched"
	"conference-checkin/internal/infra/worker"
	"conference-checkin/internal/usecase"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

// lateSender lets the staff notifier exist before the bot that sends for it.
// It is bound before any server starts.
type lateSender struct{ tele.MessageSender }

type poller interface {
	StartPolling(ctx context.Context) error
	StopPolling()
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "console logs, verbose output")
	flag.Parse()

	bootLog := logging.New(config.LogConfig{Level: "info", Format: "console"}, true)
	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	tr := i18n.MustDefault(cfg.I18n.Lang)

	// ---- Store: Postgres when configured, in-memory otherwise ----
	var (
		tickets    repository.TicketRepository
		attendance repository.AttendanceRepository
		tm         repository.TransactionManager
		checks     []api.ReadyFunc
		pool       *pgxpool.Pool
	)
	if cfg.Database.URL != "" {
		pool, err = pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres")
		}
		defer pool.Close()
		if err := pg.Migrate(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("postgres migrate")
		}
		tickets = pg.NewTicketRepo(pool)
		attendance = pg.NewAttendanceRepo(pool)
		tm = pg.NewTxManager(pool)
		checks = append(checks, pool.Ping)
		logger.Info().Msg("store: postgres")
	} else {
		store := memory.NewStore()
		tickets, attendance, tm = store.Tickets(), store.Attendance(), store.TxManager()
		logger.Warn().Msg("store: in-memory, data is lost on restart")
	}

	// ---- Redis: cross-instance ticket locks and rate limiting ----
	var (
		locker  repository.Locker = memory.NewKeyedLocker()
		limiter *red.RateLimiter
	)
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		locker = red.NewLocker(redisClient)
		limiter = red.NewRateLimiter(redisClient)
		checks = append(checks, redisClient.Ping)
		logger.Info().Msg("locks: redis")
	}

	// ---- Background workers ----
	workers := worker.NewPool(cfg.Bot.Workers, logger)
	workers.Start(ctx)

	sender := &lateSender{}
	notifier := tele.NewStaffNotifier(sender, cfg.Bot.StaffChatID, workers, logger)

	redeemOpts := []usecase.RedemptionOption{
		usecase.WithLockTTL(cfg.Redis.LockTTL),
		usecase.WithStaffNotifier(notifier),
	}

	// ---- RabbitMQ: check-in events for downstream consumers ----
	if cfg.Events.AMQPURL != "" {
		publisher, err := broker.NewPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange, workers, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("amqp")
		}
		defer publisher.Close()
		redeemOpts = append(redeemOpts, usecase.WithEventPublisher(publisher))
		logger.Info().Str("exchange", cfg.Events.Exchange).Msg("events: amqp")
	}

	// ---- Use cases ----
	qrDecoder := decoder.NewQRDecoder()
	redeemUC := usecase.NewRedemptionUseCase(tickets, attendance, locker, tm, tr, logger, redeemOpts...)
	ticketUC := usecase.NewTicketUseCase(tickets, attendance, tm, qrimage.NewEncoder(), logger)
	scanUC := usecase.NewScanUseCase(
		func() adapter.RemoteCamera { return capture.NewFrameBuffer(cfg.Scan.CaptureTimeout) },
		qrDecoder,
		redeemUC,
		tr,
		usecase.ScanOptions{
			FrameInterval: cfg.Scan.FrameInterval,
			MaxSessions:   cfg.Scan.MaxSessions,
			SessionTTL:    cfg.Scan.SessionTTL,
		},
		logger,
	)

	if cfg.Seed.Demo {
		n, err := ticketUC.SeedDemo(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("seed demo tickets")
		}
		logger.Info().Int("added", n).Msg("demo tickets seeded")
	}

	// ---- Telegram ----
	var bot poller
	if cfg.Bot.Token != "" {
		var botLimiter tele.Limiter
		if limiter != nil {
			botLimiter = limiter
		}
		tg, err := tele.NewRealTelegramBotAdapter(&cfg.Bot, redeemUC, qrDecoder, tr, botLimiter, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram")
		}
		sender.MessageSender, bot = tg, tg
	} else {
		noop := tele.NewNoopBotAdapter(logger)
		sender.MessageSender, bot = noop, noop
		logger.Info().Msg("bot.token empty; telegram disabled")
	}

	// ---- HTTP ----
	var v1Opts []apiv1.Option
	if limiter != nil {
		v1Opts = append(v1Opts, apiv1.WithRedeemRateLimit(limiter, cfg.Redeem.RateLimit, cfg.Redeem.RateWindow))
	}
	v1 := apiv1.NewServer(redeemUC, ticketUC, scanUC, logger, v1Opts...)
	httpServer := api.NewServer(cfg.Server, v1, func(ctx context.Context) error {
		for _, check := range checks {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}, logger)

	var wg sync.WaitGroup
	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Str("task", name).Msg("stopped unexpectedly")
				cancel()
			}
		}()
	}

	run("http", httpServer.Start)
	run("telegram", func() error { return bot.StartPolling(ctx) })
	run("session-sweeper", func() error {
		return sched.NewSessionSweeper(cfg.Scan.SessionTTL/2, scanUC, logger).Run(ctx)
	})
	if pool != nil {
		run("pool-stats", func() error {
			return sched.NewPoolStatsReporter(15*time.Second, func() (int32, int32, int32) {
				s := pool.Stat()
				return s.TotalConns(), s.IdleConns(), s.AcquiredConns()
			}, logger).Run(ctx)
		})
	}

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		logger.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
	bot.StopPolling()
	scanUC.Shutdown()
	wg.Wait()
	workers.Stop()
	logger.Info().Msg("bye")
}
