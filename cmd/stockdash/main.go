package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"stockdash/internal/api"
	"stockdash/internal/app"
	"stockdash/internal/collector"
	"stockdash/internal/config"
	"stockdash/internal/forecast"
	"stockdash/internal/logging"
	"stockdash/internal/notifier"
	"stockdash/internal/scheduler"
)

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logging.New("error", "json").Error("load config", "err", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	logging.SetDefault(logger)
	logger.Info("stockdash starting", "config", cfgPath)

	if err := cfg.Validate(); err != nil {
		logger.Error("config validation", "err", err)
		os.Exit(1)
	}

	fetcher, err := app.NewFetcher(cfg)
	if err != nil {
		logger.Error("init data source", "err", err)
		os.Exit(1)
	}
	logger.Info("data source ready", "provider", fetcher.Name())

	svc, err := app.NewForecastService(cfg, fetcher, logger)
	if err != nil {
		logger.Error("init forecast service", "err", err)
		os.Exit(1)
	}
	rec := app.OpenRecorder(cfg, logger)
	defer rec.Close()

	col := collector.NewCollector(fetcher, logger)

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TelegramEnabled() {
		tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)

		cmds := scheduler.NewCommands(forecast.NewJournaled(svc, rec, "telegram", logger), col,
			cfg.Schedule.Horizon, cfg.Forecast.MaxHorizon, logger)
		go tn.StartPolling(ctx, cmds.HandleCommand)
		logger.Info("telegram polling started")

		if len(cfg.Schedule.Watchlist) > 0 {
			sched := scheduler.NewScheduler(ctx, forecast.NewJournaled(svc, rec, "schedule", logger), tn, rec,
				cfg.Schedule.Watchlist, cfg.Schedule.Horizon, logger)
			if err := sched.Register(cfg.Schedule.WatchlistCron); err != nil {
				logger.Error("register cron tasks", "err", err)
				os.Exit(1)
			}
			sched.Start()
			defer sched.Stop()

			if os.Getenv("RUN_ON_START") == "true" {
				logger.Info("RUN_ON_START enabled, sending digest now")
				go sched.RunDigestNow()
			}
		}
	} else {
		logger.Info("telegram not configured, bot and digest disabled")
	}

	gin.SetMode(cfg.Server.Mode)
	handler := api.NewHandler(api.Deps{
		Collector:      col,
		Forecast:       forecast.NewJournaled(svc, rec, "http", logger),
		Recorder:       rec,
		MaxHorizon:     cfg.Forecast.MaxHorizon,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	})
	if err := api.Serve(ctx, cfg.Server.Addr, handler, logger); err != nil {
		logger.Error("http server", "err", err)
		stop()
	}
	logger.Info("stockdash stopped")
}
