package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"stockdash/internal/forecast"
	"stockdash/internal/model"
	"stockdash/internal/notifier"
	"stockdash/internal/recorder"
)

// Scheduler runs the watchlist digest on a cron schedule.
type Scheduler struct {
	Cron      *cron.Cron
	Forecast  forecast.Forecaster
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Watchlist []string
	Horizon   int
	Ctx       context.Context

	log     *slog.Logger
	running sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, fc forecast.Forecaster, n notifier.Notifier, rec recorder.Recorder, watchlist []string, horizon int, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Forecast:  fc,
		Notifier:  n,
		Recorder:  rec,
		Watchlist: watchlist,
		Horizon:   horizon,
		Ctx:       ctx,
		log:       logger.With("component", "scheduler"),
	}
}

// Register adds the digest task under the given six-field cron spec.
func (s *Scheduler) Register(digestCron string) error {
	if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started", "watchlist", len(s.Watchlist))
}

// Stop stops the cron scheduler and waits for a running digest to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunDigestNow executes the digest immediately and returns the message sent.
func (s *Scheduler) RunDigestNow() string {
	return s.digest(s.Ctx)
}

func (s *Scheduler) digestTask() { s.digest(s.Ctx) }

func (s *Scheduler) digest(ctx context.Context) string {
	if !s.running.TryLock() {
		s.log.Warn("digest already running, skipping")
		return ""
	}
	defer s.running.Unlock()

	if len(s.Watchlist) == 0 {
		return ""
	}
	s.log.Info("running watchlist digest", "symbols", len(s.Watchlist))

	lines := s.forecastAll(ctx)
	run := &recorder.DigestRun{Symbols: len(lines), Timestamp: time.Now()}
	for _, l := range lines {
		if l.Err != nil {
			run.Failed++
			s.log.Warn("digest forecast failed", "symbol", l.Symbol, "err", l.Err)
		} else {
			run.Succeeded++
		}
	}

	msg := notifier.FormatDigest(lines, s.Horizon, time.Now())
	run.Sent = s.trySend(ctx, msg)
	if err := s.Recorder.RecordDigest(ctx, run); err != nil {
		s.log.Error("record digest", "err", err)
	}
	return msg
}

// forecastAll runs the watchlist with bounded parallelism, keeping input order.
func (s *Scheduler) forecastAll(ctx context.Context) []notifier.DigestLine {
	lines := make([]notifier.DigestLine, len(s.Watchlist))
	var g errgroup.Group
	g.SetLimit(4)
	for i, sym := range s.Watchlist {
		i, sym := i, sym
		g.Go(func() error {
			res, err := s.Forecast.Forecast(ctx, model.ForecastRequest{Symbol: sym, Horizon: s.Horizon})
			lines[i] = notifier.DigestLine{Symbol: sym, Result: res, Err: err}
			return nil
		})
	}
	g.Wait()
	return lines
}

func (s *Scheduler) trySend(ctx context.Context, text string) bool {
	if s.Notifier == nil {
		return false
	}
	var err error
	if tn, ok := s.Notifier.(*notifier.TelegramNotifier); ok {
		err = tn.SendWithRetry(ctx, text, 3)
	} else {
		err = s.Notifier.Send(ctx, text)
	}
	if err != nil {
		s.log.Error("send notification", "err", err)
		return false
	}
	return true
}
