package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/recipehub/internal/notifications"
	"github.com/geocoder89/recipehub/internal/observability"
	"github.com/geocoder89/recipehub/internal/queue"
)

type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (queue.ResetMail, error)
	Retry(ctx context.Context, m queue.ResetMail, at time.Time) error
	PromoteDue(ctx context.Context, now time.Time) (int, error)
}

type Config struct {
	PopTimeout  time.Duration
	MaxAttempts int
	// ErrorPause is how long the loop waits after the source itself fails.
	ErrorPause time.Duration
}

// Worker drains the reset mail queue into a Notifier, parking failed sends for a later retry.
type Worker struct {
	cfg      Config
	source   Source
	notifier notifications.Notifier
	log      *slog.Logger
	prom     *observability.Prom

	now     func() time.Time
	backoff func(attempt int) time.Duration

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, source Source, notifier notifications.Notifier, log *slog.Logger, prom *observability.Prom) *Worker {
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.ErrorPause <= 0 {
		cfg.ErrorPause = time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	return &Worker{
		cfg:      cfg,
		source:   source,
		notifier: notifier,
		log:      log,
		prom:     prom,
		now:      func() time.Time { return time.Now().UTC() },
		backoff:  ExponentialBackoff,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	w.log.InfoContext(ctx, "reset mail worker started")

	for {
		if ctx.Err() != nil {
			w.log.InfoContext(ctx, "worker received shutdown signal")
			return nil
		}

		if n, err := w.source.PromoteDue(ctx, w.now()); err != nil {
			w.log.WarnContext(ctx, "promote retries failed", "err", err)
		} else if n > 0 {
			w.log.DebugContext(ctx, "promoted retries", "count", n)
		}

		_, err := w.ProcessOne(ctx)
		if err != nil && ctx.Err() == nil {
			w.log.ErrorContext(ctx, "process reset mail failed", "err", err)

			select {
			case <-ctx.Done():
			case <-time.After(w.cfg.ErrorPause):
			}
		}
	}
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}
