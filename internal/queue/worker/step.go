package worker

import (
	"context"
	"errors"

	"github.com/geocoder89/recipehub/internal/notifications"
	"github.com/geocoder89/recipehub/internal/queue"
)

// ProcessOne handles at most one message. It reports whether a message was taken.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	m, err := w.source.Pop(ctx, w.cfg.PopTimeout)
	if err != nil {
		if errors.Is(err, queue.ErrEmpty) || errors.Is(err, context.Canceled) {
			return false, nil
		}
		return false, err
	}

	// a link that can no longer be redeemed is not worth sending
	if !m.ExpiresAt.IsZero() && !w.now().Before(m.ExpiresAt) {
		w.prom.IncResetMail("expired")
		w.log.InfoContext(ctx, "dropping expired reset mail", "email", m.Email)
		return true, nil
	}

	err = w.notifier.SendPasswordReset(ctx, notifications.PasswordResetInput{
		Email:     m.Email,
		ResetURL:  m.ResetURL,
		ExpiresAt: m.ExpiresAt,
	})
	if err == nil {
		w.prom.IncResetMail("sent")
		return true, nil
	}

	return true, w.handleFailure(ctx, m, err)
}

func (w *Worker) handleFailure(ctx context.Context, m queue.ResetMail, sendErr error) error {
	m.Attempt++

	if m.Attempt >= w.cfg.MaxAttempts {
		w.prom.IncResetMail("dropped")
		w.log.ErrorContext(ctx, "reset mail dropped after retries",
			"email", m.Email, "attempts", m.Attempt, "err", sendErr)
		return nil
	}

	delay := w.backoff(m.Attempt - 1)
	if err := w.source.Retry(ctx, m, w.now().Add(delay)); err != nil {
		return err
	}

	w.prom.IncResetMail("retried")
	w.log.WarnContext(ctx, "reset mail send failed, retry scheduled",
		"email", m.Email, "attempt", m.Attempt, "delay", delay, "err", sendErr)
	return nil
}
