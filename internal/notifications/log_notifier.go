package notifications

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"
)

var ErrSimulatedOutage = errors.New("provider down (simulated)")

type LogNotifierConfig struct {
	// RedactLinks drops the token from logged reset links. Production sets it.
	RedactLinks bool

	// Delay and Fail simulate a slow or failing provider.
	Delay time.Duration
	Fail  bool
}

// LogNotifier writes reset links to the log instead of a mail provider.
type LogNotifier struct {
	log *slog.Logger
	cfg LogNotifierConfig
}

func NewLogNotifier(log *slog.Logger, cfg LogNotifierConfig) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log, cfg: cfg}
}

func (n *LogNotifier) SendPasswordReset(ctx context.Context, in PasswordResetInput) error {
	if n.cfg.Delay > 0 {
		select {
		case <-time.After(n.cfg.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if n.cfg.Fail {
		return ErrSimulatedOutage
	}

	link := in.ResetURL
	if n.cfg.RedactLinks {
		link = redactToken(link)
	}

	n.log.InfoContext(ctx, "notification.password_reset",
		"email", in.Email,
		"reset_url", link,
		"expires_at", in.ExpiresAt,
	)
	return nil
}

// redactToken keeps scheme, host and path. Anything unparsable is dropped whole.
func redactToken(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return "[redacted]"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
