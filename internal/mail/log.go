package mail

import (
	"context"
	"log/slog"
)

// Log is a Provider that only logs messages. It is selected when no real
// provider is configured.
type Log struct {
	Logger *slog.Logger
}

func (l *Log) Name() string { return "log" }

// Send logs msg and returns a receipt derived from its idempotency key.
func (l *Log) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := checkMessage(l.Name(), msg); err != nil {
		return Receipt{}, err
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("email (log provider)",
		"to", msg.To.Email,
		"subject", msg.Subject,
		"category", msg.Category,
	)
	id := msg.IdempotencyKey
	if len(id) > 16 {
		id = id[:16]
	}
	return Receipt{Provider: l.Name(), MessageID: "log-" + id}, nil
}
