package mail

import (
	"context"
	"log/slog"
)

// Failover sends through Primary and falls back to Secondary when the
// primary fails with a transient error. A permanent primary error is
// returned as is: the secondary would reject the same message.
type Failover struct {
	Primary   Provider
	Secondary Provider
	Logger    *slog.Logger
}

func (f *Failover) Name() string {
	return f.Primary.Name() + "+" + f.Secondary.Name()
}

func (f *Failover) Send(ctx context.Context, msg Message) (Receipt, error) {
	receipt, err := f.Primary.Send(ctx, msg)
	if err == nil || IsPermanent(err) {
		return receipt, err
	}
	if ctx.Err() != nil {
		return Receipt{}, err
	}

	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("primary email provider failed, trying secondary",
		"primary", f.Primary.Name(),
		"secondary", f.Secondary.Name(),
		"error", err,
	)
	return f.Secondary.Send(ctx, msg)
}
