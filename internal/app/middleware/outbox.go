package middleware

import (
	"context"
	"log/slog"

	"staylane/internal/app/commands"
	"staylane/internal/app/outbox"
)

// OutboxFlush nudges the relay after every successful command. A failed nudge
// is logged only: the records are already stored and the poller picks them up.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if flushErr := box.Flush(ctx); flushErr != nil && logger != nil {
				logger.Warn("outbox flush failed", "command", cmd.Key(), "error", flushErr)
			}
			return res, nil
		})
	}
}
