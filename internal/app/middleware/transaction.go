package middleware

import (
	"context"
	"errors"

	"staylane/internal/app/apperr"
	"staylane/internal/app/commands"
	"staylane/internal/app/uow"
)

type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// Transaction runs each command inside one unit of work and commits when the
// handler succeeds. Commands implementing uow.SelfManaged bypass it.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if _, ok := cmd.(uow.SelfManaged); ok {
				return next.Dispatch(ctx, cmd)
			}
			opts := uow.TxOptions{}
			if optsProvider != nil {
				opts = optsProvider(cmd)
			}
			unit, execCtx, release, err := uow.Managed(ctx, factory, opts)
			if err != nil {
				return nil, apperr.Internal("middleware.transaction", err)
			}
			defer release()

			res, err := next.Dispatch(execCtx, cmd)
			if err != nil {
				return nil, err
			}
			if err := unit.Commit(execCtx); err != nil {
				if errors.Is(err, uow.ErrConflict) {
					return nil, apperr.Conflict("middleware.transaction", "the resource was modified concurrently, retry", err)
				}
				return nil, apperr.Internal("middleware.transaction", err)
			}
			return res, nil
		})
	}
}
