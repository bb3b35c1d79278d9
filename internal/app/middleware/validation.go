package middleware

import (
	"context"

	"staylane/internal/app/apperr"
	"staylane/internal/app/commands"
	"staylane/internal/app/queries"
)

type Validator interface {
	Validate(ctx context.Context, message any) error
}

// SelfValidating messages check their own shape before reaching a handler.
type SelfValidating interface {
	Validate() error
}

// StructValidator runs Validate on self-validating messages and reports
// failures as validation errors.
type StructValidator struct{}

func (StructValidator) Validate(_ context.Context, message any) error {
	v, ok := message.(SelfValidating)
	if !ok {
		return nil
	}
	if err := v.Validate(); err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			return err
		}
		return apperr.Validation("middleware.validation", err.Error(), err)
	}
	return nil
}

func Validation(v Validator) CommandMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := v.Validate(ctx, cmd); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}

func QueryValidation(v Validator) QueryMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := v.Validate(ctx, q); err != nil {
				return nil, err
			}
			return next.Ask(ctx, q)
		})
	}
}
