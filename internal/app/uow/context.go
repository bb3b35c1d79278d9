package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type ctxKey struct{}

func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, ctxKey{}, unit)
}

func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(ctxKey{}).(UnitOfWork)
	return unit, ok && unit != nil
}

// Managed begins a unit and returns the context repositories must use with it
// and a release func that rolls back unless Commit succeeded. Callers defer
// release right after the error check.
func Managed(ctx context.Context, factory UoWFactory, opts TxOptions) (UnitOfWork, context.Context, func(), error) {
	if factory == nil {
		return nil, ctx, func() {}, ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, ctx, func() {}, err
	}
	execCtx := ctx
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		execCtx = injector.InjectContext(ctx)
	}
	tracked := &trackedUnit{UnitOfWork: unit}
	execCtx = ContextWithUnitOfWork(execCtx, tracked)
	release := func() {
		_ = tracked.Rollback(execCtx)
	}
	return tracked, execCtx, release, nil
}

type trackedUnit struct {
	UnitOfWork
	done bool
}

func (t *trackedUnit) Commit(ctx context.Context) error {
	if t.done {
		return errors.New("uow: unit already finished")
	}
	t.done = true
	return t.UnitOfWork.Commit(ctx)
}

func (t *trackedUnit) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	return t.UnitOfWork.Rollback(ctx)
}
