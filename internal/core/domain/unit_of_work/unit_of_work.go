package uow

import (
	"context"
	"setpass/internal/core/domain/token"
)

type Context interface {
	Rollback(ctx context.Context) error
	Commit(ctx context.Context) error

	Tokens() token.Repository
}

type UnitOfWork interface {
	Begin(ctx context.Context) (Context, error)
}
