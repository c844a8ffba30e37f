package auth

import (
	"context"
	"errors"
	e "setpass/internal/core/domain/errors"
	"setpass/internal/core/domain/identity"
	"setpass/internal/core/domain/logging"
	"setpass/internal/core/services"
)

type contextAdminToken string

const CONTEXT_ADMIN_TOKEN_KEY = contextAdminToken("adminToken")

var (
	ErrUnauthorized = errors.New("admin token is missing")
	ErrForbidden    = errors.New("admin token is not allowed to issue tokens")
)

type Input interface {
	WithAdminToken(adminToken identity.AdminToken) Input
}

func ContextWithAdminToken(ctx context.Context, adminToken identity.AdminToken) context.Context {
	return context.WithValue(ctx, CONTEXT_ADMIN_TOKEN_KEY, adminToken)
}

type service[T Input, S any] struct {
	log       logging.Logger
	validator identity.AdminTokenValidator
	inner     services.Service[T, S]
}

func WithAdminAuthentication[T Input, S any](
	log logging.Logger,
	validator identity.AdminTokenValidator,
	inner services.Service[T, S],
) services.Service[T, S] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if validator == nil {
		panic(e.NewNilArgumentError("validator"))
	}
	if inner == nil {
		panic(e.NewNilArgumentError("inner"))
	}
	return &service[T, S]{
		log:       log,
		validator: validator,
		inner:     inner,
	}
}

func (s *service[T, S]) Run(ctx context.Context, input T) (result S, err error) {
	adminToken, ok := ctx.Value(CONTEXT_ADMIN_TOKEN_KEY).(identity.AdminToken)
	if !ok || adminToken == "" {
		return result, ErrUnauthorized
	}

	err = s.validator.ValidateAdminToken(ctx, adminToken)
	if errors.Is(err, identity.ErrForbidden) {
		s.log.Warning(ctx, "Admin token was rejected by identity provider.")
		return result, ErrForbidden
	}
	if err != nil {
		s.log.Error(ctx, "Could not validate admin token.", logging.Entry("err", err))
		return result, err
	}

	return s.inner.Run(ctx, input.WithAdminToken(adminToken).(T))
}
