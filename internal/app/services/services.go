package services

import (
	"errors"
	"setpass/internal/app/deps"
	"setpass/internal/core/domain/identity"
	"setpass/internal/core/domain/metrics"
	"setpass/internal/core/domain/token"
	"setpass/internal/core/services"
	"setpass/internal/core/services/auth"
	issuetoken "setpass/internal/core/services/issue_token"
	sm "setpass/internal/core/services/metrics"
	redeemtoken "setpass/internal/core/services/redeem_token"
)

const (
	ISSUE_TOKEN_OPERATION  = "issue_token"
	REDEEM_TOKEN_OPERATION = "redeem_token"
)

const (
	OutcomeInvalidInput  metrics.Outcome = "invalid_input"
	OutcomeUnauthorized  metrics.Outcome = "unauthorized"
	OutcomeForbidden     metrics.Outcome = "forbidden"
	OutcomeNotFound      metrics.Outcome = "not_found"
	OutcomeWrongPin      metrics.Outcome = "wrong_pin"
	OutcomeExpired       metrics.Outcome = "expired"
	OutcomeProviderError metrics.Outcome = "provider_error"
)

type Services struct {
	IssueToken  services.Service[issuetoken.Input, issuetoken.Result]
	RedeemToken services.Service[redeemtoken.Input, redeemtoken.Result]
}

func InitServices(deps *deps.Deps) *Services {
	s := &Services{}

	issueOptions := []issuetoken.Option{}
	redeemOptions := []redeemtoken.Option{}
	if !deps.Config.RequirePin {
		issueOptions = append(issueOptions, issuetoken.WithoutPin())
		redeemOptions = append(redeemOptions, redeemtoken.WithoutPin())
	}
	if deps.Config.DeleteExpiredOnRedeem {
		redeemOptions = append(redeemOptions, redeemtoken.DeleteExpired())
	}

	issueToken := issuetoken.New(
		deps.Logger,
		deps.UnitOfWork,
		deps.TokenGenerator,
		deps.PinHasher,
		deps.PasswordSealer,
		deps.Now,
		issueOptions...,
	)
	if deps.Config.AdminAuthEnabled {
		issueToken = auth.WithAdminAuthentication(
			deps.Logger,
			deps.AdminTokenValidator,
			issueToken,
		)
	}
	s.IssueToken = sm.WithOutcomeRecording(
		ISSUE_TOKEN_OPERATION,
		deps.MetricsRecorder,
		classifyError,
		issueToken,
	)

	s.RedeemToken = sm.WithOutcomeRecording(
		REDEEM_TOKEN_OPERATION,
		deps.MetricsRecorder,
		classifyError,
		redeemtoken.New(
			deps.Logger,
			deps.UnitOfWork,
			deps.PinHasher,
			deps.PasswordSealer,
			deps.PasswordChanger,
			deps.Config.TokenValidFor(),
			deps.Now,
			redeemOptions...,
		),
	)

	return s
}

func classifyError(err error) metrics.Outcome {
	var providerErr *identity.ProviderError
	switch {
	case errors.Is(err, token.ErrMissingFields), errors.Is(err, token.ErrInvalidPin):
		return OutcomeInvalidInput
	case errors.Is(err, auth.ErrUnauthorized):
		return OutcomeUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return OutcomeForbidden
	case errors.Is(err, token.ErrTokenNotFound):
		return OutcomeNotFound
	case errors.Is(err, token.ErrWrongPin):
		return OutcomeWrongPin
	case errors.Is(err, token.ErrTokenExpired):
		return OutcomeExpired
	case errors.As(err, &providerErr):
		return OutcomeProviderError
	default:
		return metrics.Failure
	}
}
