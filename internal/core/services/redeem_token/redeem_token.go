package redeemtoken

import (
	"context"
	"errors"
	e "setpass/internal/core/domain/errors"
	"setpass/internal/core/domain/identity"
	"setpass/internal/core/domain/logging"
	"setpass/internal/core/domain/token"
	uow "setpass/internal/core/domain/unit_of_work"
	"setpass/internal/core/services"
	"time"
)

type Input struct {
	Token       token.Token
	Pin         token.Pin
	NewPassword token.RawPassword
}

type Result struct{}

type Option func(s *service)

// WithoutPin skips the PIN check.
func WithoutPin() Option {
	return func(s *service) {
		s.isPinRequired = false
	}
}

// DeleteExpired terminates a record on the first redemption attempt after
// its expiry. By default expired records stay until the next issuance
// overwrites them.
func DeleteExpired() Option {
	return func(s *service) {
		s.deleteExpired = true
	}
}

type service struct {
	log             logging.Logger
	uow             uow.UnitOfWork
	pinHasher       token.PinHasher
	passwordSealer  token.PasswordSealer
	passwordChanger identity.PasswordChanger
	validFor        time.Duration
	now             func() time.Time
	isPinRequired   bool
	deleteExpired   bool
}

func New(
	log logging.Logger,
	uow uow.UnitOfWork,
	pinHasher token.PinHasher,
	passwordSealer token.PasswordSealer,
	passwordChanger identity.PasswordChanger,
	validFor time.Duration,
	now func() time.Time,
	options ...Option,
) services.Service[Input, Result] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if uow == nil {
		panic(e.NewNilArgumentError("uow"))
	}
	if pinHasher == nil {
		panic(e.NewNilArgumentError("pinHasher"))
	}
	if passwordSealer == nil {
		panic(e.NewNilArgumentError("passwordSealer"))
	}
	if passwordChanger == nil {
		panic(e.NewNilArgumentError("passwordChanger"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	s := &service{
		log:             log,
		uow:             uow,
		pinHasher:       pinHasher,
		passwordSealer:  passwordSealer,
		passwordChanger: passwordChanger,
		validFor:        validFor,
		now:             now,
		isPinRequired:   true,
		deleteExpired:   false,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	if input.Token == "" || input.NewPassword == "" {
		return result, token.ErrMissingFields
	}
	if s.isPinRequired && input.Pin == "" {
		return result, token.ErrMissingFields
	}

	uow, err := s.uow.Begin(ctx)
	if err != nil {
		s.log.Error(ctx, "Could not begin unit of work.", logging.Entry("err", err))
		return result, err
	}
	defer uow.Rollback(ctx)

	record, err := uow.Tokens().GetByTokenForUpdate(ctx, input.Token)
	if errors.Is(err, token.ErrTokenNotFound) {
		s.log.Info(ctx, "Token not found for redemption.")
		return result, err
	}
	if err != nil {
		s.log.Error(ctx, "Could not get token record for redemption.", logging.Entry("err", err))
		return result, err
	}

	if s.isPinRequired && !s.isPinValid(input.Pin, record) {
		s.log.Info(ctx, "Wrong pin presented for token.", logging.Entry("identity", record.Identity))
		return result, token.ErrWrongPin
	}

	if record.IsExpired(s.now(), s.validFor) {
		return result, s.expire(ctx, uow, record)
	}

	oldPassword, err := s.passwordSealer.Unseal(record.Password)
	if err != nil {
		s.log.Error(
			ctx,
			"Could not unseal stored password.",
			logging.Entry("identity", record.Identity),
			logging.Entry("err", err),
		)
		return result, err
	}

	err = s.passwordChanger.ChangePassword(ctx, record.Identity, oldPassword, input.NewPassword)
	if err != nil {
		s.log.Warning(
			ctx,
			"Identity provider refused password change.",
			logging.Entry("identity", record.Identity),
			logging.Entry("err", err),
		)
		return result, err
	}

	if err = uow.Tokens().Delete(ctx, record.Token); err != nil {
		s.log.Error(
			ctx,
			"Password has been changed but token record could not be deleted.",
			logging.Entry("identity", record.Identity),
			logging.Entry("err", err),
		)
		return result, err
	}
	if err = uow.Commit(ctx); err != nil {
		s.log.Error(
			ctx,
			"Password has been changed but unit of work could not be committed.",
			logging.Entry("identity", record.Identity),
			logging.Entry("err", err),
		)
		return result, err
	}

	s.log.Info(ctx, "Password has been changed, token redeemed.", logging.Entry("identity", record.Identity))
	return result, nil
}

func (s *service) isPinValid(pin token.Pin, record token.Record) bool {
	if !record.PinDigest.IsPresent {
		return false
	}
	return s.pinHasher.ValidatePin(pin, record.PinDigest.Value)
}

func (s *service) expire(ctx context.Context, uow uow.Context, record token.Record) error {
	s.log.Info(
		ctx,
		"Expired token presented for redemption.",
		logging.Entry("identity", record.Identity),
		logging.Entry("updatedAt", record.UpdatedAt),
		logging.Entry("deleteExpired", s.deleteExpired),
	)
	if !s.deleteExpired {
		return token.ErrTokenExpired
	}
	if err := uow.Tokens().Delete(ctx, record.Token); err != nil {
		s.log.Error(
			ctx,
			"Could not delete expired token record.",
			logging.Entry("identity", record.Identity),
			logging.Entry("err", err),
		)
		return err
	}
	if err := uow.Commit(ctx); err != nil {
		s.log.Error(
			ctx,
			"Could not commit unit of work.",
			logging.Entry("identity", record.Identity),
			logging.Entry("err", err),
		)
		return err
	}
	return token.ErrTokenExpired
}
