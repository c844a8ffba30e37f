package issuetoken

import (
	"context"
	"errors"
	"fmt"
	c "setpass/internal/core/domain/common"
	e "setpass/internal/core/domain/errors"
	"setpass/internal/core/domain/identity"
	"setpass/internal/core/domain/logging"
	"setpass/internal/core/domain/token"
	uow "setpass/internal/core/domain/unit_of_work"
	"setpass/internal/core/services"
	"setpass/internal/core/services/auth"
	"time"
)

type Input struct {
	Identity token.Identity
	Pin      c.Optional[token.Pin]
	Password c.Optional[token.RawPassword]

	AdminToken identity.AdminToken
}

func (i Input) WithAdminToken(adminToken identity.AdminToken) auth.Input {
	i.AdminToken = adminToken
	return i
}

type Result struct {
	Token token.Token
}

type Option func(s *service)

// WithoutPin lets records be created without a PIN.
func WithoutPin() Option {
	return func(s *service) {
		s.isPinRequired = false
	}
}

type service struct {
	log            logging.Logger
	uow            uow.UnitOfWork
	generator      token.Generator
	pinHasher      token.PinHasher
	passwordSealer token.PasswordSealer
	now            func() time.Time
	isPinRequired  bool
}

func New(
	log logging.Logger,
	uow uow.UnitOfWork,
	generator token.Generator,
	pinHasher token.PinHasher,
	passwordSealer token.PasswordSealer,
	now func() time.Time,
	options ...Option,
) services.Service[Input, Result] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if uow == nil {
		panic(e.NewNilArgumentError("uow"))
	}
	if generator == nil {
		panic(e.NewNilArgumentError("generator"))
	}
	if pinHasher == nil {
		panic(e.NewNilArgumentError("pinHasher"))
	}
	if passwordSealer == nil {
		panic(e.NewNilArgumentError("passwordSealer"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	s := &service{
		log:            log,
		uow:            uow,
		generator:      generator,
		pinHasher:      pinHasher,
		passwordSealer: passwordSealer,
		now:            now,
		isPinRequired:  true,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	if input.Identity == "" {
		return result, token.ErrMissingFields
	}
	if input.Pin.IsPresent {
		if err := input.Pin.Value.Validate(); err != nil {
			return result, err
		}
	}
	if input.Password.IsPresent && input.Password.Value == "" {
		return result, token.ErrMissingFields
	}

	pinDigest := c.None[token.PinDigest]()
	if input.Pin.IsPresent {
		pinDigest = c.Some(s.pinHasher.HashPin(input.Pin.Value))
	}
	sealedPassword := c.None[token.SealedPassword]()
	if input.Password.IsPresent {
		sealed, err := s.passwordSealer.Seal(input.Password.Value)
		if err != nil {
			s.log.Error(
				ctx,
				"Could not seal password.",
				logging.Entry("identity", input.Identity),
				logging.Entry("err", err),
			)
			return result, err
		}
		sealedPassword = c.Some(sealed)
	}

	record, err := s.issue(ctx, input.Identity, pinDigest, sealedPassword)
	if errors.Is(err, token.ErrIdentityAlreadyExists) {
		// A concurrent first issuance inserted the record after our lookup
		// missed; the retry takes the update branch under the row lock.
		s.log.Info(ctx, "Concurrent issuance detected, retrying.", logging.Entry("identity", input.Identity))
		record, err = s.issue(ctx, input.Identity, pinDigest, sealedPassword)
	}
	if err != nil {
		return result, err
	}

	s.log.Info(
		ctx,
		"Token has been issued.",
		logging.Entry("identity", input.Identity),
		logging.Entry("pinUpdated", input.Pin.IsPresent),
		logging.Entry("passwordUpdated", input.Password.IsPresent),
	)
	return Result{Token: record.Token}, nil
}

func (s *service) issue(
	ctx context.Context,
	id token.Identity,
	pinDigest c.Optional[token.PinDigest],
	sealedPassword c.Optional[token.SealedPassword],
) (record token.Record, err error) {
	uow, err := s.uow.Begin(ctx)
	if err != nil {
		s.log.Error(
			ctx,
			"Could not begin unit of work.",
			logging.Entry("identity", id),
			logging.Entry("err", err),
		)
		return record, err
	}
	defer uow.Rollback(ctx)

	_, err = uow.Tokens().GetByIdentityForUpdate(ctx, id)
	switch {
	case errors.Is(err, token.ErrTokenNotFound):
		record, err = s.create(ctx, uow, id, pinDigest, sealedPassword)
	case err == nil:
		record, err = uow.Tokens().Update(ctx, token.UpdateInput{
			Identity:  id,
			Token:     s.generator.GenerateToken(),
			PinDigest: pinDigest,
			Password:  sealedPassword,
			UpdatedAt: s.now(),
		})
	}
	if errors.Is(err, token.ErrMissingFields) || errors.Is(err, token.ErrIdentityAlreadyExists) {
		return record, err
	}
	if err != nil {
		s.log.Error(
			ctx,
			"Could not issue token.",
			logging.Entry("identity", id),
			logging.Entry("err", err),
		)
		return record, err
	}

	if err = uow.Commit(ctx); err != nil {
		s.log.Error(
			ctx,
			"Could not commit unit of work.",
			logging.Entry("identity", id),
			logging.Entry("err", err),
		)
		return record, err
	}
	return record, nil
}

func (s *service) create(
	ctx context.Context,
	uow uow.Context,
	id token.Identity,
	pinDigest c.Optional[token.PinDigest],
	sealedPassword c.Optional[token.SealedPassword],
) (record token.Record, err error) {
	if !sealedPassword.IsPresent {
		return record, fmt.Errorf("%w: password is required for a new identity", token.ErrMissingFields)
	}
	if s.isPinRequired && !pinDigest.IsPresent {
		return record, fmt.Errorf("%w: pin is required for a new identity", token.ErrMissingFields)
	}
	return uow.Tokens().Create(ctx, token.CreateInput{
		Identity:  id,
		Token:     s.generator.GenerateToken(),
		PinDigest: pinDigest,
		Password:  sealedPassword.Value,
		UpdatedAt: s.now(),
	})
}
