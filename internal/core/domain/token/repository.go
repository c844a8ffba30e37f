package token

import (
	"context"
	c "setpass/internal/core/domain/common"
	"time"
)

type CreateInput struct {
	Identity  Identity
	Token     Token
	PinDigest c.Optional[PinDigest]
	Password  SealedPassword
	UpdatedAt time.Time
}

// UpdateInput rotates the token of an existing record. Absent optional
// fields keep their stored values.
type UpdateInput struct {
	Identity  Identity
	Token     Token
	PinDigest c.Optional[PinDigest]
	Password  c.Optional[SealedPassword]
	UpdatedAt time.Time
}

type Repository interface {
	GetByToken(ctx context.Context, token Token) (Record, error)
	GetByTokenForUpdate(ctx context.Context, token Token) (Record, error)
	GetByIdentity(ctx context.Context, identity Identity) (Record, error)
	GetByIdentityForUpdate(ctx context.Context, identity Identity) (Record, error)
	Create(ctx context.Context, input CreateInput) (Record, error)
	Update(ctx context.Context, input UpdateInput) (Record, error)
	Delete(ctx context.Context, token Token) error
}
