package token

import (
	"fmt"
	c "setpass/internal/core/domain/common"
	e "setpass/internal/core/domain/errors"
	"time"
	"unicode/utf8"
)

const PinLength = 4

type Identity string

type Token string

type Pin string

func (p Pin) String() string {
	return "****"
}

func (p Pin) Validate() error {
	if utf8.RuneCountInString(string(p)) != PinLength {
		return ErrInvalidPin
	}
	return nil
}

type PinDigest string

func (d PinDigest) String() string {
	return "***"
}

type RawPassword string

func (p RawPassword) String() string {
	return "***"
}

type SealedPassword string

func (p SealedPassword) String() string {
	return "***"
}

// Record is the pending password change of one identity. Its existence is
// the only validity flag: a redeemed record is deleted, never marked.
type Record struct {
	Identity  Identity
	Token     Token
	PinDigest c.Optional[PinDigest]
	Password  SealedPassword
	UpdatedAt time.Time
}

func (r *Record) Validate() error {
	if r.Identity == "" {
		return e.NewInvalidStateError("identity is not set for token record")
	}
	if r.Token == "" {
		return e.NewInvalidStateError(fmt.Sprintf("token is not set for identity %s", r.Identity))
	}
	if r.Password == "" {
		return e.NewInvalidStateError(fmt.Sprintf("password is not set for identity %s", r.Identity))
	}
	return nil
}

// IsExpired reports whether more than validFor has elapsed since the last
// issuance. A non-positive validFor never expires.
func (r *Record) IsExpired(now time.Time, validFor time.Duration) bool {
	if validFor <= 0 {
		return false
	}
	return now.Sub(r.UpdatedAt) > validFor
}

type Generator interface {
	GenerateToken() Token
}

type PinHasher interface {
	HashPin(pin Pin) PinDigest
	ValidatePin(pin Pin, digest PinDigest) bool
}

type PasswordSealer interface {
	Seal(password RawPassword) (SealedPassword, error)
	Unseal(sealed SealedPassword) (RawPassword, error)
}
