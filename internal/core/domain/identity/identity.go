package identity

import (
	"context"
	"errors"
	"setpass/internal/core/domain/token"
)

var ErrForbidden = errors.New("admin token could not be scoped to the admin project")

// ProviderError carries the message returned by the identity provider.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

type AdminToken string

func (t AdminToken) String() string {
	return "***"
}

type PasswordChanger interface {
	ChangePassword(ctx context.Context, id token.Identity, oldPassword, newPassword token.RawPassword) error
}

type AdminTokenValidator interface {
	ValidateAdminToken(ctx context.Context, adminToken AdminToken) error
}
