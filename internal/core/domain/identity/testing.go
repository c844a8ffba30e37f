package identity

import (
	"context"
	"setpass/internal/core/domain/token"
	"sync"
)

type PasswordChange struct {
	Identity    token.Identity
	OldPassword token.RawPassword
	NewPassword token.RawPassword
}

type FakePasswordChanger struct {
	Changes     []PasswordChange
	ReturnError error
	lock        sync.Mutex
}

func NewFakePasswordChanger() *FakePasswordChanger {
	return &FakePasswordChanger{}
}

func (c *FakePasswordChanger) ChangePassword(
	ctx context.Context,
	id token.Identity,
	oldPassword, newPassword token.RawPassword,
) error {
	if c.ReturnError != nil {
		return c.ReturnError
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	c.Changes = append(c.Changes, PasswordChange{Identity: id, OldPassword: oldPassword, NewPassword: newPassword})
	return nil
}

func (c *FakePasswordChanger) ChangeCount() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.Changes)
}

type FakeAdminTokenValidator struct {
	AdminTokens map[AdminToken]struct{}
	ReturnError error
}

func NewFakeAdminTokenValidator(adminTokens ...AdminToken) *FakeAdminTokenValidator {
	v := &FakeAdminTokenValidator{AdminTokens: make(map[AdminToken]struct{})}
	for _, t := range adminTokens {
		v.AdminTokens[t] = struct{}{}
	}
	return v
}

func (v *FakeAdminTokenValidator) ValidateAdminToken(ctx context.Context, adminToken AdminToken) error {
	if v.ReturnError != nil {
		return v.ReturnError
	}
	if _, ok := v.AdminTokens[adminToken]; !ok {
		return ErrForbidden
	}
	return nil
}
