package keystone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"setpass/internal/core/domain/identity"
	"setpass/internal/core/domain/token"
	"time"
)

const (
	SUBJECT_TOKEN_HEADER = "X-Subject-Token"
	AUTH_TOKEN_HEADER    = "X-Auth-Token"
	MAX_ERROR_BODY_BYTES = 64 * 1024
)

type authRequest struct {
	Auth auth `json:"auth"`
}

type auth struct {
	Identity authIdentity `json:"identity"`
	Scope    *authScope   `json:"scope,omitempty"`
}

type authIdentity struct {
	Methods  []string      `json:"methods"`
	Password *passwordAuth `json:"password,omitempty"`
	Token    *tokenAuth    `json:"token,omitempty"`
}

type passwordAuth struct {
	User passwordAuthUser `json:"user"`
}

type passwordAuthUser struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

type tokenAuth struct {
	ID string `json:"id"`
}

type authScope struct {
	Project scopeProject `json:"project"`
}

type scopeProject struct {
	Name   string      `json:"name"`
	Domain scopeDomain `json:"domain"`
}

type scopeDomain struct {
	ID string `json:"id"`
}

type changePasswordRequest struct {
	User changePasswordUser `json:"user"`
}

type changePasswordUser struct {
	Password         string `json:"password"`
	OriginalPassword string `json:"original_password"`
}

// Keystone talks to the OpenStack identity API v3. authURL is expected to
// point at the versioned endpoint, e.g. http://keystone:5000/v3.
type Keystone struct {
	httpClient           http.Client
	authURL              url.URL
	adminProjectName     string
	adminProjectDomainID string
}

func New(
	authURL url.URL,
	adminProjectName string,
	adminProjectDomainID string,
	timeout time.Duration,
) *Keystone {
	return &Keystone{
		httpClient:           http.Client{Timeout: timeout},
		authURL:              authURL,
		adminProjectName:     adminProjectName,
		adminProjectDomainID: adminProjectDomainID,
	}
}

func (k *Keystone) ChangePassword(
	ctx context.Context,
	id token.Identity,
	oldPassword, newPassword token.RawPassword,
) error {
	passwordURL, err := k.userPasswordURL(id)
	if err != nil {
		return err
	}
	userToken, err := k.authenticate(ctx, string(id), string(oldPassword))
	if err != nil {
		return err
	}

	resp, err := k.post(
		ctx,
		passwordURL,
		changePasswordRequest{User: changePasswordUser{
			Password:         string(newPassword),
			OriginalPassword: string(oldPassword),
		}},
		userToken,
	)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !isSuccessful(resp) {
		return newProviderError(resp)
	}
	return nil
}

// userPasswordURL keeps the user id a single path segment below /users.
func (k *Keystone) userPasswordURL(id token.Identity) (*url.URL, error) {
	segment := url.PathEscape(string(id))
	if segment == "" || segment == "." || segment == ".." {
		return nil, &identity.ProviderError{Message: fmt.Sprintf("invalid user id %q", id)}
	}
	// JoinPath treats its elements as already escaped.
	return k.authURL.JoinPath("users", segment, "password"), nil
}

func (k *Keystone) ValidateAdminToken(ctx context.Context, adminToken identity.AdminToken) error {
	resp, err := k.post(
		ctx,
		k.authURL.JoinPath("auth", "tokens"),
		authRequest{Auth: auth{
			Identity: authIdentity{
				Methods: []string{"token"},
				Token:   &tokenAuth{ID: string(adminToken)},
			},
			Scope: &authScope{Project: scopeProject{
				Name:   k.adminProjectName,
				Domain: scopeDomain{ID: k.adminProjectDomainID},
			}},
		}},
		"",
	)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case isSuccessful(resp):
		return nil
	case resp.StatusCode == http.StatusUnauthorized ||
		resp.StatusCode == http.StatusForbidden ||
		resp.StatusCode == http.StatusNotFound:
		return identity.ErrForbidden
	default:
		return newProviderError(resp)
	}
}

func (k *Keystone) authenticate(ctx context.Context, userID string, password string) (string, error) {
	resp, err := k.post(
		ctx,
		k.authURL.JoinPath("auth", "tokens"),
		authRequest{Auth: auth{Identity: authIdentity{
			Methods:  []string{"password"},
			Password: &passwordAuth{User: passwordAuthUser{ID: userID, Password: password}},
		}}},
		"",
	)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if !isSuccessful(resp) {
		return "", newProviderError(resp)
	}
	userToken := resp.Header.Get(SUBJECT_TOKEN_HEADER)
	if userToken == "" {
		return "", &identity.ProviderError{Message: "identity provider did not return a token"}
	}
	return userToken, nil
}

func (k *Keystone) post(ctx context.Context, url *url.URL, payload interface{}, authToken string) (*http.Response, error) {
	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(payload); err != nil {
		return nil, err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url.String(), &body)
	if err != nil {
		return nil, err
	}
	request.Header.Add("content-type", "application/json")
	if authToken != "" {
		request.Header.Add(AUTH_TOKEN_HEADER, authToken)
	}
	resp, err := k.httpClient.Do(request)
	if err != nil {
		return nil, &identity.ProviderError{Message: fmt.Sprintf("could not reach identity provider: %v", err)}
	}
	return resp, nil
}

func isSuccessful(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func newProviderError(resp *http.Response) *identity.ProviderError {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MAX_ERROR_BODY_BYTES))
	if err != nil || len(body) == 0 {
		return &identity.ProviderError{Message: fmt.Sprintf("identity provider responded with status %d", resp.StatusCode)}
	}
	return &identity.ProviderError{Message: string(body)}
}
