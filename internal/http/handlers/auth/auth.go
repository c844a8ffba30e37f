package auth

import (
	"net/http"
	"setpass/internal/core/domain/identity"
	"setpass/internal/core/services/auth"
)

const (
	ADMIN_TOKEN_HEADER  = "x-auth-token"
	ADMIN_TOKEN_MAX_LEN = 8192
)

func ParseAdminToken(r *http.Request) (adminToken identity.AdminToken, ok bool) {
	header := r.Header.Get(ADMIN_TOKEN_HEADER)
	if header == "" {
		return adminToken, false
	}
	if len(header) > ADMIN_TOKEN_MAX_LEN {
		return adminToken, false
	}
	return identity.AdminToken(header), true
}

func SetAdminTokenToContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		adminToken, ok := ParseAdminToken(r)
		if ok {
			r = r.WithContext(auth.ContextWithAdminToken(r.Context(), adminToken))
		}
		next.ServeHTTP(w, r)
	})
}
