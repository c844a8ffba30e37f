package redeemtoken

import (
	"errors"
	"net/http"
	e "setpass/internal/core/domain/errors"
	"setpass/internal/core/domain/identity"
	"setpass/internal/core/domain/token"
	"setpass/internal/core/services"
	redeemtoken "setpass/internal/core/services/redeem_token"
	"setpass/internal/http/handlers/response"

	validation "github.com/go-ozzo/ozzo-validation"
)

const MAX_FORM_BYTES = 64 * 1024

type Handler struct {
	service       services.Service[redeemtoken.Input, redeemtoken.Result]
	isPinRequired bool
}

func New(
	service services.Service[redeemtoken.Input, redeemtoken.Result],
	isPinRequired bool,
) *Handler {
	if service == nil {
		panic(e.NewNilArgumentError("service"))
	}
	return &Handler{service: service, isPinRequired: isPinRequired}
}

type Input struct {
	Token    string
	Pin      string
	Password string

	isPinRequired bool
}

func (i *Input) FromRequest(r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return err
	}
	i.Token = r.URL.Query().Get("token")
	i.Pin = r.PostForm.Get("pin")
	i.Password = r.PostForm.Get("password")
	return nil
}

func (i Input) Validate() error {
	pinRules := []validation.Rule{}
	if i.isPinRequired {
		pinRules = append(pinRules, validation.Required)
	}
	return validation.ValidateStruct(&i,
		validation.Field(&i.Token, validation.Required),
		validation.Field(&i.Pin, pinRules...),
		validation.Field(&i.Password, validation.Required),
	)
}

func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(rw, r.Body, MAX_FORM_BYTES)
	input := Input{isPinRequired: h.isPinRequired}
	if err := input.FromRequest(r); err != nil {
		response.RenderText(rw, "Invalid form data", http.StatusBadRequest)
		return
	}
	if err := input.Validate(); err != nil {
		response.RenderText(rw, "Missing token/pin/password!", http.StatusBadRequest)
		return
	}

	_, err := h.service.Run(
		r.Context(),
		redeemtoken.Input{
			Token:       token.Token(input.Token),
			Pin:         token.Pin(input.Pin),
			NewPassword: token.RawPassword(input.Password),
		},
	)
	var providerErr *identity.ProviderError
	switch {
	case err == nil:
		response.RenderText(rw, "", http.StatusOK)
	case errors.Is(err, token.ErrMissingFields):
		response.RenderText(rw, "Missing token/pin/password!", http.StatusBadRequest)
	case errors.Is(err, token.ErrTokenNotFound):
		response.RenderText(rw, "Token not found", http.StatusNotFound)
	case errors.Is(err, token.ErrWrongPin):
		response.RenderText(rw, "Wrong pin", http.StatusForbidden)
	case errors.Is(err, token.ErrTokenExpired):
		response.RenderText(rw, "Token expired", http.StatusForbidden)
	case errors.As(err, &providerErr):
		response.RenderText(rw, providerErr.Message, http.StatusInternalServerError)
	default:
		response.RenderInternalError(rw)
	}
}
