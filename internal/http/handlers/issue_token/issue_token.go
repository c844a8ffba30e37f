package issuetoken

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	c "setpass/internal/core/domain/common"
	e "setpass/internal/core/domain/errors"
	"setpass/internal/core/domain/identity"
	"setpass/internal/core/domain/token"
	"setpass/internal/core/services"
	"setpass/internal/core/services/auth"
	issuetoken "setpass/internal/core/services/issue_token"
	"setpass/internal/http/handlers/response"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	IDENTITY_URL_PARAM = "identity"
	MAX_BODY_BYTES     = 64 * 1024
)

type Handler struct {
	service services.Service[issuetoken.Input, issuetoken.Result]
}

func New(
	service services.Service[issuetoken.Input, issuetoken.Result],
) *Handler {
	if service == nil {
		panic(e.NewNilArgumentError("service"))
	}
	return &Handler{service: service}
}

type Input struct {
	Identity string             `json:"-"`
	Pin      *token.Pin         `json:"pin"`
	Password *token.RawPassword `json:"password"`
}

// FromJSON accepts an empty body, which rotates the token of an existing
// record and leaves everything else untouched.
func (i *Input) FromJSON(r io.Reader) error {
	err := json.NewDecoder(r).Decode(i)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (i Input) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Identity, validation.Required, validation.Length(1, 64)),
		validation.Field(&i.Pin, validation.NilOrNotEmpty, validation.RuneLength(token.PinLength, token.PinLength)),
		validation.Field(&i.Password, validation.NilOrNotEmpty, validation.Length(1, 1024)),
	)
}

func validationMessage(err error) string {
	var errs validation.Errors
	if errors.As(err, &errs) {
		if _, ok := errs["pin"]; ok {
			return "Pin must be exactly 4 characters"
		}
	}
	return "Invalid identity/pin/password!"
}

func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	input := Input{}
	if err := input.FromJSON(http.MaxBytesReader(rw, r.Body, MAX_BODY_BYTES)); err != nil {
		response.RenderText(rw, "Invalid request data", http.StatusBadRequest)
		return
	}
	input.Identity = chi.URLParam(r, IDENTITY_URL_PARAM)
	if err := input.Validate(); err != nil {
		response.RenderText(rw, validationMessage(err), http.StatusBadRequest)
		return
	}

	result, err := h.service.Run(
		r.Context(),
		issuetoken.Input{
			Identity: token.Identity(input.Identity),
			Pin:      c.OptionalFromPointer(input.Pin),
			Password: c.OptionalFromPointer(input.Password),
		},
	)
	var providerErr *identity.ProviderError
	switch {
	case err == nil:
		response.RenderText(rw, string(result.Token), http.StatusOK)
	case errors.Is(err, auth.ErrUnauthorized):
		response.RenderText(rw, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrForbidden):
		response.RenderText(rw, "Forbidden", http.StatusForbidden)
	case errors.Is(err, token.ErrMissingFields):
		response.RenderText(rw, "Missing pin/password!", http.StatusBadRequest)
	case errors.Is(err, token.ErrInvalidPin):
		response.RenderText(rw, "Pin must be exactly 4 characters", http.StatusBadRequest)
	case errors.As(err, &providerErr):
		response.RenderText(rw, providerErr.Message, http.StatusInternalServerError)
	default:
		response.RenderInternalError(rw)
	}
}
