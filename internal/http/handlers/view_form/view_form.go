package viewform

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"setpass/internal/core/domain/token"
	"setpass/internal/http/handlers/response"
)

//go:embed templates/password_form.html
var templates embed.FS

var passwordForm = template.Must(template.ParseFS(templates, "templates/password_form.html"))

type formData struct {
	Token         string
	IsPinRequired bool
	PinLength     int
}

type Handler struct {
	isPinRequired bool
}

func New(isPinRequired bool) *Handler {
	return &Handler{isPinRequired: isPinRequired}
}

// ServeHTTP renders the form without looking the token up; an unknown token
// is reported on submission.
func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	t := r.URL.Query().Get("token")
	if t == "" {
		response.RenderText(rw, "Token not found", http.StatusNotFound)
		return
	}

	var content bytes.Buffer
	err := passwordForm.Execute(&content, formData{
		Token:         t,
		IsPinRequired: h.isPinRequired,
		PinLength:     token.PinLength,
	})
	if err != nil {
		response.RenderInternalError(rw)
		return
	}

	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw.WriteHeader(http.StatusOK)
	rw.Write(content.Bytes())
}
