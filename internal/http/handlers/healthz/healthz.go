package healthz

import (
	"context"
	"net/http"
	e "setpass/internal/core/domain/errors"
	"setpass/internal/core/domain/logging"
	"setpass/internal/http/handlers/response"
	"time"
)

const PING_TIMEOUT = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	log    logging.Logger
	pinger Pinger
}

func New(log logging.Logger, pinger Pinger) *Handler {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if pinger == nil {
		panic(e.NewNilArgumentError("pinger"))
	}
	return &Handler{log: log, pinger: pinger}
}

func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), PING_TIMEOUT)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		h.log.Error(ctx, "Health check failed.", logging.Entry("err", err))
		response.RenderText(rw, "Unavailable", http.StatusServiceUnavailable)
		return
	}
	response.RenderText(rw, "OK", http.StatusOK)
}
