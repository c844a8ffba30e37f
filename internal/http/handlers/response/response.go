package response

import (
	"net/http"
)

func RenderInternalError(rw http.ResponseWriter) {
	RenderText(rw, "Internal error", http.StatusInternalServerError)
}

// RenderText writes msg as the plain response body. An empty msg leaves the
// body empty.
func RenderText(rw http.ResponseWriter, msg string, status int) {
	rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
	rw.WriteHeader(status)
	if msg != "" {
		rw.Write([]byte(msg))
	}
}
