package httpapi

import (
	"net/http"

	"github.com/noliahq/noliad/internal/httperr"
)

type errorEnvelope struct {
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
}

// writeError maps a typed error to its status and envelope. Unclassified
// errors become 500; in production their message is replaced so internals
// never leak.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	he := httperr.From(err)
	message := he.Message
	if he.Status == http.StatusInternalServerError {
		s.Log.Error().Err(err).
			Str("requestId", requestIDFrom(r.Context())).
			Msg("internal error")
		if s.Env == "production" {
			message = "Internal Server Error"
		}
	}
	writeJSON(w, he.Status, errorEnvelope{
		Message:   message,
		RequestID: requestIDFrom(r.Context()),
	})
}
