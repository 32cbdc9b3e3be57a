package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/nguyensondev/epass-web/epass"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

// writeEpassError maps the operator-client error taxonomy onto HTTP
// statuses. Auth-class failures carry a needsRelink flag so the UI can
// prompt for re-linking the operator account instead of showing a
// generic failure.
func writeEpassError(w http.ResponseWriter, err error) {
	var upstream *epass.UpstreamError

	switch {
	case errors.Is(err, epass.ErrTokenNotConfigured):
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, epass.ErrAuthentication):
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":       "ePass authentication failed, please re-link the operator account",
			"needsRelink": true,
		})
	case errors.As(err, &upstream):
		writeJSONError(w, http.StatusBadGateway, upstream.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}
