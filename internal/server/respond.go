package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/TobiSchelling/gtmcraft/internal/craft"
	"github.com/TobiSchelling/gtmcraft/internal/drafts"
	"github.com/TobiSchelling/gtmcraft/internal/fetch"
	"github.com/TobiSchelling/gtmcraft/internal/llm"
	"github.com/TobiSchelling/gtmcraft/internal/prompt"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Warnf("Encoding response failed: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var (
		verr    *prompt.ValidationError
		genErr  *llm.GenerationError
		persist *craft.PersistenceError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, craft.ErrBusy):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.As(err, &genErr):
		status := http.StatusBadGateway
		if genErr.Reason == llm.ReasonNotConfigured {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, errorBody{Error: err.Error(), Reason: string(genErr.Reason)})
	case errors.Is(err, prompt.ErrUnknownKind):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, fetch.ErrUnsupportedDocument):
		writeMessage(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, drafts.ErrCorrupt):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.As(err, &persist):
		zap.S().Errorf("Persistence failure: %v", err)
		writeMessage(w, http.StatusInternalServerError, "could not save changes")
	default:
		zap.S().Errorf("Request failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads a JSON request body into dst, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
