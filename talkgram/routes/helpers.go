package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"talkgram/talkgram/controllers"
	"talkgram/talkgram/services/genai"
	"talkgram/talkgram/session"
	"talkgram/talkgram/utils/types"
)

// errInvalidBody covers malformed request payloads.
var errInvalidBody = errors.New("invalid request body")

// handleJSON wraps a handler returning (payload, status, error) to reduce
// boilerplate.
func handleJSON(handler func(r *http.Request) (any, int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, status, err := handler(r)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(res)
	}
}

// writeError maps the error taxonomy onto HTTP statuses. The SEM_CREDITO
// code is a front-end contract: the no-credit modal matches on it.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	resp := types.ErrorResponse{Error: err.Error()}

	var upstream *genai.UpstreamError
	switch {
	case errors.Is(err, errInvalidBody),
		errors.Is(err, controllers.ErrMissingUID),
		errors.Is(err, controllers.ErrEmptyMessage):
		status = http.StatusBadRequest
	case errors.Is(err, controllers.ErrInsufficientCredit):
		status = http.StatusPaymentRequired
		resp.Code = "SEM_CREDITO"
	case errors.Is(err, controllers.ErrNoActiveChat):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrAlreadySending),
		errors.Is(err, session.ErrCooldownActive):
		status = http.StatusTooManyRequests
	case errors.Is(err, session.ErrVersionConflict):
		status = http.StatusConflict
	case errors.Is(err, genai.ErrMissingAPIKey):
		status = http.StatusInternalServerError
		resp.Error = "generation service is not configured"
	case errors.As(err, &upstream):
		status = http.StatusBadGateway
		resp.Error = "generation provider failed"
		resp.Details = upstream.Body
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
