package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"notes-server/internal/service"
	"notes-server/pkg/response"

	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("Invalid request body")

// decodeJSON reads a JSON object into v. An empty body decodes as {} so that
// missing fields are reported by validation instead.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errInvalidBody
	}
	return nil
}

// writeError maps service errors onto the response envelope. Business
// failures are 400s; anything else is logged and reported as a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		response.BadRequest(w, verr.Message)
	case errors.Is(err, errInvalidBody),
		errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrNoteNotFound):
		response.BadRequest(w, err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		response.InternalError(w)
	}
}
