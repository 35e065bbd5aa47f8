package response

import (
	"encoding/json"
	"net/http"
)

// Payload holds the extra top-level keys written next to error and message.
type Payload map[string]interface{}

func JSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func envelope(failed bool, message string, payload Payload) map[string]interface{} {
	body := make(map[string]interface{}, len(payload)+2)
	for k, v := range payload {
		body[k] = v
	}
	body["error"] = failed
	body["message"] = message
	return body
}

func Success(w http.ResponseWriter, message string, payload Payload) {
	JSON(w, http.StatusOK, envelope(false, message, payload))
}

func Error(w http.ResponseWriter, statusCode int, message string) {
	JSON(w, statusCode, envelope(true, message, nil))
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message)
}

func Forbidden(w http.ResponseWriter, message string) {
	Error(w, http.StatusForbidden, message)
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

func InternalError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, "Internal server error")
}
