package middleware

import (
	"encoding/json"
	"net/http"
)

// errorBody is the wire shape from spec §6:
// {"error": {"code", "message", "details"?}}
type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details,omitempty"`
	} `json:"error"`
}

// WriteError serializes a ServiceError as the standard error body and sets
// the HTTP status from it.
func WriteError(w http.ResponseWriter, svcErr *ServiceError) {
	body := errorBody{}
	body.Error.Code = string(svcErr.Code)
	body.Error.Message = svcErr.Message
	body.Error.Details = svcErr.Details

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(svcErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteJSON serializes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
