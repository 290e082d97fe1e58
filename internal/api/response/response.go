package response

import (
	"encoding/json"
	"net/http"
)

type Response struct {
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

type ResponseError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

const (
	CodeBadRequest      = "bad_request"
	CodeNotFound        = "not_found"
	CodePayloadTooLarge = "payload_too_large"
	CodeTooManyRequests = "too_many_requests"
	CodeUnavailable     = "unavailable"
	CodeInternal        = "internal_error"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func SuccessJSON(w http.ResponseWriter, data any, message string) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Message: message})
}

func ErrorJSON(w http.ResponseWriter, status int, code string, message string) {
	WriteJSON(w, status, ResponseError{Error: message, Code: code})
}
