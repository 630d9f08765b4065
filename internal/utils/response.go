package utils

import (
	"encoding/json"
	"net/http"

	"ms-meetup/internal/apperrors"
)

type ErrorBody struct {
	Error string `json:"error"`
}

type MessageBody struct {
	Message string `json:"message"`
}

// WriteJSON sets the content type, writes the status and encodes data.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func WriteError(w http.ResponseWriter, status int, message string) error {
	return WriteJSON(w, status, ErrorBody{Error: message})
}

func WriteMessage(w http.ResponseWriter, status int, message string) error {
	return WriteJSON(w, status, MessageBody{Message: message})
}

// WriteAppError maps err to its status and client message.
func WriteAppError(w http.ResponseWriter, err error) error {
	return WriteError(w, apperrors.HTTPStatus(err), apperrors.Message(err))
}
