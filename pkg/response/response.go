// Package response writes the JSON bodies shared by every handler.
package response

import (
	"encoding/json"
	"net/http"
	"notevault/pkg/apperror"
	"notevault/pkg/logger"
)

type Message struct {
	Msg string `json:"msg"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Sugar.Errorf("Failed to encode response: %v", err)
	}
}

// Error maps err to its status code and writes {"msg": ...}. Causes of
// internal errors are logged, not returned.
func Error(w http.ResponseWriter, err error) {
	status := apperror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Sugar.Errorf("Request failed: %v", err)
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="notevault"`)
	}
	JSON(w, status, Message{Msg: apperror.Message(err)})
}
