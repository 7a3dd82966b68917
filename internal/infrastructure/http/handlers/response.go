package handlers

import (
	"encoding/json"
	"net/http"
)

type envelope struct {
	Success bool              `json:"success"`
	Error   string            `json:"error,omitempty"`
	Code    string            `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// writeErr sends { "success": false, "error": message, "code": errCode }. If errCode is empty, a default is used from code.
func writeErr(w http.ResponseWriter, code int, errCode string, message string) {
	writeErrFields(w, code, errCode, message, nil)
}

func writeErrFields(w http.ResponseWriter, code int, errCode, message string, fields map[string]string) {
	if errCode == "" {
		errCode = defaultErrCode(code)
	}
	writeJSON(w, code, envelope{Success: false, Error: message, Code: errCode, Fields: fields})
}

func defaultErrCode(httpCode int) string {
	switch httpCode {
	case http.StatusBadRequest:
		return ErrCodeInvalidRequest
	case http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusConflict:
		return ErrCodeEmailTaken
	case http.StatusTooManyRequests:
		return ErrCodeAccountLocked
	case http.StatusServiceUnavailable:
		return ErrCodeBusy
	default:
		return ErrCodeInternal
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
