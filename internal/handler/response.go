package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// validate is a singleton validator instance
var validate = validator.New()

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON", "error", err)
	}
}

func writeError(w http.ResponseWriter, msg string, statusCode int, details ...string) {
	writeJSON(w, ErrorResponse{Error: msg, Details: details}, statusCode)
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) []string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return []string{err.Error()}
	}

	details := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		switch e.Tag() {
		case "required":
			details = append(details, fmt.Sprintf("%s: field is required", e.Field()))
		default:
			details = append(details, fmt.Sprintf("%s: validation failed (%s)", e.Field(), e.Tag()))
		}
	}
	return details
}
