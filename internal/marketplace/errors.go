package marketplace

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Fallback when the provider returns something we cannot interpret. Surfaced
// verbatim on the pairing, hence user-facing wording.
const unknownErrorMsg = "Erro desconhecido ao processar a requisição."

// errorEnvelope covers both shapes the marketplace emits: field-level
// validation errors and a plain problem-details title.
type errorEnvelope struct {
	Errors  map[string][]string `json:"errors"`
	Type    string              `json:"type"`
	Title   string              `json:"title"`
	Status  int                 `json:"status"`
	TraceID string              `json:"traceId"`
}

// APIError is a non-2xx marketplace response normalized to a single
// human-readable message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

func newAPIError(statusCode int, body []byte) *APIError {
	return &APIError{StatusCode: statusCode, Message: normalizeErrorBody(body)}
}

func normalizeErrorBody(body []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return unknownErrorMsg
	}

	if len(env.Errors) > 0 {
		fields := make([]string, 0, len(env.Errors))
		for field := range env.Errors {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		parts := make([]string, 0, len(fields))
		for _, field := range fields {
			parts = append(parts, fmt.Sprintf("%s: %s", strings.ToUpper(field), strings.Join(env.Errors[field], ", ")))
		}
		return strings.Join(parts, "; ")
	}

	if env.Title != "" {
		return env.Title
	}
	return unknownErrorMsg
}
