package gitlab

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is returned when GitLab answers with a non-2xx status.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gitlab %s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("gitlab %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Retryable reports whether a read that produced this error may succeed when
// repeated: rate limiting and server-side failures.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	return &APIError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Message:    extractMessage(body),
	}
}

// extractMessage pulls a human-readable message out of a GitLab response body.
// GitLab uses {"message": "..."} for most responses, {"message": {...}} for
// validation failures and {"error": "..."} for auth failures.
func extractMessage(body []byte) string {
	var envelope struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return strings.TrimSpace(string(body))
	}

	if len(envelope.Message) > 0 {
		var text string
		if err := json.Unmarshal(envelope.Message, &text); err == nil {
			return text
		}
		return string(envelope.Message)
	}
	return envelope.Error
}
