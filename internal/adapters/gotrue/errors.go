package gotrue

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/target/prestataires-ui/internal/adapters/identity"
)

// APIError is a non-2xx response from the identity API.
// It unwraps to one of the identity sentinels when the failure is recognised.
type APIError struct {
	Status  int
	Code    string
	Message string
	kind    error
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gotrue: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("gotrue: %d: %s", e.Status, e.Message)
}

// Unwrap returns the matching identity sentinel, if any.
func (e *APIError) Unwrap() error { return e.kind }

// errorBody covers the error shapes GoTrue has used across versions.
type errorBody struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func decodeAPIError(status int, body []byte) *APIError {
	var b errorBody
	_ = json.Unmarshal(body, &b)

	e := &APIError{Status: status}
	e.Code = firstNonEmpty(b.ErrorCode, codeString(b.Code), b.Error)
	e.Message = firstNonEmpty(b.Msg, b.Message, b.ErrorDescription, strings.TrimSpace(string(body)), http.StatusText(status))
	e.kind = classify(status, e.Code, e.Message)
	return e
}

func classify(status int, code, message string) error {
	msg := strings.ToLower(message)
	switch {
	case status == http.StatusTooManyRequests || (strings.HasPrefix(code, "over_") && strings.HasSuffix(code, "rate_limit")):
		return identity.ErrRateLimited
	case code == "user_already_exists" || code == "email_exists" || strings.Contains(msg, "already registered"):
		return identity.ErrUserExists
	case code == "email_not_confirmed" || strings.Contains(msg, "email not confirmed"):
		return identity.ErrEmailNotConfirmed
	case code == "weak_password" || strings.Contains(msg, "password should be"):
		return identity.ErrWeakPassword
	case code == "email_address_invalid" || (code == "validation_failed" && strings.Contains(msg, "email")):
		return identity.ErrInvalidEmail
	case code == "refresh_token_not_found" || code == "refresh_token_already_used" ||
		strings.Contains(msg, "invalid refresh token"):
		return identity.ErrInvalidRefreshToken
	case code == "session_not_found" || (status == http.StatusUnauthorized && strings.Contains(msg, "session")):
		return identity.ErrSessionNotFound
	case code == "invalid_credentials" || code == "invalid_grant" || strings.Contains(msg, "invalid login credentials"):
		return identity.ErrInvalidCredentials
	default:
		return nil
	}
}

func codeString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
