package apiclient

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrTokenInvalid matches responses that reject the bearer token.
	ErrTokenInvalid = errors.New("token not valid")
	// ErrUnreachable wraps transport failures (DNS, refused, timeout).
	ErrUnreachable = errors.New("backend unreachable")
	// ErrNoSession is returned before any request when an authenticated
	// call has no token to send.
	ErrNoSession = errors.New("no authenticated session")

	ErrInvalidInput = errors.New("invalid input")
)

const codeTokenNotValid = "token_not_valid"

// APIError is a non-2xx backend response. Message is what the backend
// said, suitable for showing as-is.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Is(target error) bool {
	if target == ErrTokenInvalid {
		return e.Status == http.StatusUnauthorized || e.Code == codeTokenNotValid
	}
	return false
}

// parseAPIError extracts a message from the body shapes seen in the
// backend: {"error":"..."}, {"detail":"...","code":"..."} and
// {"error":{"code":"...","message":"..."}}.
func parseAPIError(status int, body []byte, fallback string) *APIError {
	apiErr := &APIError{Status: status}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err == nil {
		if raw, ok := fields["error"]; ok {
			var message string
			if json.Unmarshal(raw, &message) == nil {
				apiErr.Message = message
			} else {
				var nested struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				}
				if json.Unmarshal(raw, &nested) == nil {
					apiErr.Code = nested.Code
					apiErr.Message = nested.Message
				}
			}
		}
		if apiErr.Message == "" {
			if raw, ok := fields["detail"]; ok {
				_ = json.Unmarshal(raw, &apiErr.Message)
			}
		}
		if raw, ok := fields["code"]; ok && apiErr.Code == "" {
			_ = json.Unmarshal(raw, &apiErr.Code)
		}
	}

	apiErr.Message = strings.TrimSpace(apiErr.Message)
	if apiErr.Message == "" {
		apiErr.Message = fallback
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
