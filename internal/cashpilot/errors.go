package cashpilot

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error codes reported by the backend or derived from the HTTP status.
const (
	CodeUnknown      = "UNKNOWN_ERROR"
	CodeConnection   = "CONNECTION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidState = "INVALID_STATE"
)

// APIError is returned when the CashPilot API rejects a request or cannot be
// reached. Status is 0 for transport failures.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// IsCode reports whether err is an APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// AsAPIError extracts an APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func connectionError(err error) *APIError {
	return &APIError{
		Status:  0,
		Message: "Connection failed: " + err.Error(),
		Code:    CodeConnection,
	}
}

// newAPIError builds an APIError from a failed response body. The message is
// taken from "message", then "detail", then the raw body.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Code: codeForStatus(status)}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil && payload != nil {
		if code, ok := payload["code"].(string); ok && code != "" {
			apiErr.Code = code
		}
		switch {
		case payload["message"] != nil:
			apiErr.Message = stringify(payload["message"])
		case payload["detail"] != nil:
			apiErr.Message = stringify(payload["detail"])
		default:
			apiErr.Message = strings.TrimSpace(string(body))
		}
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusUnprocessableEntity:
		return CodeValidation
	default:
		return CodeUnknown
	}
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
