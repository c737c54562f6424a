package cashpilot

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAPIError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		wantCode    string
		wantMessage string
	}{
		{
			name:        "message and code from body",
			status:      http.StatusConflict,
			body:        `{"code":"CONFLICT","message":"Session already open"}`,
			wantCode:    CodeConflict,
			wantMessage: "Session already open",
		},
		{
			name:        "detail when message missing",
			status:      http.StatusNotFound,
			body:        `{"detail":"Business not found"}`,
			wantCode:    CodeNotFound,
			wantMessage: "Business not found",
		},
		{
			name:        "message wins over detail",
			status:      http.StatusBadRequest,
			body:        `{"message":"primary","detail":"secondary"}`,
			wantCode:    CodeUnknown,
			wantMessage: "primary",
		},
		{
			name:        "structured detail is rendered as json",
			status:      http.StatusUnprocessableEntity,
			body:        `{"detail":[{"loc":["body","initial_cash"],"msg":"field required"}]}`,
			wantCode:    CodeValidation,
			wantMessage: `[{"loc":["body","initial_cash"],"msg":"field required"}]`,
		},
		{
			name:        "raw body when no known keys",
			status:      http.StatusBadRequest,
			body:        `{"error":"boom"}`,
			wantCode:    CodeUnknown,
			wantMessage: `{"error":"boom"}`,
		},
		{
			name:        "plain text body",
			status:      http.StatusBadGateway,
			body:        "upstream down\n",
			wantCode:    CodeUnknown,
			wantMessage: "upstream down",
		},
		{
			name:        "empty body falls back to status text",
			status:      http.StatusInternalServerError,
			body:        "",
			wantCode:    CodeUnknown,
			wantMessage: "Internal Server Error",
		},
		{
			name:        "backend code overrides status code",
			status:      http.StatusBadRequest,
			body:        `{"code":"INVALID_STATE","detail":"closed"}`,
			wantCode:    CodeInvalidState,
			wantMessage: "closed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := newAPIError(tt.status, []byte(tt.body))
			require.Equal(t, tt.status, err.Status)
			require.Equal(t, tt.wantCode, err.Code)
			require.Equal(t, tt.wantMessage, err.Message)
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	t.Parallel()

	err := &APIError{Status: 409, Message: "Session already open", Code: CodeConflict}
	require.Equal(t, "[CONFLICT] Session already open", err.Error())
}

func TestIsCode(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("open: %w", &APIError{Status: 404, Code: CodeNotFound})
	require.True(t, IsCode(wrapped, CodeNotFound))
	require.False(t, IsCode(wrapped, CodeConflict))
	require.False(t, IsCode(errors.New("plain"), CodeNotFound))
	require.False(t, IsCode(nil, CodeNotFound))
}

func TestConnectionError(t *testing.T) {
	t.Parallel()

	err := connectionError(errors.New("dial tcp: refused"))
	require.Equal(t, 0, err.Status)
	require.Equal(t, CodeConnection, err.Code)
	require.Equal(t, "Connection failed: dial tcp: refused", err.Message)
}
