package cashpilot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionJSON = `{
	"id": "session-uuid-123",
	"business_id": "biz-uuid-123",
	"status": "OPEN",
	"cashier_name": "María López",
	"initial_cash": "500000.00",
	"opened_at": "2025-11-03T08:00:00"
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{WithTimeout(time.Second), WithRetryInterval(time.Millisecond)}, opts...)
	return NewClient(server.URL+"/", "", opts...)
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	client := NewClient("http://localhost:8000/ ", "key")
	require.Equal(t, "http://localhost:8000", client.baseURL)
	require.Equal(t, defaultTimeout, client.httpClient.Timeout)
	require.Equal(t, uint64(defaultMaxRetries), client.maxRetries)

	client = NewClient("http://localhost:8000", "", WithTimeout(3*time.Second), WithMaxRetries(0))
	require.Equal(t, 3*time.Second, client.httpClient.Timeout)
	require.Zero(t, client.maxRetries)
}

func TestClient_Headers(t *testing.T) {
	t.Parallel()

	t.Run("sends bearer token when configured", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			_, _ = w.Write([]byte(`{"status":"ok","version":"1.2.0"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "secret")
		health, err := client.HealthCheck(context.Background())
		require.NoError(t, err)
		require.Equal(t, "ok", health.Status)
		require.Equal(t, "1.2.0", health.Version)
	})

	t.Run("omits authorization without key", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})

		_, err := client.HealthCheck(context.Background())
		require.NoError(t, err)
	})
}

func TestClient_OpenCashSession(t *testing.T) {
	t.Parallel()

	t.Run("posts payload and decodes session", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/cash-sessions", r.URL.Path)

			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "biz-uuid-123", body["business_id"])
			assert.Equal(t, "María López", body["cashier_name"])
			assert.Equal(t, "500000", body["initial_cash"])
			assert.Contains(t, body, "shift_hours")
			assert.Nil(t, body["shift_hours"])

			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(sessionJSON))
		})

		session, err := client.OpenCashSession(context.Background(), OpenSessionRequest{
			BusinessID:  "biz-uuid-123",
			CashierName: "María López",
			InitialCash: decimal.RequireFromString("500000"),
		})
		require.NoError(t, err)
		require.Equal(t, "session-uuid-123", session.ID)
		require.True(t, session.IsOpen())
		require.Equal(t, "08:00", session.OpenedAt.Clock())
	})

	t.Run("sends shift hours when set", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "08:00-16:00", body["shift_hours"])
			_, _ = w.Write([]byte(sessionJSON))
		})

		_, err := client.OpenCashSession(context.Background(), OpenSessionRequest{
			BusinessID:  "biz",
			CashierName: "Ana",
			InitialCash: decimal.NewFromInt(1),
			ShiftHours:  "08:00-16:00",
		})
		require.NoError(t, err)
	})

	t.Run("rejects invalid request before sending", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
		})

		_, err := client.OpenCashSession(context.Background(), OpenSessionRequest{
			BusinessID:  "biz",
			CashierName: "Ana",
			InitialCash: decimal.Zero,
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid open session request")
		require.Zero(t, calls.Load())
	})

	t.Run("conflict is not retried", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"code":"CONFLICT","message":"Session already open"}`))
		})

		_, err := client.OpenCashSession(context.Background(), OpenSessionRequest{
			BusinessID:  "biz",
			CashierName: "Ana",
			InitialCash: decimal.NewFromInt(100),
		})
		require.True(t, IsCode(err, CodeConflict))
		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("server errors on POST are not retried", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := client.OpenCashSession(context.Background(), OpenSessionRequest{
			BusinessID:  "biz",
			CashierName: "Ana",
			InitialCash: decimal.NewFromInt(100),
		})
		require.Error(t, err)
		require.Equal(t, int32(1), calls.Load())
	})
}

func TestClient_CloseCashSession(t *testing.T) {
	t.Parallel()

	t.Run("puts amounts as strings", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/cash-sessions/session-uuid-123", r.URL.Path)

			raw, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{
				"final_cash": "1200000",
				"envelope_amount": "300000",
				"credit_card_total": "800000",
				"debit_card_total": "0",
				"bank_transfer_total": "0",
				"closing_ticket": null,
				"notes": null
			}`, string(raw))

			_, _ = w.Write([]byte(`{
				"id": "session-uuid-123",
				"status": "CLOSED",
				"final_cash": "1200000.00",
				"cash_sales": "1000000.00",
				"total_sales": "2400000.00",
				"difference": "0.00",
				"closed_at": "2025-11-03T16:00:00"
			}`))
		})

		session, err := client.CloseCashSession(context.Background(), "session-uuid-123", CloseSessionRequest{
			FinalCash:       decimal.RequireFromString("1200000"),
			EnvelopeAmount:  decimal.RequireFromString("300000"),
			CreditCardTotal: decimal.RequireFromString("800000"),
		})
		require.NoError(t, err)
		require.False(t, session.IsOpen())
		require.True(t, session.DifferenceOrZero().IsZero())
		require.Equal(t, "16:00", session.ClosedAt.Clock())
	})

	t.Run("requires session id", func(t *testing.T) {
		t.Parallel()
		client := NewClient("http://localhost:0", "")
		_, err := client.CloseCashSession(context.Background(), "", CloseSessionRequest{FinalCash: decimal.NewFromInt(1)})
		require.Error(t, err)
	})

	t.Run("rejects negative envelope", func(t *testing.T) {
		t.Parallel()
		client := NewClient("http://localhost:0", "")
		_, err := client.CloseCashSession(context.Background(), "s1", CloseSessionRequest{
			FinalCash:      decimal.NewFromInt(1),
			EnvelopeAmount: decimal.NewFromInt(-1),
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid close session request")
	})

	t.Run("invalid state surfaces backend code", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"INVALID_STATE","message":"Session is not open"}`))
		})

		_, err := client.CloseCashSession(context.Background(), "s1", CloseSessionRequest{FinalCash: decimal.NewFromInt(1)})
		apiErr, ok := AsAPIError(err)
		require.True(t, ok)
		require.Equal(t, http.StatusBadRequest, apiErr.Status)
		require.Equal(t, CodeInvalidState, apiErr.Code)
		require.Equal(t, "Session is not open", apiErr.Message)
	})
}

func TestClient_GetSession(t *testing.T) {
	t.Parallel()

	t.Run("escapes id in path", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/cash-sessions/a%2Fb", r.URL.EscapedPath())
			_, _ = w.Write([]byte(sessionJSON))
		})

		_, err := client.GetSession(context.Background(), "a/b")
		require.NoError(t, err)
	})

	t.Run("not found derives code from status", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Cash session not found"}`))
		})

		_, err := client.GetSession(context.Background(), "missing")
		apiErr, ok := AsAPIError(err)
		require.True(t, ok)
		require.Equal(t, CodeNotFound, apiErr.Code)
		require.Equal(t, "Cash session not found", apiErr.Message)
	})

	t.Run("retries server errors then succeeds", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte(sessionJSON))
		})

		session, err := client.GetSession(context.Background(), "session-uuid-123")
		require.NoError(t, err)
		require.Equal(t, "session-uuid-123", session.ID)
		require.Equal(t, int32(3), calls.Load())
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}, WithMaxRetries(2))

		_, err := client.GetSession(context.Background(), "s1")
		apiErr, ok := AsAPIError(err)
		require.True(t, ok)
		require.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
		require.Equal(t, "Service Unavailable", apiErr.Message)
		require.Equal(t, int32(3), calls.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := client.GetSession(context.Background(), "s1")
		require.True(t, IsCode(err, CodeNotFound))
		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("malformed body is a decode error", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{not json`))
		})

		_, err := client.GetSession(context.Background(), "s1")
		require.Error(t, err)
		_, isAPI := AsAPIError(err)
		require.False(t, isAPI)
		require.Contains(t, err.Error(), "failed to decode get_session response")
	})
}

func TestClient_ListSessions(t *testing.T) {
	t.Parallel()

	t.Run("applies default limit and business filter", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/cash-sessions", r.URL.Path)
			q := r.URL.Query()
			assert.Equal(t, "biz-1", q.Get("business_id"))
			assert.Equal(t, "0", q.Get("skip"))
			assert.Equal(t, "50", q.Get("limit"))
			_, _ = w.Write([]byte(`[` + sessionJSON + `,` + sessionJSON + `]`))
		})

		sessions, err := client.ListSessions(context.Background(), ListSessionsParams{BusinessID: "biz-1"})
		require.NoError(t, err)
		require.Len(t, sessions, 2)
	})

	t.Run("omits empty business filter", func(t *testing.T) {
		t.Parallel()
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.False(t, r.URL.Query().Has("business_id"))
			assert.Equal(t, "10", r.URL.Query().Get("skip"))
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			_, _ = w.Write([]byte(`[]`))
		})

		sessions, err := client.ListSessions(context.Background(), ListSessionsParams{Skip: 10, Limit: 5})
		require.NoError(t, err)
		require.Empty(t, sessions)
	})

	t.Run("rejects negative skip", func(t *testing.T) {
		t.Parallel()
		client := NewClient("http://localhost:0", "")
		_, err := client.ListSessions(context.Background(), ListSessionsParams{Skip: -1})
		require.Error(t, err)
	})
}

func TestClient_GetBusiness(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/businesses/biz-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"biz-1","name":"Farmacia Central","address":"Av. España 123","phone":"021 555 000","is_active":true}`))
	})

	business, err := client.GetBusiness(context.Background(), "biz-1")
	require.NoError(t, err)
	require.Equal(t, "Farmacia Central", business.Name)
	require.Equal(t, "Av. España 123", business.Address)
	require.True(t, business.IsActive)

	_, err = client.GetBusiness(context.Background(), "")
	require.Error(t, err)
}

func TestClient_ConnectionError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(url, "", WithMaxRetries(1), WithRetryInterval(time.Millisecond))
	_, err := client.HealthCheck(context.Background())

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	require.Equal(t, 0, apiErr.Status)
	require.Equal(t, CodeConnection, apiErr.Code)
	require.Contains(t, apiErr.Message, "Connection failed:")
}

func TestClient_ContextCanceled(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetSession(ctx, "s1")
	require.Error(t, err)
}
