package bot

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"gitlab.com/yelinaung/cashpilot-bot/internal/bot/mocks"
	"gitlab.com/yelinaung/cashpilot-bot/internal/cashpilot"
	"gitlab.com/yelinaung/cashpilot-bot/internal/config"
	"gitlab.com/yelinaung/cashpilot-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/cashpilot-bot/internal/models"
	"gitlab.com/yelinaung/cashpilot-bot/internal/repository"
)

const (
	testChatID     = int64(12345)
	testUserID     = int64(777)
	testBusinessID = "550e8400-e29b-41d4-a716-446655440000"
	testSessionID  = "session-uuid-123"
)

func TestMain(m *testing.M) {
	logger.InitHashSaltForTesting("test-salt-for-unit-tests-minimum-32-chars")
	os.Exit(m.Run())
}

// fakeAPI is a scriptable cashpilot.API. Unset funcs return zero values.
type fakeAPI struct {
	mu sync.Mutex

	openFn     func(req cashpilot.OpenSessionRequest) (*appmodels.CashSession, error)
	closeFn    func(id string, req cashpilot.CloseSessionRequest) (*appmodels.CashSession, error)
	getFn      func(id string) (*appmodels.CashSession, error)
	listFn     func(params cashpilot.ListSessionsParams) ([]appmodels.CashSession, error)
	businessFn func(id string) (*appmodels.Business, error)

	openRequests  []cashpilot.OpenSessionRequest
	closeRequests []cashpilot.CloseSessionRequest
	closedIDs     []string
	listParams    []cashpilot.ListSessionsParams
	businessCalls []string
	invalidated   []string
}

var _ cashpilot.API = (*fakeAPI)(nil)

func (f *fakeAPI) OpenCashSession(_ context.Context, req cashpilot.OpenSessionRequest) (*appmodels.CashSession, error) {
	f.mu.Lock()
	f.openRequests = append(f.openRequests, req)
	f.mu.Unlock()
	if f.openFn == nil {
		return &appmodels.CashSession{}, nil
	}
	return f.openFn(req)
}

func (f *fakeAPI) CloseCashSession(_ context.Context, id string, req cashpilot.CloseSessionRequest) (*appmodels.CashSession, error) {
	f.mu.Lock()
	f.closedIDs = append(f.closedIDs, id)
	f.closeRequests = append(f.closeRequests, req)
	f.mu.Unlock()
	if f.closeFn == nil {
		return &appmodels.CashSession{}, nil
	}
	return f.closeFn(id, req)
}

func (f *fakeAPI) GetSession(_ context.Context, id string) (*appmodels.CashSession, error) {
	if f.getFn == nil {
		return &appmodels.CashSession{ID: id}, nil
	}
	return f.getFn(id)
}

func (f *fakeAPI) ListSessions(_ context.Context, params cashpilot.ListSessionsParams) ([]appmodels.CashSession, error) {
	f.mu.Lock()
	f.listParams = append(f.listParams, params)
	f.mu.Unlock()
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(params)
}

func (f *fakeAPI) GetBusiness(_ context.Context, id string) (*appmodels.Business, error) {
	f.mu.Lock()
	f.businessCalls = append(f.businessCalls, id)
	f.mu.Unlock()
	if f.businessFn == nil {
		return &appmodels.Business{ID: id, Name: "Farmacia Central", IsActive: true}, nil
	}
	return f.businessFn(id)
}

func (f *fakeAPI) Invalidate(id string) {
	f.mu.Lock()
	f.invalidated = append(f.invalidated, id)
	f.mu.Unlock()
}

func (f *fakeAPI) HealthCheck(context.Context) (*appmodels.Health, error) {
	return &appmodels.Health{Status: "healthy"}, nil
}

// fakeLimiter returns a fixed answer from Allow.
type fakeLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (l *fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allowed, l.err
}

// setupTestBot creates a Bot wired to in-memory fakes and a MockBot sender.
func setupTestBot(t *testing.T, api *fakeAPI) (*Bot, *repository.MemoryUserRepository, *mocks.MockBot) {
	t.Helper()
	if api == nil {
		api = &fakeAPI{}
	}
	users := repository.NewMemoryUserRepository()
	mockBot := mocks.NewMockBot()

	b := &Bot{
		cfg: &config.Config{
			TelegramToken:    "test-token",
			CashPilotAPIURL:  "http://localhost:8000",
			ReminderCron:     "0 21 * * *",
			ReminderTimezone: "America/Asuncion",
		},
		users:         users,
		api:           api,
		messageSender: mockBot,
		tracer:        noop.NewTracerProvider().Tracer("test"),
		now: func() time.Time {
			return time.Date(2025, 11, 3, 18, 0, 0, 0, time.UTC)
		},
	}

	return b, users, mockBot
}

// seedUser stores a user with the given branch and open session.
func seedUser(t *testing.T, users repository.UserStore, businessID, sessionID string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, users.UpsertProfile(ctx, &appmodels.User{ID: testUserID, FirstName: "María"}))
	if businessID != "" {
		require.NoError(t, users.SetBusiness(ctx, testUserID, businessID, "Farmacia Central"))
	}
	if sessionID != "" {
		require.NoError(t, users.SetOpenSession(ctx, testUserID, sessionID))
	}
}

// commandUpdate builds a text update from the test user.
func commandUpdate(text string) *models.Update {
	return mocks.NewUpdateBuilder().
		WithMessage(testChatID, testUserID, text).
		WithFrom(testUserID, "maria", "María", "").
		Build()
}

// mustParseDecimal parses a decimal string or panics (for test data).
func mustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic("invalid decimal in test: " + s)
	}
	return d
}

func mustTimestamp(s string) appmodels.Timestamp {
	ts, err := appmodels.ParseTimestamp(s)
	if err != nil {
		panic("invalid timestamp in test: " + s)
	}
	return ts
}

func openSession(id string) *appmodels.CashSession {
	return &appmodels.CashSession{
		ID:          id,
		BusinessID:  testBusinessID,
		Status:      appmodels.SessionStatusOpen,
		CashierName: "María",
		InitialCash: mustParseDecimal("500000.00"),
		OpenedAt:    mustTimestamp("2025-11-03T08:00:00"),
	}
}

func closedSession(id, difference string) *appmodels.CashSession {
	s := openSession(id)
	s.Status = appmodels.SessionStatusClosed
	s.FinalCash = decimal.NewNullDecimal(mustParseDecimal("1200000.00"))
	s.EnvelopeAmount = mustParseDecimal("300000.00")
	s.CashSales = mustParseDecimal("1000000.00")
	s.TotalSales = mustParseDecimal("2400000.00")
	s.Difference = decimal.NewNullDecimal(mustParseDecimal(difference))
	s.ClosedAt = mustTimestamp("2025-11-03T16:00:00")
	return s
}

// ascendingSessions returns n closed sessions opened one day apart, oldest
// first, starting on 2025-11-01.
func ascendingSessions(n int) []appmodels.CashSession {
	start := time.Date(2025, 11, 1, 8, 0, 0, 0, time.UTC)
	sessions := make([]appmodels.CashSession, 0, n)
	for i := range n {
		s := closedSession(fmt.Sprintf("s-%02d", i+1), "0")
		s.OpenedAt = mustTimestamp(start.AddDate(0, 0, i).Format("2006-01-02T15:04:05"))
		sessions = append(sessions, *s)
	}
	return sessions
}
