package repository

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"gitlab.com/yelinaung/cashpilot-bot/internal/models"
)

// MemoryUserRepository keeps user state in process memory. State is lost on
// restart; use UserRepository when DATABASE_URL is configured.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[int64]models.User
	now   func() time.Time
}

// NewMemoryUserRepository creates an empty in-memory user store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[int64]models.User),
		now:   time.Now,
	}
}

// UpsertProfile creates or updates a user's Telegram profile.
func (r *MemoryUserRepository) UpsertProfile(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	existing, ok := r.users[user.ID]
	if !ok {
		existing = models.User{ID: user.ID, CreatedAt: now}
	}
	existing.Username = user.Username
	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.UpdatedAt = now
	r.users[user.ID] = existing
	return nil
}

// GetUser returns a copy of the stored user.
func (r *MemoryUserRepository) GetUser(_ context.Context, id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

// SetBusiness binds a user to a pharmacy branch.
func (r *MemoryUserRepository) SetBusiness(_ context.Context, userID int64, businessID, businessName string) error {
	return r.update(userID, ErrUserNotFound, func(u *models.User) {
		u.BusinessID = businessID
		u.BusinessName = businessName
	})
}

// SetOpenSession records the cash session the user currently has open.
func (r *MemoryUserRepository) SetOpenSession(_ context.Context, userID int64, sessionID string) error {
	return r.update(userID, nil, func(u *models.User) {
		u.OpenSessionID = sessionID
	})
}

// ClearOpenSession forgets the user's open cash session.
func (r *MemoryUserRepository) ClearOpenSession(_ context.Context, userID int64) error {
	return r.update(userID, nil, func(u *models.User) {
		u.OpenSessionID = ""
	})
}

// ListWithOpenSession returns users with an open session ordered by ID.
func (r *MemoryUserRepository) ListWithOpenSession(_ context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var users []models.User
	for _, u := range r.users {
		if u.HasOpenSession() {
			users = append(users, u)
		}
	}
	slices.SortFunc(users, func(a, b models.User) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return users, nil
}

// update applies fn to a stored user, returning missingErr when absent.
func (r *MemoryUserRepository) update(userID int64, missingErr error, fn func(*models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return missingErr
	}
	fn(&user)
	user.UpdatedAt = r.now()
	r.users[userID] = user
	return nil
}
