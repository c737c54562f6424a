package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/cashpilot-bot/internal/database"
	"gitlab.com/yelinaung/cashpilot-bot/internal/models"
)

const userColumns = `id, username, first_name, last_name, business_id, business_name,
	open_session_id, created_at, updated_at`

// UserRepository handles user database operations.
type UserRepository struct {
	db database.PGXDB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db database.PGXDB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertProfile creates or updates a user's Telegram profile.
func (r *UserRepository) UpsertProfile(ctx context.Context, user *models.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, username, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			updated_at = NOW()
	`, user.ID, user.Username, user.FirstName, user.LastName)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by their Telegram ID.
func (r *UserRepository) GetUser(ctx context.Context, id int64) (*models.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// SetBusiness binds a user to a pharmacy branch.
func (r *UserRepository) SetBusiness(ctx context.Context, userID int64, businessID, businessName string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET business_id = $2, business_name = $3, updated_at = NOW()
		WHERE id = $1
	`, userID, businessID, businessName)
	if err != nil {
		return fmt.Errorf("failed to set business: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetOpenSession records the cash session the user currently has open.
func (r *UserRepository) SetOpenSession(ctx context.Context, userID int64, sessionID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET open_session_id = $2, updated_at = NOW()
		WHERE id = $1
	`, userID, sessionID)
	if err != nil {
		return fmt.Errorf("failed to set open session: %w", err)
	}
	return nil
}

// ClearOpenSession forgets the user's open cash session.
func (r *UserRepository) ClearOpenSession(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET open_session_id = '', updated_at = NOW()
		WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear open session: %w", err)
	}
	return nil
}

// ListWithOpenSession returns every user that has a cash session tracked as open.
func (r *UserRepository) ListWithOpenSession(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE open_session_id <> ''
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with open session: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName,
		&u.BusinessID, &u.BusinessName, &u.OpenSessionID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
