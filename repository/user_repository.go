package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"hourtrim/model"

	"github.com/go-sql-driver/mysql"
)

// ErrDuplicateUser is returned when the username is already taken.
var ErrDuplicateUser = errors.New("user already exists")

// mysqlDuplicateEntry is MySQL's ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (int64, error)
	// GetUserByUsername returns nil, nil when no such user exists.
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// sqlUserRepository implements UserRepository over the auth table.
type sqlUserRepository struct {
	db *sql.DB
}

// NewSQLUserRepository creates a UserRepository on an open *sql.DB. The
// queries only use "?" placeholders, so MySQL and SQLite both work.
func NewSQLUserRepository(db *sql.DB) UserRepository {
	return &sqlUserRepository{db: db}
}

// CreateUser adds a new user to the database.
func (r *sqlUserRepository) CreateUser(ctx context.Context, user *model.User) (int64, error) {
	query := "INSERT INTO auth (username, password_hash) VALUES (?, ?)"
	res, err := r.db.ExecContext(ctx, query, user.Username, user.PasswordHash)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrDuplicateUser
		}
		return 0, fmt.Errorf("failed to execute create user statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for user: %w", err)
	}
	user.ID = id
	return id, nil
}

// GetUserByUsername retrieves a user by their username.
func (r *sqlUserRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	query := "SELECT id, username, password_hash FROM auth WHERE username = ?"
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(&user.ID, &user.Username, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to scan user row for username %s: %w", username, err)
	}
	return user, nil
}

// ExistsByUsername reports whether a row with this username is present.
func (r *sqlUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, "SELECT id FROM auth WHERE username = ?", username).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check user %s: %w", username, err)
	}
	return true, nil
}

func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	// SQLite, used by tests and local runs
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
