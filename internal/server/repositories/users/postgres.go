// Package users provides the PostgreSQL-backed repository for the users table.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/messagely/internal/common"
	"github.com/dmitrijs2005/messagely/internal/dbx"
	"github.com/dmitrijs2005/messagely/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts user, whose Password must already be hashed, stamping
// join_at and last_login_at with the current time. Driver errors are wrapped
// so that unique violations stay detectable with dbx.IsUniqueViolation.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (username, password, first_name, last_name, phone, join_at, last_login_at)
		 VALUES ($1, $2, $3, $4, $5, current_timestamp, current_timestamp)
		 RETURNING username, password, first_name, last_name, phone
		 `

	created := &models.User{}
	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Password, user.FirstName, user.LastName, user.Phone).
		Scan(&created.Username, &created.Password, &created.FirstName, &created.LastName, &created.Phone)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

func (r *PostgresRepository) GetPasswordHash(ctx context.Context, username string) (string, error) {
	query :=
		`SELECT password FROM users
		 WHERE username = $1
		 `

	var hash string
	err := r.db.QueryRowContext(ctx, query, username).Scan(&hash)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}

	return hash, nil
}

func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, username string) (*models.LoginStamp, error) {
	query :=
		`UPDATE users SET last_login_at = current_timestamp
		 WHERE username = $1
		 RETURNING username, last_login_at
		 `

	stamp := &models.LoginStamp{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(&stamp.Username, &stamp.LastLoginAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return stamp, nil
}

// SelectAll returns every user's summary in the store's natural order.
func (r *PostgresRepository) SelectAll(ctx context.Context) ([]models.UserSummary, error) {
	query :=
		`SELECT username, first_name, last_name, phone
		 FROM users
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.UserSummary, 0)
	for rows.Next() {
		var s models.UserSummary
		if err := rows.Scan(&s.Username, &s.FirstName, &s.LastName, &s.Phone); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// GetByUsername returns the user without its password hash.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT username, first_name, last_name, phone, join_at, last_login_at
		 FROM users WHERE username = $1
		 `

	user := &models.User{}
	var lastLogin sql.NullTime
	err := r.db.QueryRowContext(ctx, query, username).
		Scan(&user.Username, &user.FirstName, &user.LastName, &user.Phone, &user.JoinAt, &lastLogin)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if lastLogin.Valid {
		user.LastLoginAt = lastLogin.Time
	}

	return user, nil
}

func (r *PostgresRepository) GetSummary(ctx context.Context, username string) (*models.UserSummary, error) {
	query :=
		`SELECT username, first_name, last_name, phone
		 FROM users WHERE username = $1
		 `

	s := &models.UserSummary{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(&s.Username, &s.FirstName, &s.LastName, &s.Phone)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return s, nil
}
