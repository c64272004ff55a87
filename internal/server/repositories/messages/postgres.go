// Package messages provides the PostgreSQL-backed, read-only repository for
// the messages table. Rows are always returned ordered by sent_at, id.
package messages

import (
	"context"
	"database/sql"
	"fmt"
	"time"

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

const (
	selectFromQuery = `SELECT id, to_username, body, sent_at, read_at FROM messages
		WHERE from_username = $1
		ORDER BY sent_at, id
		`
	selectToQuery = `SELECT id, from_username, body, sent_at, read_at FROM messages
		WHERE to_username = $1
		ORDER BY sent_at, id
		`
	selectFromJoinedQuery = `SELECT m.id, u.username, u.first_name, u.last_name, u.phone, m.body, m.sent_at, m.read_at
		FROM messages m
		LEFT JOIN users u ON u.username = m.to_username
		WHERE m.from_username = $1
		ORDER BY m.sent_at, m.id
		`
	selectToJoinedQuery = `SELECT m.id, u.username, u.first_name, u.last_name, u.phone, m.body, m.sent_at, m.read_at
		FROM messages m
		LEFT JOIN users u ON u.username = m.from_username
		WHERE m.to_username = $1
		ORDER BY m.sent_at, m.id
		`
)

// SelectFrom returns messages sent by username with the recipient's username
// in Counterparty.
func (r *PostgresRepository) SelectFrom(ctx context.Context, username string) ([]models.MessageRow, error) {
	return r.selectRows(ctx, selectFromQuery, username)
}

// SelectTo returns messages received by username with the sender's username
// in Counterparty.
func (r *PostgresRepository) SelectTo(ctx context.Context, username string) ([]models.MessageRow, error) {
	return r.selectRows(ctx, selectToQuery, username)
}

func (r *PostgresRepository) SelectFromJoined(ctx context.Context, username string) ([]models.JoinedMessage, error) {
	return r.selectJoined(ctx, selectFromJoinedQuery, username)
}

func (r *PostgresRepository) SelectToJoined(ctx context.Context, username string) ([]models.JoinedMessage, error) {
	return r.selectJoined(ctx, selectToJoinedQuery, username)
}

func (r *PostgresRepository) selectRows(ctx context.Context, query, username string) ([]models.MessageRow, error) {
	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	defer rows.Close()

	result := make([]models.MessageRow, 0)
	for rows.Next() {
		var item models.MessageRow
		var readAt sql.NullTime
		if err := rows.Scan(&item.ID, &item.Counterparty, &item.Body, &item.SentAt, &readAt); err != nil {
			return nil, fmt.Errorf("failed to select messages: %w", err)
		}
		item.ReadAt = nullTimePtr(readAt)
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) selectJoined(ctx context.Context, query, username string) ([]models.JoinedMessage, error) {
	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	defer rows.Close()

	result := make([]models.JoinedMessage, 0)
	for rows.Next() {
		var item models.JoinedMessage
		var readAt sql.NullTime
		var username, firstName, lastName, phone sql.NullString
		if err := rows.Scan(
			&item.ID,
			&username, &firstName, &lastName, &phone,
			&item.Body, &item.SentAt, &readAt,
		); err != nil {
			return nil, fmt.Errorf("failed to select messages: %w", err)
		}
		if username.Valid {
			item.Counterparty = &models.UserSummary{
				Username:  username.String,
				FirstName: firstName.String,
				LastName:  lastName.String,
				Phone:     phone.String,
			}
		}
		item.ReadAt = nullTimePtr(readAt)
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	return result, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
