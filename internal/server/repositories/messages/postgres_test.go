package messages

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/messagely/internal/server/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const (
	fromQ       = `(?s)^SELECT\s+id,\s*to_username,\s*body,\s*sent_at,\s*read_at\s+FROM\s+messages\s+WHERE\s+from_username\s*=\s*\$1\s+ORDER\s+BY\s+sent_at,\s*id\s*$`
	toQ         = `(?s)^SELECT\s+id,\s*from_username,\s*body,\s*sent_at,\s*read_at\s+FROM\s+messages\s+WHERE\s+to_username\s*=\s*\$1\s+ORDER\s+BY\s+sent_at,\s*id\s*$`
	fromJoinedQ = `(?s)^SELECT\s+m\.id,.*FROM\s+messages\s+m\s+LEFT\s+JOIN\s+users\s+u\s+ON\s+u\.username\s*=\s*m\.to_username\s+WHERE\s+m\.from_username\s*=\s*\$1\s+ORDER\s+BY\s+m\.sent_at,\s*m\.id\s*$`
	toJoinedQ   = `(?s)^SELECT\s+m\.id,.*FROM\s+messages\s+m\s+LEFT\s+JOIN\s+users\s+u\s+ON\s+u\.username\s*=\s*m\.from_username\s+WHERE\s+m\.to_username\s*=\s*\$1\s+ORDER\s+BY\s+m\.sent_at,\s*m\.id\s*$`
)

var (
	rowCols    = []string{"id", "counterparty", "body", "sent_at", "read_at"}
	joinedCols = []string{"id", "username", "first_name", "last_name", "phone", "body", "sent_at", "read_at"}
)

func TestSelectFrom(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	id1, id2 := uuid.NewString(), uuid.NewString()
	sent := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	read := sent.Add(time.Minute)

	mock.ExpectQuery(fromQ).WithArgs("alice").WillReturnRows(
		sqlmock.NewRows(rowCols).
			AddRow(id1, "bob", "hi", sent, read).
			AddRow(id2, "carol", "yo", sent.Add(time.Second), nil))

	got, err := repo.SelectFrom(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, models.MessageRow{ID: id1, Counterparty: "bob", Body: "hi", SentAt: sent, ReadAt: &read}, got[0])
	assert.Equal(t, id2, got[1].ID)
	assert.Equal(t, "carol", got[1].Counterparty)
	assert.Nil(t, got[1].ReadAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectTo_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(toQ).WithArgs("nobody").WillReturnRows(sqlmock.NewRows(rowCols))

	got, err := repo.SelectTo(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSelectFrom_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(fromQ).WithArgs("alice").WillReturnError(errors.New("db down"))

	_, err := repo.SelectFrom(context.Background(), "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to select messages: db down")
}

func TestSelectTo_ScanError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(toQ).WithArgs("bob").WillReturnRows(
		sqlmock.NewRows(rowCols).AddRow("id", "alice", "hi", "not-a-time", nil))

	_, err := repo.SelectTo(context.Background(), "bob")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to select messages: ")
}

func TestSelectFromJoined(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	id := uuid.NewString()
	sent := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(fromJoinedQ).WithArgs("alice").WillReturnRows(
		sqlmock.NewRows(joinedCols).AddRow(id, "bob", "Bob", "Builder", "2", "hi", sent, nil))

	got, err := repo.SelectFromJoined(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []models.JoinedMessage{{
		ID:           id,
		Counterparty: &models.UserSummary{Username: "bob", FirstName: "Bob", LastName: "Builder", Phone: "2"},
		Body:         "hi",
		SentAt:       sent,
	}}, got)
}

func TestSelectToJoined(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	sent := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	read := sent.Add(time.Hour)

	mock.ExpectQuery(toJoinedQ).WithArgs("bob").WillReturnRows(
		sqlmock.NewRows(joinedCols).
			AddRow("m1", "alice", "Alice", "Liddell", "1", "first", sent, read).
			AddRow("m2", "carol", "Carol", "Danvers", "3", "second", sent.Add(time.Minute), nil))

	got, err := repo.SelectToJoined(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alice", got[0].Counterparty.Username)
	assert.Equal(t, &read, got[0].ReadAt)
	assert.Equal(t, "carol", got[1].Counterparty.Username)
	assert.Equal(t, "second", got[1].Body)
}

func TestSelectToJoined_RowError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(toJoinedQ).WithArgs("bob").WillReturnRows(
		sqlmock.NewRows(joinedCols).
			AddRow("m1", "alice", "Alice", "Liddell", "1", "first", time.Now(), nil).
			RowError(0, errors.New("broken")))

	_, err := repo.SelectToJoined(context.Background(), "bob")
	assert.EqualError(t, err, "failed to select messages: broken")
}

func TestSelectFromJoined_MissingCounterpart(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	sent := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(fromJoinedQ).WithArgs("alice").WillReturnRows(
		sqlmock.NewRows(joinedCols).
			AddRow("m1", nil, nil, nil, nil, "anyone there?", sent, nil).
			AddRow("m2", "bob", "Bob", "Builder", "2", "hi", sent.Add(time.Second), nil))

	got, err := repo.SelectFromJoined(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "m1", got[0].ID)
	assert.Equal(t, "anyone there?", got[0].Body)
	assert.Nil(t, got[0].Counterparty)
	require.NotNil(t, got[1].Counterparty)
	assert.Equal(t, "bob", got[1].Counterparty.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectFrom_RowErrorIsWrapped(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	broken := errors.New("broken")
	mock.ExpectQuery(fromQ).WithArgs("alice").WillReturnRows(
		sqlmock.NewRows(rowCols).
			AddRow("m1", "bob", "hi", time.Now(), nil).
			RowError(0, broken))

	_, err := repo.SelectFrom(context.Background(), "alice")
	assert.ErrorIs(t, err, broken)
	assert.EqualError(t, err, "failed to select messages: broken")
}
