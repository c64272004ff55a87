package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/messagely/internal/common"
	"github.com/dmitrijs2005/messagely/internal/dbx"
	"github.com/dmitrijs2005/messagely/internal/logging"
	"github.com/dmitrijs2005/messagely/internal/server/config"
	"github.com/dmitrijs2005/messagely/internal/server/models"
	"github.com/dmitrijs2005/messagely/internal/server/passwords"
	"github.com/dmitrijs2005/messagely/internal/server/repositories/messages"
	"github.com/dmitrijs2005/messagely/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- in-memory store standing in for both repositories ---

type memMessage struct {
	id     string
	from   string
	to     string
	body   string
	sentAt time.Time
	readAt *time.Time
}

type memStore struct {
	mu       sync.Mutex
	clock    time.Time
	users    map[string]*models.User
	order    []string
	messages []memMessage

	// errs maps a method name to the error it should return.
	errs map[string]error
	// summaryDelay, if set, is slept before each GetSummary answers.
	summaryDelay func(username string) time.Duration
}

func newMemStore() *memStore {
	return &memStore{
		clock: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		users: map[string]*models.User{},
		errs:  map[string]error{},
	}
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) failWith(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs[method]
}

// addMessage plays the role of the collaborator that writes messages.
func (s *memStore) addMessage(from, to, body string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.messages = append(s.messages, memMessage{id: id, from: from, to: to, body: body, sentAt: s.tick()})
	return id
}

func (s *memStore) Create(_ context.Context, u *models.User) (*models.User, error) {
	if err := s.failWith("Create"); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; ok {
		return nil, fmt.Errorf("db error: %w", &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint \"users_pkey\""})
	}
	now := s.tick()
	row := *u
	row.JoinAt = now
	row.LastLoginAt = now
	s.users[u.Username] = &row
	s.order = append(s.order, u.Username)
	return &models.User{Username: row.Username, Password: row.Password, FirstName: row.FirstName, LastName: row.LastName, Phone: row.Phone}, nil
}

func (s *memStore) GetPasswordHash(_ context.Context, username string) (string, error) {
	if err := s.failWith("GetPasswordHash"); err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return "", common.ErrorNotFound
	}
	return u.Password, nil
}

func (s *memStore) UpdateLastLogin(_ context.Context, username string) (*models.LoginStamp, error) {
	if err := s.failWith("UpdateLastLogin"); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.LastLoginAt = s.tick()
	return &models.LoginStamp{Username: u.Username, LastLoginAt: u.LastLoginAt}, nil
}

func (s *memStore) SelectAll(_ context.Context) ([]models.UserSummary, error) {
	if err := s.failWith("SelectAll"); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.UserSummary, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, summaryOf(s.users[name]))
	}
	return out, nil
}

func (s *memStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	if err := s.failWith("GetByUsername"); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	cp.Password = ""
	return &cp, nil
}

func (s *memStore) GetSummary(_ context.Context, username string) (*models.UserSummary, error) {
	if s.summaryDelay != nil {
		time.Sleep(s.summaryDelay(username))
	}
	if err := s.failWith("GetSummary"); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	sum := summaryOf(u)
	return &sum, nil
}

func (s *memStore) SelectFrom(_ context.Context, username string) ([]models.MessageRow, error) {
	return s.selectRows("SelectFrom", func(m memMessage) (bool, string) { return m.from == username, m.to })
}

func (s *memStore) SelectTo(_ context.Context, username string) ([]models.MessageRow, error) {
	return s.selectRows("SelectTo", func(m memMessage) (bool, string) { return m.to == username, m.from })
}

func (s *memStore) SelectFromJoined(_ context.Context, username string) ([]models.JoinedMessage, error) {
	return s.selectJoined("SelectFromJoined", func(m memMessage) (bool, string) { return m.from == username, m.to })
}

func (s *memStore) SelectToJoined(_ context.Context, username string) ([]models.JoinedMessage, error) {
	return s.selectJoined("SelectToJoined", func(m memMessage) (bool, string) { return m.to == username, m.from })
}

func (s *memStore) sorted() []memMessage {
	msgs := append([]memMessage(nil), s.messages...)
	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].sentAt.Equal(msgs[j].sentAt) {
			return msgs[i].sentAt.Before(msgs[j].sentAt)
		}
		return msgs[i].id < msgs[j].id
	})
	return msgs
}

func (s *memStore) selectRows(method string, match func(memMessage) (bool, string)) ([]models.MessageRow, error) {
	if err := s.failWith(method); err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.MessageRow
	for _, m := range s.sorted() {
		if ok, other := match(m); ok {
			out = append(out, models.MessageRow{ID: m.id, Counterparty: other, Body: m.body, SentAt: m.sentAt, ReadAt: m.readAt})
		}
	}
	return out, nil
}

func (s *memStore) selectJoined(method string, match func(memMessage) (bool, string)) ([]models.JoinedMessage, error) {
	if err := s.failWith(method); err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.JoinedMessage
	for _, m := range s.sorted() {
		ok, other := match(m)
		if !ok {
			continue
		}
		jm := models.JoinedMessage{ID: m.id, Body: m.body, SentAt: m.sentAt, ReadAt: m.readAt}
		if u, found := s.users[other]; found {
			sum := summaryOf(u)
			jm.Counterparty = &sum
		}
		out = append(out, jm)
	}
	return out, nil
}

func summaryOf(u *models.User) models.UserSummary {
	return models.UserSummary{Username: u.Username, FirstName: u.FirstName, LastName: u.LastName, Phone: u.Phone}
}

// --- repository manager ---

type fakeRepoManager struct {
	store *memStore

	mu    sync.Mutex
	bound []dbx.DBTX
}

func (m *fakeRepoManager) record(db dbx.DBTX) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bound = append(m.bound, db)
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository {
	m.record(db)
	return m.store
}

func (m *fakeRepoManager) Messages(db dbx.DBTX) messages.Repository {
	m.record(db)
	return m.store
}

// --- constructors ---

func newTestHasher(t *testing.T) *passwords.Hasher {
	t.Helper()
	h, err := passwords.NewHasher(bcrypt.MinCost, 4)
	require.NoError(t, err)
	return h
}

func newTestDirectory(t *testing.T, db *sql.DB, store *memStore, mode string, lookupConcurrency int) (*Directory, *fakeRepoManager) {
	t.Helper()
	rm := &fakeRepoManager{store: store}
	cfg := &config.Config{EnrichmentMode: mode, LookupConcurrency: lookupConcurrency}
	return NewDirectory(db, rm, newTestHasher(t), logging.NewNopLogger(), cfg), rm
}

func registerUser(t *testing.T, d *Directory, username, first string) *models.User {
	t.Helper()
	u, err := d.Register(context.Background(), models.NewUser{
		Username:  username,
		Password:  username + "-pw",
		FirstName: first,
		LastName:  "Tester",
		Phone:     "+1-555-0100",
	})
	require.NoError(t, err)
	return u
}
