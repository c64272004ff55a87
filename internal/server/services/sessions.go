package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/messagely/internal/common"
	"github.com/dmitrijs2005/messagely/internal/server/auth"
	"github.com/dmitrijs2005/messagely/internal/server/config"
	"github.com/dmitrijs2005/messagely/internal/server/models"
)

// Session is the result of a successful login.
type Session struct {
	Username    string    `json:"username"`
	Token       string    `json:"token"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// UserDirectory is the part of Directory the login flow depends on.
type UserDirectory interface {
	Authenticate(ctx context.Context, username, password string) (bool, error)
	UpdateLoginTimestamp(ctx context.Context, username string) (*models.LoginStamp, error)
}

// SessionService logs users in and verifies the tokens it issues.
type SessionService struct {
	directory             UserDirectory
	jwtSecret             []byte
	tokenValidityDuration time.Duration
}

func NewSessionService(d UserDirectory, cfg *config.Config) *SessionService {
	return &SessionService{
		directory:             d,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
	}
}

// Login checks the credentials, records the login and returns a signed
// token. Bad credentials yield common.ErrorUnauthorized.
func (s *SessionService) Login(ctx context.Context, username, password string) (*Session, error) {
	ok, err := s.directory.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	stamp, err := s.directory.UpdateLoginTimestamp(ctx, username)
	if err != nil {
		return nil, err
	}

	token, err := auth.GenerateToken(stamp.Username, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &Session{Username: stamp.Username, Token: token, LastLoginAt: stamp.LastLoginAt}, nil
}

// Verify returns the username a token was issued to.
func (s *SessionService) Verify(token string) (string, error) {
	return auth.GetUsernameFromToken(token, s.jwtSecret)
}
