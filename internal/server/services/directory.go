// Package services contains server-side business logic. This file implements
// Directory, which registers and authenticates users and lists the messages
// they have sent and received.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/messagely/internal/common"
	"github.com/dmitrijs2005/messagely/internal/dbx"
	"github.com/dmitrijs2005/messagely/internal/logging"
	"github.com/dmitrijs2005/messagely/internal/server/config"
	"github.com/dmitrijs2005/messagely/internal/server/models"
	"github.com/dmitrijs2005/messagely/internal/server/passwords"
	"github.com/dmitrijs2005/messagely/internal/server/repositories/repomanager"
)

// Directory provides user and message operations over the users and
// messages tables. It holds no mutable state and is safe for concurrent use.
type Directory struct {
	db                *sql.DB
	repomanager       repomanager.RepositoryManager
	hasher            *passwords.Hasher
	log               logging.Logger
	enrichmentMode    string
	lookupConcurrency int
}

// NewDirectory constructs a Directory. Enrichment settings are taken from cfg.
func NewDirectory(db *sql.DB, m repomanager.RepositoryManager, h *passwords.Hasher, log logging.Logger, cfg *config.Config) *Directory {
	concurrency := cfg.LookupConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Directory{
		db:                db,
		repomanager:       m,
		hasher:            h,
		log:               log.With("component", "directory"),
		enrichmentMode:    cfg.EnrichmentMode,
		lookupConcurrency: concurrency,
	}
}

// Register hashes the password and stores a new user. The returned user
// carries the hash and no timestamps. Any failure is a
// *common.RegistrationError.
func (d *Directory) Register(ctx context.Context, u models.NewUser) (*models.User, error) {
	if strings.TrimSpace(u.Username) == "" || u.Password == "" {
		return nil, d.registrationFailed(ctx, u.Username, common.ReasonValidation,
			errors.New("username and password are required"))
	}
	if len(u.Password) > passwords.MaxPasswordBytes {
		return nil, d.registrationFailed(ctx, u.Username, common.ReasonValidation,
			fmt.Errorf("password longer than %d bytes", passwords.MaxPasswordBytes))
	}

	hash, err := d.hasher.Hash(ctx, u.Password)
	if err != nil {
		return nil, d.registrationFailed(ctx, u.Username, common.ReasonHashing, err)
	}

	repo := d.repomanager.Users(d.db)
	created, err := repo.Create(ctx, &models.User{
		Username:  u.Username,
		Password:  hash,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	})
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, d.registrationFailed(ctx, u.Username, common.ReasonDuplicateUsername, err)
		}
		return nil, d.registrationFailed(ctx, u.Username, common.ReasonStore, err)
	}

	d.log.Info(ctx, "user registered", "username", created.Username)
	return created, nil
}

func (d *Directory) registrationFailed(ctx context.Context, username string, reason common.Reason, err error) error {
	d.log.Warn(ctx, "registration failed", "username", username, "reason", reason.String())
	return &common.RegistrationError{Username: username, Reason: reason, Err: err}
}

// Authenticate reports whether password matches the stored hash for
// username. An unknown username is not an error.
func (d *Directory) Authenticate(ctx context.Context, username, password string) (bool, error) {
	repo := d.repomanager.Users(d.db)

	hash, err := repo.GetPasswordHash(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}

	ok, err := d.hasher.Compare(ctx, hash, password)
	if err != nil {
		return false, fmt.Errorf("compare password: %w", err)
	}
	return ok, nil
}

// UpdateLoginTimestamp sets last_login_at to now and returns the stored value.
func (d *Directory) UpdateLoginTimestamp(ctx context.Context, username string) (*models.LoginStamp, error) {
	repo := d.repomanager.Users(d.db)

	stamp, err := repo.UpdateLastLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, userNotFound(username)
		}
		return nil, err
	}

	d.log.Info(ctx, "login timestamp updated", "username", stamp.Username)
	return stamp, nil
}

// All returns a summary of every user.
func (d *Directory) All(ctx context.Context) ([]models.UserSummary, error) {
	users, err := d.repomanager.Users(d.db).SelectAll(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.UserSummary{}
	}
	return users, nil
}

// Get returns the user without its password hash.
func (d *Directory) Get(ctx context.Context, username string) (*models.User, error) {
	user, err := d.repomanager.Users(d.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, userNotFound(username)
		}
		return nil, err
	}
	user.Password = ""
	return user, nil
}

func userNotFound(username string) error {
	return common.NewNotFoundError("User does not exist: %s", username)
}
