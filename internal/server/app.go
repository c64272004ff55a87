// Package server wires configuration, the PostgreSQL pool, the repositories
// and the services into an App.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/dmitrijs2005/messagely/internal/logging"
	"github.com/dmitrijs2005/messagely/internal/server/config"
	"github.com/dmitrijs2005/messagely/internal/server/passwords"
	"github.com/dmitrijs2005/messagely/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/messagely/internal/server/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	directory   *services.Directory
	sessions    *services.SessionService
}

// openDB is a seam for tests; production uses the pgx database/sql driver.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

// NewApp validates c, connects to the database and builds the services.
// The caller owns the returned App and must Close it.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := logging.NewJSONLogger(os.Stderr, level)

	hasher, err := passwords.NewHasher(c.BcryptWorkFactor, c.HashConcurrency)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	dir := services.NewDirectory(db, rm, hasher, logger, c)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		repomanager: rm,
		directory:   dir,
		sessions:    services.NewSessionService(dir, c),
	}, nil
}

// Migrate applies pending schema migrations.
func (app *App) Migrate(ctx context.Context) error {
	app.logger.Info(ctx, "applying migrations")
	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func (app *App) Directory() *services.Directory {
	return app.directory
}

func (app *App) Sessions() *services.SessionService {
	return app.sessions
}

func (app *App) Logger() logging.Logger {
	return app.logger
}

func (app *App) Close() error {
	return app.db.Close()
}
