// Package cli implements the messagely admin command line: it reads
// prompts from a terminal, calls the services and prints JSON results.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/messagely/internal/common"
	"github.com/dmitrijs2005/messagely/internal/server/models"
	"github.com/dmitrijs2005/messagely/internal/server/services"
)

// ErrUsage is returned for an unknown command or missing arguments.
var ErrUsage = errors.New("usage: messagely [flags] migrate|register|login <username>|users|user <username>|sent <username>|inbox <username>")

type Directory interface {
	Register(ctx context.Context, u models.NewUser) (*models.User, error)
	All(ctx context.Context) ([]models.UserSummary, error)
	Get(ctx context.Context, username string) (*models.User, error)
	MessagesFrom(ctx context.Context, username string) ([]models.SentMessage, error)
	MessagesTo(ctx context.Context, username string) ([]models.ReceivedMessage, error)
}

type Sessions interface {
	Login(ctx context.Context, username, password string) (*services.Session, error)
}

type Migrator interface {
	Migrate(ctx context.Context) error
}

type App struct {
	directory Directory
	sessions  Sessions
	migrator  Migrator
	reader    *bufio.Reader
	out       io.Writer
	prompts   io.Writer
}

// NewApp builds an App reading answers from in, writing results to out and
// prompts to prompts.
func NewApp(d Directory, s Sessions, m Migrator, in io.Reader, out, prompts io.Writer) *App {
	return &App{
		directory: d,
		sessions:  s,
		migrator:  m,
		reader:    bufio.NewReader(in),
		out:       out,
		prompts:   prompts,
	}
}

// commandArgs is the number of arguments each command takes.
var commandArgs = map[string]int{
	"migrate":  0,
	"register": 0,
	"users":    0,
	"login":    1,
	"user":     1,
	"sent":     1,
	"inbox":    1,
}

// ValidateArgs returns ErrUsage unless args name a known command followed by
// the number of arguments it takes. It needs no services, so callers can
// reject bad input before connecting to the database.
func ValidateArgs(args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	n, ok := commandArgs[args[0]]
	if !ok || len(args)-1 != n {
		return ErrUsage
	}
	return nil
}

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if err := ValidateArgs(args); err != nil {
		return err
	}

	switch args[0] {
	case "migrate":
		if err := a.migrator.Migrate(ctx); err != nil {
			return err
		}
		return a.print(map[string]string{"status": "ok"})
	case "register":
		return a.register(ctx)
	case "users":
		users, err := a.directory.All(ctx)
		if err != nil {
			return err
		}
		return a.print(users)
	case "login":
		return a.login(ctx, args[1])
	case "user":
		u, err := a.directory.Get(ctx, args[1])
		if err != nil {
			return err
		}
		return a.print(u)
	case "sent":
		msgs, err := a.directory.MessagesFrom(ctx, args[1])
		if err != nil {
			return err
		}
		return a.print(msgs)
	case "inbox":
		msgs, err := a.directory.MessagesTo(ctx, args[1])
		if err != nil {
			return err
		}
		return a.print(msgs)
	default:
		return ErrUsage
	}
}

func (a *App) register(ctx context.Context) error {
	var nu models.NewUser
	fields := []struct {
		prompt string
		dst    *string
	}{
		{"Username", &nu.Username},
		{"First name", &nu.FirstName},
		{"Last name", &nu.LastName},
		{"Phone", &nu.Phone},
	}
	for _, f := range fields {
		v, err := GetSimpleText(a.reader, f.prompt, a.prompts)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	password, err := GetPassword(a.prompts)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	nu.Password = string(password)

	u, err := a.directory.Register(ctx, nu)
	if err != nil {
		return err
	}
	// the hash stays in the database
	u.Password = ""
	return a.print(u)
}

func (a *App) login(ctx context.Context, username string) error {
	password, err := GetPassword(a.prompts)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	sess, err := a.sessions.Login(ctx, username, string(password))
	if err != nil {
		return err
	}
	return a.print(sess)
}

func (a *App) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// ExitCode maps an error returned by Run to a process exit status.
func ExitCode(err error) int {
	var statusErr *common.StatusError
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage):
		return 2
	case errors.As(err, &statusErr):
		return 3
	case errors.Is(err, common.ErrorUnauthorized):
		return 4
	default:
		return 1
	}
}
