package users

import (
	"context"

	"github.com/dmitrijs2005/messagely/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetPasswordHash(ctx context.Context, username string) (string, error)
	UpdateLastLogin(ctx context.Context, username string) (*models.LoginStamp, error)
	SelectAll(ctx context.Context) ([]models.UserSummary, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetSummary(ctx context.Context, username string) (*models.UserSummary, error)
}
