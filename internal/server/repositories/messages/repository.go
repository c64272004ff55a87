package messages

import (
	"context"

	"github.com/dmitrijs2005/messagely/internal/server/models"
)

// Repository reads messages for one participant. The *Joined variants
// resolve the counterpart in the same query (nil when its users row is
// missing); the plain variants leave it as
// a username for the caller to resolve.
type Repository interface {
	SelectFrom(ctx context.Context, username string) ([]models.MessageRow, error)
	SelectTo(ctx context.Context, username string) ([]models.MessageRow, error)
	SelectFromJoined(ctx context.Context, username string) ([]models.JoinedMessage, error)
	SelectToJoined(ctx context.Context, username string) ([]models.JoinedMessage, error)
}
