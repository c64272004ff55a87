package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/messagely/internal/common"
	"github.com/dmitrijs2005/messagely/internal/dbx"
	"github.com/dmitrijs2005/messagely/internal/server/config"
	"github.com/dmitrijs2005/messagely/internal/server/models"
	"golang.org/x/sync/errgroup"
)

type direction int

const (
	outgoing direction = iota
	incoming
)

// enrichedMessage is a message row together with its resolved counterpart.
// counterpart is nil when the counterpart user could not be found.
type enrichedMessage struct {
	models.MessageRow
	counterpart *models.UserSummary
}

// MessagesFrom returns the messages sent by username, oldest first, each with
// the recipient's summary. An unknown username yields an empty slice.
func (d *Directory) MessagesFrom(ctx context.Context, username string) ([]models.SentMessage, error) {
	msgs, err := d.messages(ctx, username, outgoing)
	if err != nil {
		return nil, err
	}

	out := make([]models.SentMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, models.SentMessage{
			ID:     m.ID,
			ToUser: m.counterpart,
			Body:   m.Body,
			SentAt: m.SentAt,
			ReadAt: m.ReadAt,
		})
	}
	return out, nil
}

// MessagesTo returns the messages received by username, oldest first, each
// with the sender's summary. An unknown username yields an empty slice.
func (d *Directory) MessagesTo(ctx context.Context, username string) ([]models.ReceivedMessage, error) {
	msgs, err := d.messages(ctx, username, incoming)
	if err != nil {
		return nil, err
	}

	out := make([]models.ReceivedMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, models.ReceivedMessage{
			ID:       m.ID,
			FromUser: m.counterpart,
			Body:     m.Body,
			SentAt:   m.SentAt,
			ReadAt:   m.ReadAt,
		})
	}
	return out, nil
}

func (d *Directory) messages(ctx context.Context, username string, dir direction) ([]enrichedMessage, error) {
	if d.enrichmentMode == config.EnrichmentLookup {
		return d.messagesByLookup(ctx, username, dir)
	}
	return d.messagesByJoin(ctx, username, dir)
}

func (d *Directory) messagesByJoin(ctx context.Context, username string, dir direction) ([]enrichedMessage, error) {
	repo := d.repomanager.Messages(d.db)

	var (
		joined []models.JoinedMessage
		err    error
	)
	if dir == outgoing {
		joined, err = repo.SelectFromJoined(ctx, username)
	} else {
		joined, err = repo.SelectToJoined(ctx, username)
	}
	if err != nil {
		return nil, err
	}

	out := make([]enrichedMessage, len(joined))
	for i, m := range joined {
		out[i] = enrichedMessage{
			MessageRow: models.MessageRow{
				ID:     m.ID,
				Body:   m.Body,
				SentAt: m.SentAt,
				ReadAt: m.ReadAt,
			},
			counterpart: m.Counterparty,
		}
		if m.Counterparty != nil {
			out[i].Counterparty = m.Counterparty.Username
		}
	}
	return out, nil
}

// messagesByLookup fetches the rows first and resolves each counterpart with
// its own query. A transaction pins one connection, so only the sequential
// case reads from a single snapshot; concurrent lookups use the pool.
func (d *Directory) messagesByLookup(ctx context.Context, username string, dir direction) ([]enrichedMessage, error) {
	var out []enrichedMessage

	run := func(ctx context.Context, db dbx.DBTX) error {
		repo := d.repomanager.Messages(db)

		var (
			rows []models.MessageRow
			err  error
		)
		if dir == outgoing {
			rows, err = repo.SelectFrom(ctx, username)
		} else {
			rows, err = repo.SelectTo(ctx, username)
		}
		if err != nil {
			return err
		}

		out, err = d.resolveCounterparts(ctx, db, rows)
		return err
	}

	if d.lookupConcurrency == 1 {
		if err := dbx.WithTx(ctx, d.db, dbx.ReadOnlySnapshot, run); err != nil {
			return nil, err
		}
		return out, nil
	}

	if err := run(ctx, d.db); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Directory) resolveCounterparts(ctx context.Context, db dbx.DBTX, rows []models.MessageRow) ([]enrichedMessage, error) {
	repo := d.repomanager.Users(db)
	out := make([]enrichedMessage, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.lookupConcurrency)

	for i, row := range rows {
		g.Go(func() error {
			summary, err := repo.GetSummary(gctx, row.Counterparty)
			if err != nil && !errors.Is(err, common.ErrorNotFound) {
				return err
			}
			out[i] = enrichedMessage{MessageRow: row, counterpart: summary}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
