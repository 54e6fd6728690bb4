package backend

import (
	"context"
	"log/slog"

	"keuangan/internal/amqp"
	"keuangan/internal/core"
	"keuangan/internal/gateway"
)

// Publisher is the slice of the AMQP client the syncing wrapper needs.
type Publisher interface {
	PublishSync(ctx context.Context, msg *amqp.SyncMessage) error
}

// syncingGateway publishes a sync message after every successful
// transaction write. Publishing is best effort: the periodic pending pass
// in the worker picks up anything a lost message leaves behind.
type syncingGateway struct {
	gateway.Gateway
	pub Publisher
}

func newSyncingGateway(gw gateway.Gateway, pub Publisher) gateway.Gateway {
	return &syncingGateway{Gateway: gw, pub: pub}
}

func (g *syncingGateway) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	inserted, err := g.Gateway.InsertTransaction(ctx, t)
	if err != nil {
		return inserted, err
	}
	if err := g.pub.PublishSync(ctx, amqp.NewUpsertMessage(inserted.ID)); err != nil {
		slog.WarnContext(ctx, "Failed to publish sync message, relying on pending pass",
			"transaction_id", inserted.ID, "error", err)
	}
	return inserted, nil
}

func (g *syncingGateway) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := g.Gateway.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	if err := g.pub.PublishSync(ctx, amqp.NewDeleteMessage(id)); err != nil {
		slog.WarnContext(ctx, "Failed to publish delete message",
			"transaction_id", id, "error", err)
	}
	return nil
}
