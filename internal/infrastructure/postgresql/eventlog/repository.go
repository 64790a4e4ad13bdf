package eventlog

import (
	"context"
	"math/big"

	eventv1 "github.com/999bits/wildfire/internal/domain/event/v1"
	"github.com/999bits/wildfire/pkg/errors"
	"github.com/999bits/wildfire/pkg/logger"
	"github.com/999bits/wildfire/pkg/postgresql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const tableName = "order_events"

const createTableQuery = `CREATE TABLE IF NOT EXISTS order_events (
	id          TEXT PRIMARY KEY,
	pair        TEXT NOT NULL,
	type        TEXT NOT NULL,
	order_id    NUMERIC(20, 0) NOT NULL,
	side        TEXT NOT NULL,
	price       NUMERIC NOT NULL,
	price_units NUMERIC(20, 0) NOT NULL,
	lot_id      NUMERIC(20, 0) NOT NULL,
	creator     TEXT NOT NULL DEFAULT '',
	maker       TEXT NOT NULL DEFAULT '',
	taker       TEXT NOT NULL DEFAULT '',
	amount      NUMERIC(20, 0) NOT NULL DEFAULT 0,
	remaining   NUMERIC(20, 0) NOT NULL DEFAULT 0,
	occurred_at TIMESTAMPTZ NOT NULL
)`

var columns = []string{
	"id", "pair", "type", "order_id", "side", "price", "price_units",
	"lot_id", "creator", "maker", "taker", "amount", "remaining", "occurred_at",
}

// Repository appends lifecycle events to the order_events journal.
type Repository struct {
	client        postgresql.PostgreSQLClient
	pair          string
	priceDecimals int32
	logger        logger.Interface
}

var _ eventv1.Publisher = (*Repository)(nil)

// NewRepository creates a journal for one pair.
func NewRepository(client postgresql.PostgreSQLClient, pair string, priceDecimals int32, logger logger.Interface) *Repository {
	return &Repository{
		client:        client,
		pair:          pair,
		priceDecimals: priceDecimals,
		logger:        logger,
	}
}

// EnsureSchema creates the journal table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.client.Exec(ctx, createTableQuery); err != nil {
		return errors.NewTracer(string(errors.PostgresWriteError)).Wrap(err)
	}
	return nil
}

// Publish appends events with the COPY protocol.
func (r *Repository) Publish(ctx context.Context, events ...eventv1.Event) error {
	if len(events) == 0 {
		return nil
	}

	copied, err := r.client.CopyFrom(
		ctx,
		pgx.Identifier{tableName},
		columns,
		pgx.CopyFromSlice(len(events), func(i int) ([]any, error) {
			return r.row(events[i]), nil
		}),
	)
	if err != nil {
		r.logger.ErrorContext(ctx, err,
			logger.NewField("table", tableName),
			logger.NewField("events", len(events)),
		)
		return errors.NewTracer(string(errors.PostgresWriteError)).Wrap(err)
	}

	r.logger.DebugContext(ctx, "events journaled", logger.NewField("rows", copied))
	return nil
}

// Close closes the underlying pool.
func (r *Repository) Close() error {
	r.client.Close()
	return nil
}

func (r *Repository) row(e eventv1.Event) []any {
	return []any{
		e.ID,
		r.pair,
		string(e.Type),
		numeric(e.OrderID, 0),
		e.Side.String(),
		numeric(e.Price, -r.priceDecimals),
		numeric(e.Price, 0),
		numeric(e.LotID, 0),
		e.Creator,
		e.Maker,
		e.Taker,
		numeric(e.Amount, 0),
		numeric(e.Remaining, 0),
		e.Timestamp,
	}
}

func numeric(v uint64, exp int32) pgtype.Numeric {
	return pgtype.Numeric{Int: new(big.Int).SetUint64(v), Exp: exp, Valid: true}
}
