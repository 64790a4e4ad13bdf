package snapshot

import (
	"context"
	"encoding/json"

	snapshotv1 "github.com/999bits/wildfire/internal/domain/snapshot/v1"
	"github.com/999bits/wildfire/pkg/errors"
	"github.com/999bits/wildfire/pkg/logger"
	"github.com/999bits/wildfire/pkg/redis"
)

// Store keeps the latest engine snapshot of one pair in Redis.
type Store struct {
	pair        string
	key         string
	logger      logger.Interface
	redisclient redis.Client
}

var _ snapshotv1.Store = (*Store)(nil)

// NewSnapshotStore creates a new Store with the given Redis client and pair.
func NewSnapshotStore(redisclient redis.Client, pair string, logger logger.Interface) *Store {
	return &Store{
		pair:        pair,
		key:         "snapshot:" + pair,
		redisclient: redisclient,
		logger:      logger,
	}
}

// Store serialises the snapshot and overwrites the previous one.
func (s *Store) Store(ctx context.Context, snapshot *snapshotv1.Snapshot) error {
	buf, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.ErrorContext(ctx, err, s.fields("marshal snapshot")...)
		return errors.NewTracer(string(errors.SnapshotStoreError)).Wrap(err)
	}

	if err := s.redisclient.Set(ctx, s.key, buf, 0); err != nil {
		s.logger.ErrorContext(ctx, err, s.fields("store snapshot")...)
		return errors.NewTracer(string(errors.SnapshotStoreError)).Wrap(err)
	}

	s.logger.InfoContext(ctx, "snapshot stored", append(s.fields("store snapshot"),
		logger.NewField("offset", snapshot.CommandOffset),
		logger.NewField("orders", len(snapshot.Orders)),
		logger.NewField("bytes", len(buf)),
	)...)
	return nil
}

// LoadStore returns the stored snapshot, or nil when none exists.
func (s *Store) LoadStore(ctx context.Context) (*snapshotv1.Snapshot, error) {
	data, err := s.redisclient.Get(ctx, s.key)
	if err != nil {
		s.logger.ErrorContext(ctx, err, s.fields("load snapshot")...)
		return nil, errors.NewTracer(string(errors.SnapshotLoadError)).Wrap(err)
	}

	if data == "" {
		s.logger.WarnContext(ctx, "no snapshot found", s.fields("load snapshot")...)
		return nil, nil
	}

	var snapshot snapshotv1.Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		s.logger.ErrorContext(ctx, err, s.fields("unmarshal snapshot")...)
		return nil, errors.NewTracer(string(errors.SnapshotLoadError)).Wrap(err)
	}

	if snapshot.Pair != "" && snapshot.Pair != s.pair {
		return nil, errors.NewTracer(string(errors.SnapshotLoadError)).Wrap(
			errors.NewErrorDetails("snapshot belongs to pair "+snapshot.Pair, string(errors.SnapshotLoadError), "pair"))
	}

	s.logger.InfoContext(ctx, "snapshot loaded", append(s.fields("load snapshot"),
		logger.NewField("offset", snapshot.CommandOffset),
	)...)
	return &snapshot, nil
}

func (s *Store) fields(action string) []logger.Field {
	return []logger.Field{
		logger.NewField("pair", s.pair),
		logger.NewField("action", action),
	}
}
