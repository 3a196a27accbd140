package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"beatsync/domain"
)

const snapshotTTL = 24 * time.Hour

// SnapshotCache keeps the latest autosave snapshot of every live document in
// Redis so a crashed server loses at most one autosave interval of edits.
// The cached copy is always at least as fresh as the Postgres one, which is
// only written when a session winds down.
type SnapshotCache struct {
	rdb *redis.Client
}

func NewSnapshotCache(addr string) *SnapshotCache {
	return &SnapshotCache{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func snapshotKey(beatmapId string) string {
	return "beatsync:snapshot:" + beatmapId
}

func (sc *SnapshotCache) PutSnapshot(ctx context.Context, beatmapId string, data []byte) error {
	return sc.rdb.Set(ctx, snapshotKey(beatmapId), data, snapshotTTL).Err()
}

func (sc *SnapshotCache) GetSnapshot(ctx context.Context, beatmapId string) ([]byte, error) {
	data, err := sc.rdb.Get(ctx, snapshotKey(beatmapId)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
	return data, nil
}

func (sc *SnapshotCache) Ping(ctx context.Context) error {
	return sc.rdb.Ping(ctx).Err()
}
