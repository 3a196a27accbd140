package editor

import (
	"context"
	"time"
)

type NetworkSession interface {
	Close(errCode string)
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

type PeriodicTickerChannelCreator interface {
	Create(duration time.Duration) <-chan time.Time
}

// BeatmapStore loads the document when a session spins up and persists it
// when the session winds down. Sessions never touch it mid-command; saving
// happens off the actor goroutine.
type BeatmapStore interface {
	GetBeatmap(ctx context.Context, beatmapId string) (Beatmap, error)
	SaveBeatmap(ctx context.Context, beatmapId string, beatmap Beatmap) error
}

// SnapshotCache receives periodic autosave snapshots of a live document so a
// crashed server loses at most one autosave interval of edits. Snapshots are
// the JSON encoding of a Beatmap; session loading prefers a cached snapshot
// over the stored copy, which only catches up when a session winds down.
type SnapshotCache interface {
	PutSnapshot(ctx context.Context, beatmapId string, data []byte) error
	GetSnapshot(ctx context.Context, beatmapId string) ([]byte, error)
}
