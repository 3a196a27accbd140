package editor

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// --- NetworkSession ---

type MockNetworkSession struct {
	mock.Mock
}

func (m *MockNetworkSession) Close(errCode string) {
	m.Called(errCode)
}

func (m *MockNetworkSession) Write(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockNetworkSession) Read() ([]byte, error) {
	args := m.Called()
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockNetworkSession) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// --- PeriodicTickerChannelCreator ---

type MockPeriodicTickerChannelCreator struct {
	mock.Mock
}

func (m *MockPeriodicTickerChannelCreator) Create(duration time.Duration) <-chan time.Time {
	args := m.Called(duration)
	return args.Get(0).(chan time.Time)
}

// --- BeatmapStore ---

type MockBeatmapStore struct {
	mock.Mock
}

func (m *MockBeatmapStore) GetBeatmap(ctx context.Context, beatmapId string) (Beatmap, error) {
	args := m.Called(ctx, beatmapId)
	return args.Get(0).(Beatmap), args.Error(1)
}

func (m *MockBeatmapStore) SaveBeatmap(ctx context.Context, beatmapId string, beatmap Beatmap) error {
	args := m.Called(ctx, beatmapId, beatmap)
	return args.Error(0)
}

// --- SnapshotCache ---

type MockSnapshotCache struct {
	mock.Mock
}

func (m *MockSnapshotCache) PutSnapshot(ctx context.Context, beatmapId string, data []byte) error {
	args := m.Called(ctx, beatmapId, data)
	return args.Error(0)
}

func (m *MockSnapshotCache) GetSnapshot(ctx context.Context, beatmapId string) ([]byte, error) {
	args := m.Called(ctx, beatmapId)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}
