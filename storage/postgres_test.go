package storage_test

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"beatsync/domain"
	"beatsync/editor"
	"beatsync/storage"
)

var repo *storage.PostgresRepo

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	pwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	absPath := filepath.Join(pwd, "../postgres")

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine3.22",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testusername"),
		postgres.WithPassword("testpassword"),
		testcontainers.WithHostConfigModifier(func(hostConfig *container.HostConfig) {
			hostConfig.Binds = append(hostConfig.Binds, absPath+":/docker-entrypoint-initdb.d")
		}),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		panic(err)
	}

	connString, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(err)
	}

	repo, err = storage.NewPostgresRepo(ctx, connString)
	if err != nil {
		panic(err)
	}

	code := m.Run()

	postgresContainer.Terminate(ctx)
	os.Exit(code)
}

func TestPostgresRepo_Users(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	ctx := context.Background()

	var id string
	t.Run("CreateUser", func(t *testing.T) {
		var err error
		id, err = repo.CreateUser(ctx, "maarvin", "Maarvin")
		assert.NoError(t, err)
		assert.NotEmpty(t, id)
	})

	t.Run("GetUserById", func(t *testing.T) {
		user, err := repo.GetUserById(ctx, id)
		assert.NoError(t, err)
		assert.Equal(t, "maarvin", user.Username)
		assert.Equal(t, "Maarvin", user.DisplayName)
	})

	t.Run("GetUserById_NotFound", func(t *testing.T) {
		_, err := repo.GetUserById(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestPostgresRepo_Beatmaps(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	ctx := context.Background()

	sv := 1.4
	beatmap := editor.Beatmap{
		Difficulty: editor.Difficulty{
			HPDrainRate:       5,
			CircleSize:        4,
			OverallDifficulty: 8,
			ApproachRate:      9,
			SliderMultiplier:  1.8,
			SliderTickRate:    1,
		},
		HitObjects: []editor.HitObject{
			{Id: 1, StartTime: 1000, Position: editor.IVec2{X: 100, Y: 200}, Kind: editor.KindCircle},
			{
				Id: 2, StartTime: 1500, Position: editor.IVec2{X: 250, Y: 120},
				Kind: editor.KindSlider, ExpectedDistance: 140, Repeats: 1,
				ControlPoints: []editor.SliderControlPoint{
					{Position: editor.IVec2{X: 250, Y: 120}, Kind: editor.ControlPointBezier},
					{Position: editor.IVec2{X: 390, Y: 120}, Kind: editor.ControlPointNone},
				},
			},
		},
		TimingPoints: []editor.TimingPoint{
			{Id: 1, Offset: 0, Timing: &editor.TimingInfo{BPM: 180, Signature: 4}},
			{Id: 2, Offset: 4000, SV: &sv},
		},
	}

	t.Run("SaveBeatmap", func(t *testing.T) {
		require.NoError(t, repo.SaveBeatmap(ctx, "map-1", beatmap))
	})

	t.Run("GetBeatmap", func(t *testing.T) {
		loaded, err := repo.GetBeatmap(ctx, "map-1")
		require.NoError(t, err)
		assert.Equal(t, beatmap, loaded)
	})

	t.Run("SaveBeatmap_Overwrite", func(t *testing.T) {
		beatmap.HitObjects = beatmap.HitObjects[:1]
		require.NoError(t, repo.SaveBeatmap(ctx, "map-1", beatmap))

		loaded, err := repo.GetBeatmap(ctx, "map-1")
		require.NoError(t, err)
		assert.Len(t, loaded.HitObjects, 1)
	})

	t.Run("GetBeatmap_NotFound", func(t *testing.T) {
		_, err := repo.GetBeatmap(ctx, "missing-map")
		assert.ErrorIs(t, err, domain.ErrBeatmapNotFound)
	})
}
