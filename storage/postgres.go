package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"beatsync/domain"
	"beatsync/editor"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresRepo{pool: pool}, nil
}

func (pgr *PostgresRepo) GetUserById(ctx context.Context, id string) (domain.User, error) {
	user := domain.User{Id: id}

	row := pgr.pool.QueryRow(ctx, "SELECT username, display_name FROM users WHERE id = $1", id)

	err := row.Scan(&user.Username, &user.DisplayName)

	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return domain.User{}, domain.ErrUserNotFound
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return domain.User{}, err
		default:
			return domain.User{}, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
		}
	}

	return user, nil
}

func (pgr *PostgresRepo) CreateUser(ctx context.Context, username, displayName string) (string, error) {
	row := pgr.pool.QueryRow(ctx,
		"INSERT INTO users(username, display_name) VALUES($1, $2) RETURNING id",
		username, displayName)

	var id string
	err := row.Scan(&id)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}

	return id, nil
}

// GetBeatmap loads the stored document for an editing session.
func (pgr *PostgresRepo) GetBeatmap(ctx context.Context, beatmapId string) (editor.Beatmap, error) {
	row := pgr.pool.QueryRow(ctx, "SELECT data FROM beatmaps WHERE id = $1", beatmapId)

	var data []byte
	err := row.Scan(&data)

	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return editor.Beatmap{}, domain.ErrBeatmapNotFound
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return editor.Beatmap{}, err
		default:
			return editor.Beatmap{}, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
		}
	}

	var beatmap editor.Beatmap
	if err := json.Unmarshal(data, &beatmap); err != nil {
		return editor.Beatmap{}, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}

	return beatmap, nil
}

// SaveBeatmap persists the final document when a session winds down.
func (pgr *PostgresRepo) SaveBeatmap(ctx context.Context, beatmapId string, beatmap editor.Beatmap) error {
	data, err := json.Marshal(beatmap)
	if err != nil {
		return err
	}

	_, err = pgr.pool.Exec(ctx,
		`INSERT INTO beatmaps(id, data) VALUES($1, $2)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		beatmapId, data)

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}

	return nil
}

