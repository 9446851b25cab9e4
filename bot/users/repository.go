package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/dallebot/core/logger"
	"log/slog"
)

// ErrNotFound is returned when no account row exists for the id.
var ErrNotFound = errors.New("users: not found")

// Repository stores accounts in Postgres via sqlx.
type Repository struct {
	db *sqlx.DB
}

// NewRepository wraps the shared database handle.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// GetByID loads a single account. Returns ErrNotFound for unknown ids.
func (r *Repository) GetByID(ctx context.Context, id int64) (User, error) {
	var u User
	err := r.db.GetContext(ctx, &u,
		`SELECT id, banned, api_key, image_count, image_size, created_at
		   FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("users: get %d: %w", id, err)
	}
	return u, nil
}

// GetOrCreate loads the account, inserting a fresh row on first contact.
// New rows are seeded with the configured generation size and the number of
// images each generation call requests.
func (r *Repository) GetOrCreate(ctx context.Context, id int64, defaultImageSize string, defaultImageCount int) (User, bool, error) {
	u, err := r.GetByID(ctx, id)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, false, err
	}

	err = r.db.GetContext(ctx, &u,
		`INSERT INTO users (id, image_size, image_count) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		 RETURNING id, banned, api_key, image_count, image_size, created_at`,
		id, defaultImageSize, defaultImageCount)
	if err != nil {
		return User{}, false, fmt.Errorf("users: create %d: %w", id, err)
	}

	logger.Info(ctx, "service.users", "user.created", slog.Int64("user_id", id))
	return u, true, nil
}

// SetBan flips the ban flag.
func (r *Repository) SetBan(ctx context.Context, id int64, banned bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET banned = $2 WHERE id = $1`, id, banned)
	if err != nil {
		return fmt.Errorf("users: set ban %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	logger.Info(ctx, "service.users", "user.ban.updated",
		slog.Int64("user_id", id),
		slog.Bool("banned", banned),
	)
	return nil
}

// SetAPIKey stores the user's own key; empty clears it.
func (r *Repository) SetAPIKey(ctx context.Context, id int64, apiKey string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET api_key = $2 WHERE id = $1`, id, apiKey)
	if err != nil {
		return fmt.Errorf("users: set api key %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	logger.Info(ctx, "service.users", "user.apikey.updated",
		slog.Int64("user_id", id),
		slog.Bool("cleared", apiKey == ""),
	)
	return nil
}

// Stats summarises the user table for the admin panel.
type Stats struct {
	Total  int `db:"total"`
	Banned int `db:"banned"`
}

// GetStats counts all and banned accounts in one round trip.
func (r *Repository) GetStats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.db.GetContext(ctx, &s,
		`SELECT COUNT(*) AS total,
		        COUNT(*) FILTER (WHERE banned) AS banned
		   FROM users`)
	if err != nil {
		return Stats{}, fmt.Errorf("users: stats: %w", err)
	}
	return s, nil
}

// ListIDs returns ids of accounts eligible for broadcast delivery.
func (r *Repository) ListIDs(ctx context.Context, includeBanned bool) ([]int64, error) {
	query := `SELECT id FROM users`
	if !includeBanned {
		query += ` WHERE NOT banned`
	}
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("users: list ids: %w", err)
	}
	return ids, nil
}
