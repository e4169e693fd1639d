package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/UnknownOlympus/helios/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// NewDatabase opens a connection pool and verifies it with a ping.
func NewDatabase(host, port, user, password, name string) (*pgxpool.Pool, error) {
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, password),
		Host:   net.JoinHostPort(host, port),
		Path:   name,
	}

	pool, err := pgxpool.New(context.Background(), dsn.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err = pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// LookupCoordinates returns the cached coordinates for a normalized query resolved by provider.
// It returns ErrCacheMiss when nothing is cached.
func (r *Repository) LookupCoordinates(
	ctx context.Context,
	provider, query string,
) (*models.Coordinates, error) {
	const stmt = `
		SELECT latitude, longitude
		FROM geocode_cache
		WHERE provider = $1 AND query = $2;
	`

	var coords models.Coordinates
	err := r.db.QueryRow(ctx, stmt, provider, query).Scan(&coords.Latitude, &coords.Longitude)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cached coordinates: %w", err)
	}

	r.log.DebugContext(ctx, "Cached coordinates found", "provider", provider, "query", query)

	return &coords, nil
}

// SaveCoordinates stores or refreshes the coordinates for a normalized query.
func (r *Repository) SaveCoordinates(
	ctx context.Context,
	provider, query string,
	coords models.Coordinates,
) error {
	const stmt = `
		INSERT INTO geocode_cache (provider, query, latitude, longitude, resolved_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (provider, query) DO UPDATE
		SET latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			resolved_at = EXCLUDED.resolved_at;
	`

	_, err := r.db.Exec(ctx, stmt, provider, query, coords.Latitude, coords.Longitude)
	if err != nil {
		return fmt.Errorf("failed to save cached coordinates: %w", err)
	}

	return nil
}
