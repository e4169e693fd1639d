package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/UnknownOlympus/helios/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrCacheMiss is returned when no coordinates are cached for a query.
var ErrCacheMiss = errors.New("geocode cache miss")

// Database is the subset of pgxpool.Pool used by the repository.
type Database interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	db  Database
	log *slog.Logger
}

// Interface is the geocode cache contract consumed by the geocoding package.
type Interface interface {
	LookupCoordinates(ctx context.Context, provider, query string) (*models.Coordinates, error)
	SaveCoordinates(ctx context.Context, provider, query string, coords models.Coordinates) error
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}
