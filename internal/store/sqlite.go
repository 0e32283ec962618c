package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	sq "github.com/Masterminds/squirrel"
	"github.com/mattn/go-sqlite3"

	"github.com/mkarpushin/go-journal-keeper/internal/config"
	"github.com/mkarpushin/go-journal-keeper/internal/logger"
	"github.com/mkarpushin/go-journal-keeper/migrations"
	"github.com/mkarpushin/go-journal-keeper/models"
)

const recordsTable = "records"

// sqliteEngine is the SQLite-backed implementation of [Engine]. All records
// live in a single records table keyed by (collection, key); each method is a
// single statement, so atomicity comes from SQLite itself.
type sqliteEngine struct {
	db         *sql.DB
	builder    sq.StatementBuilderType
	quotaBytes int64
	logger     *logger.Logger
}

// NewSQLiteEngine opens (creating if necessary) the SQLite database at
// cfg.DSN, runs pending schema migrations and returns the engine. The DSN
// ":memory:" selects the in-memory engine instead, which does not survive
// restarts and is intended for tests and throwaway sessions.
func NewSQLiteEngine(ctx context.Context, cfg config.Storage, log *logger.Logger) (Engine, error) {
	if cfg.DSN == ":memory:" {
		return NewMemoryEngine(cfg.QuotaBytes), nil
	}

	if err := createLocalDBFileIfNotExists(cfg.DSN); err != nil {
		log.Err(err).Str("func", "NewSQLiteEngine").Msg("error creating database file")
		return nil, fmt.Errorf("error creating database file: %w", err)
	}

	conn, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		log.Err(err).Str("func", "NewSQLiteEngine").Msg("error connecting database")
		return nil, fmt.Errorf("error opening connection to DB: %w", err)
	}

	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "NewSQLiteEngine").Msg("error connecting database (ping)")
		return nil, err
	}

	if err = migrations.Migrate(conn); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	log.Debug().Str("func", "NewSQLiteEngine").Msg("connected to local database successfully")

	return &sqliteEngine{
		db:         conn,
		builder:    sq.StatementBuilder.PlaceholderFormat(sq.Question).RunWith(conn),
		quotaBytes: cfg.QuotaBytes,
		logger:     log,
	}, nil
}

func createLocalDBFileIfNotExists(dbFile string) error {
	if _, err := os.Stat(dbFile); os.IsNotExist(err) {
		f, err := os.Create(dbFile)
		if err != nil {
			return fmt.Errorf("error creating DB file: %w", err)
		}
		f.Close()
	}

	return nil
}

func (e *sqliteEngine) Get(ctx context.Context, collection, key string) ([]byte, error) {
	var value []byte
	err := e.builder.
		Select("value").
		From(recordsTable).
		Where(sq.Eq{"collection": collection, "key": key}).
		QueryRowContext(ctx).
		Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return value, nil
}

func (e *sqliteEngine) Put(ctx context.Context, collection, key string, value []byte) error {
	_, err := e.builder.
		Insert(recordsTable).
		Columns("collection", "key", "value").
		Values(collection, key, value).
		Suffix("ON CONFLICT(collection, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP").
		ExecContext(ctx)
	if err != nil {
		e.logger.Err(err).
			Str("func", "sqliteEngine.Put").
			Str("collection", collection).
			Str("key", key).
			Msg("failed to execute upsert")
		return mapSQLiteError(err)
	}

	return nil
}

func (e *sqliteEngine) Delete(ctx context.Context, collection, key string) error {
	_, err := e.builder.
		Delete(recordsTable).
		Where(sq.Eq{"collection": collection, "key": key}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}

func (e *sqliteEngine) DeleteAll(ctx context.Context, collection string) error {
	_, err := e.builder.
		Delete(recordsTable).
		Where(sq.Eq{"collection": collection}).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}

func (e *sqliteEngine) List(ctx context.Context, collection string) ([]Entry, error) {
	rows, err := e.builder.
		Select("key", "value").
		From(recordsTable).
		Where(sq.Eq{"collection": collection}).
		OrderBy("key ASC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err = rows.Scan(&entry.Key, &entry.Value); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return entries, nil
}

func (e *sqliteEngine) Count(ctx context.Context, collection string) (int, error) {
	var count int
	err := e.builder.
		Select("COUNT(*)").
		From(recordsTable).
		Where(sq.Eq{"collection": collection}).
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return count, nil
}

// EstimateUsage derives used bytes from the SQLite page counters. The figure
// includes free pages not yet returned to the filesystem, so it is an upper
// bound rather than an exact account.
func (e *sqliteEngine) EstimateUsage(ctx context.Context) (models.QuotaSnapshot, error) {
	var pageCount, pageSize int64
	if err := e.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err != nil {
		return models.QuotaSnapshot{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	if err := e.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return models.QuotaSnapshot{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return models.QuotaSnapshot{
		UsedBytes:  pageCount * pageSize,
		QuotaBytes: e.quotaBytes,
	}, nil
}

func (e *sqliteEngine) Close() error {
	return e.db.Close()
}

// mapSQLiteError translates driver-level failures into the engine's sentinel
// errors where a well-known condition can be recognised.
func mapSQLiteError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrFull {
		return fmt.Errorf("%w: %w", ErrStorageFull, err)
	}
	return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
}
