package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/notex/internal/client/migrations"
	"github.com/dmitrijs2005/notex/internal/logging"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// MemoryPath is the path reported by a cache that fell back to memory.
const MemoryPath = ":memory:"

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

func openDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Open opens the cache stored at path, creating it when missing.
//
// A file that is not a usable database is renamed to
// "<path>.corrupt-<unix seconds>" and a fresh one is created in its place.
// If that fails as well the cache lives in memory for this run. Open never
// returns an unusable Cache.
func Open(ctx context.Context, path string, log logging.Logger) *Cache {
	log = log.With("component", "cache")

	db, err := openDB(ctx, path)
	if err == nil {
		log.Debug(ctx, "cache opened", "path", path)
		return newCache(db, path, log)
	}
	log.Warn(ctx, "cache unreadable", "path", path, "error", err)

	if path != MemoryPath {
		if moved, mvErr := moveAside(path, time.Now()); mvErr != nil {
			log.Warn(ctx, "failed to move corrupt cache aside", "path", path, "error", mvErr)
		} else if moved != "" {
			log.Warn(ctx, "corrupt cache moved aside", "path", path, "moved_to", moved)
		}

		if db, err = openDB(ctx, path); err == nil {
			return newCache(db, path, log)
		}
		log.Warn(ctx, "cache recreation failed, falling back to memory", "path", path, "error", err)
	}

	db, err = openDB(ctx, MemoryPath)
	if err != nil {
		log.Error(ctx, "in-memory cache failed, persistence disabled", "error", err)
		return newCache(nil, MemoryPath, log)
	}
	return newCache(db, MemoryPath, log)
}

// moveAside renames path to path.corrupt-<unix>. It returns "" when path does
// not exist.
func moveAside(path string, now time.Time) (string, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	target := fmt.Sprintf("%s.corrupt-%d", path, now.Unix())
	if err := os.Rename(path, target); err != nil {
		return "", err
	}
	for _, suffix := range []string{"-wal", "-shm", "-journal"} {
		_ = os.Remove(path + suffix)
	}
	return target, nil
}
