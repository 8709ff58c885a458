// Package results keeps finished games in SQLite and ranks them for the
// leaderboard.
package results

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/memory-match-game/game/service"
)

//go:embed sql/*.sql
var migrations embed.FS

// Store implements service.ResultStore on a SQLite database
type Store struct {
	db *sql.DB
}

var _ service.ResultStore = (*Store)(nil)

// Open opens (and creates if missing) the database at path and applies the
// schema. Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
		dsn = path + "?_busy_timeout=5000&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// every connection to :memory: is its own database
		db.SetMaxOpenConns(1)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// migrate applies the embedded sql/*.sql files once each, in name order
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := fs.Glob(migrations, "sql/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("query _migrations: %w", err)
		}

		sqlBytes, err := migrations.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

// Record stores a finished game. Recording the same game twice keeps the first row.
func (s *Store) Record(ctx context.Context, r *service.GameResult) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO game_results
            (game_id, session_id, config_name, moves, pairs, duration_ms, completed_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.GameID, r.SessionID, r.ConfigName, r.Moves, r.Pairs, r.DurationMs, r.CompletedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert game result: %w", err)
	}
	return nil
}

// Leaderboard returns up to limit games, fewest moves first, then fastest,
// then earliest. An empty configName ranks every board together.
func (s *Store) Leaderboard(ctx context.Context, configName string, limit int) ([]*service.GameResult, error) {
	if limit <= 0 {
		limit = service.DefaultLeaderboardLimit
	}

	rows, err := s.db.QueryContext(ctx, `
        SELECT game_id, session_id, config_name, moves, pairs, duration_ms, completed_at
        FROM game_results
        WHERE ? = '' OR config_name = ?
        ORDER BY moves ASC, duration_ms ASC, completed_at ASC
        LIMIT ?`, configName, configName, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	out := make([]*service.GameResult, 0, limit)
	for rows.Next() {
		var r service.GameResult
		if err := rows.Scan(&r.GameID, &r.SessionID, &r.ConfigName, &r.Moves, &r.Pairs, &r.DurationMs, &r.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// Count returns the number of recorded games
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM game_results`).Scan(&n)
	return n, err
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
