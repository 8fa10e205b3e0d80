package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/chrononote/internal/domain"
	"github.com/ashureev/chrononote/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements SessionStore using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	now   func() time.Time
	retry shared.RetryPolicy
}

// NewSQLite creates a new SQLite-backed session store.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode for concurrent readers while a write transaction runs.
	dsn := "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now, retry: shared.DefaultRetryPolicy}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		expires_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);

	CREATE TABLE IF NOT EXISTS session_works (
		session_id TEXT NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		work_id TEXT NOT NULL,
		title TEXT NOT NULL,
		author_or_source TEXT,
		year INTEGER NOT NULL,
		PRIMARY KEY (session_id, position)
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Get returns the session's work list in stored order.
func (s *SQLiteStore) Get(ctx context.Context, sessionID string) ([]domain.WorkItem, error) {
	// Both reads share one snapshot so a concurrent delete cannot surface as
	// an empty list.
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin read transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var expiresAt int64
	err = tx.QueryRowContext(ctx,
		`SELECT expires_at FROM sessions WHERE session_id = ? AND expires_at > ?`,
		sessionID, s.now().UnixMilli(),
	).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT work_id, title, author_or_source, year
		FROM session_works WHERE session_id = ? ORDER BY position`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session works: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close session works rows", "error", closeErr)
		}
	}()

	works := []domain.WorkItem{}
	for rows.Next() {
		var w domain.WorkItem
		var author sql.NullString
		if err := rows.Scan(&w.ID, &w.Title, &author, &w.Year); err != nil {
			return nil, fmt.Errorf("scan session work row: %w", err)
		}
		if author.Valid {
			a := author.String
			w.AuthorOrSource = &a
		}
		works = append(works, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session works: %w", err)
	}

	return works, nil
}

// Save replaces the session's work list in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, sessionID string, works []domain.WorkItem, ttl time.Duration) error {
	return shared.RetryOnConflict(ctx, s.retry, "save session", func() error {
		return s.saveOnce(ctx, sessionID, works, ttl)
	})
}

func (s *SQLiteStore) saveOnce(ctx context.Context, sessionID string, works []domain.WorkItem, ttl time.Duration) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				slog.Warn("failed to roll back save transaction", "error", rbErr)
			}
		}
	}()

	now := s.now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (session_id, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		sessionID, now.Add(ttl).UnixMilli(), now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM session_works WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear session works: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO session_works (session_id, position, work_id, title, author_or_source, year)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare work insert: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			slog.Warn("failed to close work insert statement", "error", closeErr)
		}
	}()

	for i, w := range works {
		var author interface{}
		if w.AuthorOrSource != nil {
			author = *w.AuthorOrSource
		}
		if _, err = stmt.ExecContext(ctx, sessionID, i, w.ID, w.Title, author, w.Year); err != nil {
			return fmt.Errorf("insert work %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save transaction: %w", err)
	}
	return nil
}

// Refresh resets the session's expiry.
func (s *SQLiteStore) Refresh(ctx context.Context, sessionID string, ttl time.Duration) error {
	return shared.RetryOnConflict(ctx, s.retry, "refresh session", func() error {
		now := s.now()
		result, err := s.db.ExecContext(ctx,
			`UPDATE sessions SET expires_at = ?, updated_at = ? WHERE session_id = ? AND expires_at > ?`,
			now.Add(ttl).UnixMilli(), now.UnixMilli(), sessionID, now.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("refresh session: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rows == 0 {
			return ErrSessionNotFound
		}
		return nil
	})
}

// Delete removes the session and its works.
func (s *SQLiteStore) Delete(ctx context.Context, sessionID string) error {
	return shared.RetryOnConflict(ctx, s.retry, "delete session", func() error {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
}

// DeleteExpired purges sessions whose expiry has passed.
func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int64, error) {
	var deleted int64
	err := shared.RetryOnConflict(ctx, s.retry, "delete expired sessions", func() error {
		// session_works rows go with their session via ON DELETE CASCADE.
		result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, s.now().UnixMilli())
		if err != nil {
			return fmt.Errorf("delete expired sessions: %w", err)
		}
		if deleted, err = result.RowsAffected(); err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

var _ SessionStore = (*SQLiteStore)(nil)
