// Package storage provides SQLite-based persistence for match results and
// bot scores. Uses the pure-Go modernc.org/sqlite driver to avoid CGO
// dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/tui-pong/internal/core"
	"github.com/vovakirdan/tui-pong/internal/session"
)

// DefaultPath is where the CLI keeps its database.
const DefaultPath = "~/.pong/pong.db"

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// ScoreEntry represents a single score record.
type ScoreEntry struct {
	ID        int64
	Mode      session.Mode
	Score     int
	CreatedAt time.Time
}

// MatchRecord is a stored match result.
type MatchRecord struct {
	ID         int64
	MatchID    string
	Mode       session.Mode
	Left       string
	Right      string
	ScoreLeft  int
	ScoreRight int
	Winner     string // empty when nobody won
	EndReason  string // "completed", "opponent left", "quit", "cancelled"
	Duration   time.Duration
	StartedAt  time.Time
	CreatedAt  time.Time
}

// ModeStats contains aggregated statistics for a mode.
type ModeStats struct {
	Mode       session.Mode
	Played     int
	Completed  int
	LastPlayed time.Time
}

const sqliteTime = "2006-01-02 15:04:05"

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			mode TEXT NOT NULL,
			score INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_scores_top ON scores(mode, score DESC);

		CREATE TABLE IF NOT EXISTS matches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id TEXT NOT NULL UNIQUE,
			mode TEXT NOT NULL,
			left_name TEXT NOT NULL,
			right_name TEXT NOT NULL,
			score_left INTEGER NOT NULL DEFAULT 0,
			score_right INTEGER NOT NULL DEFAULT 0,
			winner TEXT,
			end_reason TEXT NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_matches_mode ON matches(mode);
		CREATE INDEX IF NOT EXISTS idx_matches_created ON matches(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveScore records a new score for the given mode.
// Returns the ID of the inserted record.
func (s *Store) SaveScore(mode session.Mode, score int) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO scores (mode, score) VALUES (?, ?)",
		string(mode), score,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save score: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// TopScores retrieves the top N scores for the given mode.
// Results are ordered by score descending.
func (s *Store) TopScores(mode session.Mode, limit int) ([]ScoreEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, mode, score, created_at
		 FROM scores
		 WHERE mode = ?
		 ORDER BY score DESC, id ASC
		 LIMIT ?`,
		string(mode), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query scores: %w", err)
	}
	defer rows.Close()

	var entries []ScoreEntry
	for rows.Next() {
		var e ScoreEntry
		var mode string
		var createdAt any
		if err := rows.Scan(&e.ID, &mode, &e.Score, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.Mode = session.Mode(mode)
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// HighScore returns the highest score for the given mode.
// Returns 0 if no scores exist.
func (s *Store) HighScore(mode session.Mode) (int, error) {
	var score sql.NullInt64
	err := s.db.QueryRow(
		"SELECT MAX(score) FROM scores WHERE mode = ?",
		string(mode),
	).Scan(&score)

	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}

	if !score.Valid {
		return 0, nil
	}

	return int(score.Int64), nil
}

// ClearScores deletes all scores for the given mode.
func (s *Store) ClearScores(mode session.Mode) error {
	_, err := s.db.Exec("DELETE FROM scores WHERE mode = ?", string(mode))
	if err != nil {
		return fmt.Errorf("storage: cannot clear scores: %w", err)
	}
	return nil
}

// SaveMatch records a match result.
// Returns the ID of the inserted record.
func (s *Store) SaveMatch(m MatchRecord) (int64, error) {
	var started any
	if !m.StartedAt.IsZero() {
		started = m.StartedAt.UTC().Format(sqliteTime)
	}
	res, err := s.db.Exec(
		`INSERT INTO matches
		 (match_id, mode, left_name, right_name, score_left, score_right, winner, end_reason, duration_ms, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.MatchID,
		string(m.Mode),
		m.Left,
		m.Right,
		m.ScoreLeft,
		m.ScoreRight,
		nullString(m.Winner),
		m.EndReason,
		m.Duration.Milliseconds(),
		started,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save match: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// RecordMatch implements session.Recorder. A completed bot match also
// stores the player's points as a score.
func (s *Store) RecordMatch(r session.Result) error {
	_, err := s.SaveMatch(MatchRecord{
		MatchID:    r.ID,
		Mode:       r.Mode,
		Left:       r.Left,
		Right:      r.Right,
		ScoreLeft:  r.Score.Left,
		ScoreRight: r.Score.Right,
		Winner:     r.WinnerName,
		EndReason:  r.Reason.String(),
		Duration:   r.Duration,
		StartedAt:  r.StartedAt,
	})
	if err != nil {
		return err
	}
	if r.Mode == session.ModeBot && r.Reason == session.EndCompleted {
		if _, err := s.SaveScore(r.Mode, r.Score.Of(core.SideLeft)); err != nil {
			return err
		}
	}
	return nil
}

// Ensure Store implements session.Recorder
var _ session.Recorder = (*Store)(nil)

const matchColumns = `id, match_id, mode, left_name, right_name,
		score_left, score_right, winner, end_reason, duration_ms, started_at, created_at`

// MatchByID retrieves a match by its match ID. It returns nil when there is
// no such match.
func (s *Store) MatchByID(matchID string) (*MatchRecord, error) {
	row := s.db.QueryRow(
		`SELECT `+matchColumns+`
		 FROM matches
		 WHERE match_id = ?`,
		matchID,
	)
	m, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query match: %w", err)
	}
	return &m, nil
}

// RecentMatches retrieves the most recent matches, optionally of one mode.
func (s *Store) RecentMatches(mode session.Mode, limit int) ([]MatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT `+matchColumns+`
		 FROM matches
		 WHERE ? = '' OR mode = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		string(mode), string(mode), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query matches: %w", err)
	}
	defer rows.Close()

	var results []MatchRecord
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		results = append(results, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return results, nil
}

// Stats retrieves statistics for every mode that has been played.
func (s *Store) Stats() (map[session.Mode]*ModeStats, error) {
	rows, err := s.db.Query(
		`SELECT mode, COUNT(*), SUM(CASE WHEN end_reason = ? THEN 1 ELSE 0 END), MAX(created_at)
		 FROM matches
		 GROUP BY mode`,
		session.EndCompleted.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[session.Mode]*ModeStats)
	for rows.Next() {
		var st ModeStats
		var mode string
		var lastPlayed any
		if err := rows.Scan(&mode, &st.Played, &st.Completed, &lastPlayed); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		st.Mode = session.Mode(mode)
		st.LastPlayed = parseTime(lastPlayed)
		stats[st.Mode] = &st
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return stats, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMatch(sc scanner) (MatchRecord, error) {
	var m MatchRecord
	var mode string
	var winner sql.NullString
	var durationMS int64
	var startedAt, createdAt any

	err := sc.Scan(
		&m.ID,
		&m.MatchID,
		&mode,
		&m.Left,
		&m.Right,
		&m.ScoreLeft,
		&m.ScoreRight,
		&winner,
		&m.EndReason,
		&durationMS,
		&startedAt,
		&createdAt,
	)
	if err != nil {
		return m, err
	}

	m.Mode = session.Mode(mode)
	if winner.Valid {
		m.Winner = winner.String
	}
	m.Duration = time.Duration(durationMS) * time.Millisecond
	m.StartedAt = parseTime(startedAt)
	m.CreatedAt = parseTime(createdAt)
	return m, nil
}

// parseTime handles both time.Time and string datetimes.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse(sqliteTime, v); err == nil {
			return parsed
		}
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
