package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

const (
	DefaultName = "Anonymous"
	UnknownUID  = "unknown"
	MaxNameLen  = 24
)

// Entry is one leaderboard row.
type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	UID       string    `json:"uid"`
	CreatedAt time.Time `json:"createdAt"`
}

// NormalizeName trims a player name, caps its length and falls back to
// DefaultName.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxNameLen {
		name = strings.TrimSpace(string([]rune(name)[:MaxNameLen]))
	}
	if name == "" {
		return DefaultName
	}
	return name
}

func normalizeUID(uid string) string {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return UnknownUID
	}
	return uid
}

// Store persists leaderboard scores in Postgres.
type Store struct {
	db *sql.DB
}

// NewStore accepts an existing DB handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// NewStoreFromDB builds the store from a connection string (e.g. os.Getenv("DATABASE_URL")).
func NewStoreFromDB(connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return NewStore(db), nil
}

// Migrate creates the leaderboard table when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS leaderboard (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			score      INTEGER NOT NULL,
			uid        TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS leaderboard_score_idx ON leaderboard (score DESC, created_at ASC);
	`)
	if err != nil {
		return fmt.Errorf("migrate leaderboard: %w", err)
	}
	return nil
}

// InsertScore records a finished match. The timestamp comes from the
// database clock.
func (s *Store) InsertScore(ctx context.Context, name, uid string, score int) (Entry, error) {
	e := Entry{
		ID:    "s_" + uuid.NewString(),
		Name:  NormalizeName(name),
		Score: score,
		UID:   normalizeUID(uid),
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO leaderboard (id, name, score, uid)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, e.ID, e.Name, e.Score, e.UID).Scan(&e.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("insert score for %s: %w", e.Name, err)
	}
	return e, nil
}

// TopScores returns the best limit scores, highest first. Ties go to the
// earlier score. A limit of zero or less returns every score.
func (s *Store) TopScores(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT id, name, score, uid, created_at
		FROM leaderboard
		ORDER BY score DESC, created_at ASC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query top scores: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Score, &e.UID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read top scores: %w", err)
	}
	return entries, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
