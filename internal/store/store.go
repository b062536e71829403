// Package store persists privacy-conscious site analytics in sqlite:
// visitors with hashed IPs, contact submission outcomes and section reveals.
// No form contents are ever stored.
package store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// VisitorMetric is one tracked page visit.
type VisitorMetric struct {
	ID        int64     `json:"id"`
	HashedIP  string    `json:"hashed_ip"` // Hashed instead of raw IP for privacy
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalVisitors    int64            `json:"total_visitors"`
	UniqueVisitors   int64            `json:"unique_visitors"`
	VisitorsToday    int64            `json:"visitors_today"`
	VisitorsThisWeek int64            `json:"visitors_this_week"`
	Submissions      map[string]int64 `json:"submissions"`
	Reveals          map[string]int64 `json:"reveals"`
	RecentVisitors   []VisitorMetric  `json:"recent_visitors"`
}

// PruneResult counts rows removed by Prune.
type PruneResult struct {
	Visitors    int64 `json:"visitors"`
	Submissions int64 `json:"submissions"`
	Reveals     int64 `json:"reveals"`
}

func (p PruneResult) Total() int64 {
	return p.Visitors + p.Submissions + p.Reveals
}

type Store struct {
	db   *sql.DB
	salt string
	now  func() time.Time
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS visitors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hashed_ip TEXT NOT NULL,  -- Store hashed IP instead of raw IP
		user_agent TEXT,
		path TEXT,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_visitors_created_at ON visitors(created_at)`,
	`CREATE TABLE IF NOT EXISTS submissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		view_id TEXT,
		outcome TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reveals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		view_id TEXT NOT NULL,
		section TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE(view_id, section)
	)`,
}

// Open opens (creating if needed) the database at path. Use ":memory:" for
// a throwaway database.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite serializes writers; one connection also keeps :memory: shared.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, salt: newSalt(), now: time.Now}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func newSalt() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("failed to generate hashing salt: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// HashIP hashes an IP address with the process salt (consistent per IP for
// the life of the process).
func (s *Store) HashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip + s.salt))
	return hex.EncodeToString(hash[:])[:16] // Truncate for storage efficiency
}

func (s *Store) RecordVisit(ctx context.Context, ip, userAgent, path string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO visitors (hashed_ip, user_agent, path, created_at)
		VALUES (?, ?, ?, ?)
	`, s.HashIP(ip), userAgent, path, s.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to record visitor: %w", err)
	}
	return nil
}

// RecordSubmission stores only the outcome of a contact submission.
func (s *Store) RecordSubmission(ctx context.Context, viewID, outcome string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (view_id, outcome, created_at) VALUES (?, ?, ?)
	`, viewID, outcome, s.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}
	return nil
}

// RecordReveal stores a section reveal. Duplicates for the same view are
// ignored.
func (s *Store) RecordReveal(ctx context.Context, viewID, section string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO reveals (view_id, section, created_at) VALUES (?, ?, ?)
	`, viewID, section, s.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to record reveal: %w", err)
	}
	return nil
}

// Stats gathers the dashboard summary.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	now := s.now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	stats := &Stats{
		Submissions: map[string]int64{},
		Reveals:     map[string]int64{},
	}

	counts := []struct {
		query string
		args  []any
		dst   *int64
	}{
		{"SELECT COUNT(*) FROM visitors", nil, &stats.TotalVisitors},
		{"SELECT COUNT(DISTINCT hashed_ip) FROM visitors", nil, &stats.UniqueVisitors},
		{"SELECT COUNT(*) FROM visitors WHERE created_at >= ?", []any{midnight.Unix()}, &stats.VisitorsToday},
		{"SELECT COUNT(*) FROM visitors WHERE created_at >= ?", []any{weekAgo.Unix()}, &stats.VisitorsThisWeek},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("failed to count visitors: %w", err)
		}
	}

	if err := s.groupCount(ctx, "SELECT outcome, COUNT(*) FROM submissions GROUP BY outcome", stats.Submissions); err != nil {
		return nil, err
	}
	if err := s.groupCount(ctx, "SELECT section, COUNT(*) FROM reveals GROUP BY section", stats.Reveals); err != nil {
		return nil, err
	}

	recent, err := s.RecentVisitors(ctx, 50)
	if err != nil {
		return nil, err
	}
	stats.RecentVisitors = recent

	return stats, nil
}

func (s *Store) groupCount(ctx context.Context, query string, into map[string]int64) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("failed to scan counts: %w", err)
		}
		into[key] = n
	}
	return rows.Err()
}

// RecentVisitors returns the newest visits first.
func (s *Store) RecentVisitors(ctx context.Context, limit int) ([]VisitorMetric, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hashed_ip, COALESCE(user_agent, ''), COALESCE(path, ''), created_at
		FROM visitors
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query visitors: %w", err)
	}
	defer rows.Close()

	var visitors []VisitorMetric
	for rows.Next() {
		var v VisitorMetric
		var ts int64
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan visitor: %w", err)
		}
		v.Timestamp = time.Unix(ts, 0).UTC()
		visitors = append(visitors, v)
	}
	return visitors, rows.Err()
}

// Prune deletes rows older than the retention window.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (PruneResult, error) {
	cutoff := s.now().Add(-olderThan).Unix()
	var res PruneResult

	targets := []struct {
		table string
		dst   *int64
	}{
		{"visitors", &res.Visitors},
		{"submissions", &res.Submissions},
		{"reveals", &res.Reveals},
	}
	for _, t := range targets {
		r, err := s.db.ExecContext(ctx, "DELETE FROM "+t.table+" WHERE created_at < ?", cutoff)
		if err != nil {
			return res, fmt.Errorf("failed to prune %s: %w", t.table, err)
		}
		*t.dst, _ = r.RowsAffected()
	}
	return res, nil
}
