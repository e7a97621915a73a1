package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"autousb/internal/logging"
)

// BuildRecord is one packaging attempt.
type BuildRecord struct {
	ID          string
	Backend     string
	Requested   string
	Destination string
	Tool        string
	SHA256      string
	Success     bool
	Error       string
	CreatedAt   time.Time
	Duration    time.Duration
}

// PublishRecord is one publish attempt.
type PublishRecord struct {
	ID         string
	Volume     string
	Executable string
	Label      string
	Copied     bool
	SHA256     string
	Success    bool
	Error      string
	CreatedAt  time.Time
	Duration   time.Duration
}

// timeLayout has a fixed-width fraction so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// AddBuild stores rec, assigning an ID and timestamp when missing.
func (s *LocalStore) AddBuild(rec *BuildRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fillIdentity(&rec.ID, &rec.CreatedAt)
	_, err := s.db.Exec(`
		INSERT INTO builds (id, backend, requested, destination, tool, sha256, success, error, created_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Backend, rec.Requested, rec.Destination, rec.Tool, rec.SHA256,
		boolToInt(rec.Success), rec.Error, rec.CreatedAt.UTC().Format(timeLayout), rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	logging.StoreDebug("Recorded build %s (success=%v)", rec.ID, rec.Success)
	return nil
}

// AddPublish stores rec, assigning an ID and timestamp when missing.
func (s *LocalStore) AddPublish(rec *PublishRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fillIdentity(&rec.ID, &rec.CreatedAt)
	_, err := s.db.Exec(`
		INSERT INTO publishes (id, volume, executable, label, copied, sha256, success, error, created_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Volume, rec.Executable, rec.Label, boolToInt(rec.Copied), rec.SHA256,
		boolToInt(rec.Success), rec.Error, rec.CreatedAt.UTC().Format(timeLayout), rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert publish: %w", err)
	}
	logging.StoreDebug("Recorded publish %s (success=%v)", rec.ID, rec.Success)
	return nil
}

// RecentBuilds returns up to limit builds, newest first. limit <= 0 means all.
func (s *LocalStore) RecentBuilds(limit int) ([]BuildRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, backend, requested, destination, tool, sha256, success, error, created_at, duration_ms
		FROM builds ORDER BY created_at DESC, rowid DESC LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var out []BuildRecord
	for rows.Next() {
		var rec BuildRecord
		var success int
		var created string
		var durationMS int64
		if err := rows.Scan(&rec.ID, &rec.Backend, &rec.Requested, &rec.Destination, &rec.Tool, &rec.SHA256,
			&success, &rec.Error, &created, &durationMS); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		rec.Success = success != 0
		rec.CreatedAt = parseTime(created)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecentPublishes returns up to limit publishes, newest first. limit <= 0 means all.
func (s *LocalStore) RecentPublishes(limit int) ([]PublishRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, volume, executable, label, copied, sha256, success, error, created_at, duration_ms
		FROM publishes ORDER BY created_at DESC, rowid DESC LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query publishes: %w", err)
	}
	defer rows.Close()

	var out []PublishRecord
	for rows.Next() {
		var rec PublishRecord
		var copied, success int
		var created string
		var durationMS int64
		if err := rows.Scan(&rec.ID, &rec.Volume, &rec.Executable, &rec.Label, &copied, &rec.SHA256,
			&success, &rec.Error, &created, &durationMS); err != nil {
			return nil, fmt.Errorf("scan publish: %w", err)
		}
		rec.Copied = copied != 0
		rec.Success = success != 0
		rec.CreatedAt = parseTime(created)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Stats returns row counts per table.
func (s *LocalStore) Stats() (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]int64)
	for _, table := range []string{"builds", "publishes"} {
		var n int64
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		stats[table] = n
	}
	return stats, nil
}

func fillIdentity(id *string, created *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if created.IsZero() {
		*created = time.Now()
	}
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		logging.StoreWarn("Unparseable timestamp %q: %v", s, err)
		return time.Time{}
	}
	return t
}

func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
