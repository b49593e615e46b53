package indexcache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

// GlobalCap is the maximum number of repo entries the global index
// retains; the oldest (by lastModified) are evicted past this cap.
const GlobalCap = 10

// CleanupInterval is the minimum time between auto-cleanup passes.
const CleanupInterval = 24 * time.Hour

// GlobalEntry is one repository's record in the global index.
type GlobalEntry struct {
	ProjectPath  string
	ProjectName  string
	CreatedAt    time.Time
	LastModified time.Time
	Version      string
}

// GlobalIndex is the process-wide, cross-repo index of cached projects.
// It is backed by a SQLite database (a projects table plus a meta table
// holding the last cleanup time, mirroring the teacher's internal/db
// WAL-mode opening idiom) because, unlike a
// per-repo cache directory, this state is genuinely shared across
// concurrent processes. Writes additionally take a sidecar file lock
// per spec.md §5's "updated under a file-level lock" requirement.
type GlobalIndex struct {
	db   *sql.DB
	lock *flock.Flock
	path string
}

const globalSchema = `
CREATE TABLE IF NOT EXISTS projects (
	project_path  TEXT PRIMARY KEY,
	project_name  TEXT NOT NULL,
	created_at    DATETIME NOT NULL,
	last_modified DATETIME NOT NULL,
	version       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// DefaultGlobalIndexPath returns the default location of the global
// index database under the user's home directory.
func DefaultGlobalIndexPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".repowiki", "global-index.db")
}

// OpenGlobalIndex opens (creating if necessary) the global index
// database at path.
func OpenGlobalIndex(path string) (*GlobalIndex, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("indexcache: create global index dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("indexcache: open global index: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("indexcache: ping global index: %w", err)
	}
	if _, err := db.Exec(globalSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("indexcache: migrate global index: %w", err)
	}

	return &GlobalIndex{
		db:   db,
		lock: flock.New(path + ".lock"),
		path: path,
	}, nil
}

// Close releases the database handle.
func (g *GlobalIndex) Close() error {
	return g.db.Close()
}

// Touch records a build/update for the given project, creating the
// entry if new, and enforces GlobalCap by evicting the oldest entries
// beyond it. evicted lists the project paths dropped, so the caller
// can clear their per-repo cache directories.
func (g *GlobalIndex) Touch(projectPath, projectName string) (evicted []string, err error) {
	if err := g.lock.Lock(); err != nil {
		return nil, fmt.Errorf("indexcache: lock global index: %w", err)
	}
	defer g.lock.Unlock()

	now := time.Now()

	tx, err := g.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("indexcache: begin tx: %w", err)
	}
	defer tx.Rollback()

	var createdAt time.Time
	row := tx.QueryRow(`SELECT created_at FROM projects WHERE project_path = ?`, projectPath)
	if scanErr := row.Scan(&createdAt); scanErr != nil {
		createdAt = now
	}

	_, err = tx.Exec(`
		INSERT INTO projects (project_path, project_name, created_at, last_modified, version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(project_path) DO UPDATE SET
			project_name = excluded.project_name,
			last_modified = excluded.last_modified,
			version = excluded.version
	`, projectPath, projectName, createdAt, now, SchemaVersion)
	if err != nil {
		return nil, fmt.Errorf("indexcache: upsert project: %w", err)
	}

	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM projects`).Scan(&count); err != nil {
		return nil, fmt.Errorf("indexcache: count projects: %w", err)
	}

	if count > GlobalCap {
		rows, err := tx.Query(`SELECT project_path FROM projects ORDER BY last_modified ASC LIMIT ?`, count-GlobalCap)
		if err != nil {
			return nil, fmt.Errorf("indexcache: select oldest: %w", err)
		}
		var toEvict []string
		for rows.Next() {
			var p string
			if err := rows.Scan(&p); err != nil {
				rows.Close()
				return nil, fmt.Errorf("indexcache: scan oldest: %w", err)
			}
			toEvict = append(toEvict, p)
		}
		rows.Close()

		for _, p := range toEvict {
			if _, err := tx.Exec(`DELETE FROM projects WHERE project_path = ?`, p); err != nil {
				return nil, fmt.Errorf("indexcache: evict %s: %w", p, err)
			}
		}
		evicted = toEvict
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("indexcache: commit tx: %w", err)
	}
	return evicted, nil
}

// Entries returns every tracked project, most recently modified first.
func (g *GlobalIndex) Entries() ([]GlobalEntry, error) {
	rows, err := g.db.Query(`SELECT project_path, project_name, created_at, last_modified, version FROM projects ORDER BY last_modified DESC`)
	if err != nil {
		return nil, fmt.Errorf("indexcache: query entries: %w", err)
	}
	defer rows.Close()

	var entries []GlobalEntry
	for rows.Next() {
		var e GlobalEntry
		if err := rows.Scan(&e.ProjectPath, &e.ProjectName, &e.CreatedAt, &e.LastModified, &e.Version); err != nil {
			return nil, fmt.Errorf("indexcache: scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Remove deletes a single project's entry from the global index (does
// not touch its per-repo cache directory; the caller owns that).
func (g *GlobalIndex) Remove(projectPath string) error {
	if err := g.lock.Lock(); err != nil {
		return fmt.Errorf("indexcache: lock global index: %w", err)
	}
	defer g.lock.Unlock()

	_, err := g.db.Exec(`DELETE FROM projects WHERE project_path = ?`, projectPath)
	if err != nil {
		return fmt.Errorf("indexcache: remove %s: %w", projectPath, err)
	}
	return nil
}

// CleanupDue reports whether more than CleanupInterval has elapsed
// since the last recorded cleanup pass.
func (g *GlobalIndex) CleanupDue() bool {
	var value string
	err := g.db.QueryRow(`SELECT value FROM meta WHERE key = 'lastCleanup'`).Scan(&value)
	if err != nil {
		return true // never cleaned up
	}
	last, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return true
	}
	return time.Since(last) > CleanupInterval
}

// MarkCleanupDone records the current time as the last cleanup pass.
func (g *GlobalIndex) MarkCleanupDone() error {
	if err := g.lock.Lock(); err != nil {
		return fmt.Errorf("indexcache: lock global index: %w", err)
	}
	defer g.lock.Unlock()

	_, err := g.db.Exec(`
		INSERT INTO meta (key, value) VALUES ('lastCleanup', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("indexcache: mark cleanup: %w", err)
	}
	return nil
}
