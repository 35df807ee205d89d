package assets

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Manifest is a SQLite log of completed asset downloads, used for build
// reporting. The filesystem stays the authority on what is cached; the
// manifest is never consulted for existence checks.
type Manifest struct {
	db *sql.DB
}

// ManifestEntry describes one downloaded asset.
type ManifestEntry struct {
	SourceURL string
	LocalPath string
	Size      int64
	FetchedAt string
}

// OpenManifest opens (or creates) the manifest database at path, ensuring
// the parent directory exists.
func OpenManifest(path string) (*Manifest, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL plus a busy timeout lets concurrent batch downloads record entries
	// without tripping over SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	m := &Manifest{db: db}
	if err := m.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

// Close closes the underlying database connection.
func (m *Manifest) Close() error {
	return m.db.Close()
}

func (m *Manifest) ensureSchema() error {
	_, err := m.db.Exec(`
CREATE TABLE IF NOT EXISTS assets (
    local_path TEXT PRIMARY KEY,
    source_url TEXT NOT NULL,
    size INTEGER NOT NULL,
    fetched_at TEXT NOT NULL
);
`)
	return err
}

// Record upserts the manifest entry for a downloaded asset.
func (m *Manifest) Record(sourceURL, localPath string, size int) error {
	_, err := m.db.Exec(`INSERT OR REPLACE INTO assets (local_path, source_url, size, fetched_at) VALUES (?, ?, ?, ?)`,
		localPath, sourceURL, size, time.Now().UTC().Format(time.RFC3339))
	return err
}

// List returns all recorded assets, most recently fetched first.
func (m *Manifest) List() ([]ManifestEntry, error) {
	rows, err := m.db.Query(`SELECT source_url, local_path, size, fetched_at FROM assets ORDER BY fetched_at DESC, local_path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ManifestEntry
	for rows.Next() {
		var e ManifestEntry
		if err := rows.Scan(&e.SourceURL, &e.LocalPath, &e.Size, &e.FetchedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of recorded assets.
func (m *Manifest) Count() (int, error) {
	var n int
	err := m.db.QueryRow(`SELECT COUNT(*) FROM assets`).Scan(&n)
	return n, err
}
