package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// SQLite is a persistent provider backed by an SQLite database.
// Entries survive process restarts.
type SQLite struct {
	db         *sql.DB
	writeMutex *sync.Mutex
}

// NewSQLite creates a new cache with the given filename as the db.
// If file name is empty, a new in-memory db is opened.
func NewSQLite(filename string) SQLite {
	if filename == "" {
		filename = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		panic(err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS cache (
		key TEXT PRIMARY KEY,
		status INTEGER,
		header BLOB,
		body BLOB,
		compression TEXT,
		stored_at INTEGER,
		expires INTEGER
	)`)
	if err != nil {
		panic(err)
	}
	_, err = db.Exec("CREATE INDEX IF NOT EXISTS expires_idx ON cache (expires)")
	if err != nil {
		panic(err)
	}
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		panic(err)
	}
	// keys are URLs and URLs are case sensitive
	_, err = db.Exec("PRAGMA case_sensitive_like=ON")
	if err != nil {
		panic(err)
	}
	return SQLite{
		db:         db,
		writeMutex: &sync.Mutex{},
	}
}

func (s SQLite) Get(key string) (Entry, bool, error) {
	var entry Entry
	var header []byte
	var stored, expires int64
	err := s.db.QueryRow(`SELECT
		key, status, header, body, compression, stored_at, expires
		FROM cache WHERE key = ?`, key).
		Scan(&entry.Key, &entry.Status, &header, &entry.Body, &entry.Compression, &stored, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	if err := json.Unmarshal(header, &entry.Header); err != nil {
		return Entry{}, false, err
	}
	entry.StoredAt = time.UnixMilli(stored)
	if expires > 0 {
		entry.ExpiresAt = time.UnixMilli(expires)
	}
	if entry.Expired() {
		s.Purge(key)
		return Entry{}, false, nil
	}
	return entry, true, nil
}

func (s SQLite) Put(entry Entry) error {
	header, err := json.Marshal(entry.Header)
	if err != nil {
		return err
	}
	var expires int64
	if !entry.ExpiresAt.IsZero() {
		expires = entry.ExpiresAt.UnixMilli()
	}
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err = s.db.Exec(`INSERT OR REPLACE INTO cache
		(key, status, header, body, compression, stored_at, expires) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Key, entry.Status, header, entry.Body, entry.Compression, entry.StoredAt.UnixMilli(), expires)
	return err
}

func (s SQLite) Purge(key string) {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err := s.db.Exec("DELETE FROM cache WHERE key = ?", key)
	if err != nil {
		panic(err)
	}
}

func (s SQLite) PurgePrefix(prefix string) {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err := s.db.Exec("DELETE FROM cache WHERE key LIKE ? ESCAPE '\\'", likePattern(prefix))
	if err != nil {
		panic(err)
	}
}

func (s SQLite) Has(key string) bool {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM cache WHERE key = ?", key).Scan(&one)
	return err == nil
}

func (s SQLite) Keys(prefix string, cb func(string)) {
	rows, err := s.db.Query("SELECT key FROM cache WHERE key LIKE ? ESCAPE '\\'", likePattern(prefix))
	if err != nil {
		return
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return
		}
		cb(key)
	}
}

func (s SQLite) Len() int {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM cache").Scan(&count); err != nil {
		return 0
	}
	return count
}

func (s SQLite) PurgeExpired() {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err := s.db.Exec("DELETE FROM cache WHERE expires > 0 AND expires <= ?", time.Now().UnixMilli())
	if err != nil {
		panic(err)
	}
}

// likePattern turns a plain key prefix into a LIKE pattern matching the
// prefix literally. Keys contain URLs, and URLs contain % and _.
func likePattern(prefix string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	return escaped + "%"
}
