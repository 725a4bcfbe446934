package cache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore implements Store using SQLite for persistence.
// It is suitable for single-instance deployments where cached responses
// should survive restarts. The database runs in WAL mode with a busy
// timeout; eviction order is least-recently-accessed first.
type SQLiteStore struct {
	db         *sql.DB
	dbPath     string
	maxBytes   int64
	maxEntries int
	ttl        time.Duration
	observer   Observer

	mu        sync.RWMutex
	closeOnce sync.Once

	getStmt    *sql.Stmt
	touchStmt  *sql.Stmt
	putStmt    *sql.Stmt
	deleteStmt *sql.Stmt
	totalsStmt *sql.Stmt
	oldestStmt *sql.Stmt
	purgeStmt  *sql.Stmt
}

// SQLiteStoreConfig configures a SQLiteStore.
type SQLiteStoreConfig struct {
	// DBPath is the path to the SQLite database file. Required.
	DBPath string

	// MaxBytes bounds the total resident value size. Required.
	MaxBytes int64

	// MaxEntries bounds the entry count. Zero means unbounded.
	MaxEntries int

	// TTL is the freshness horizon. Zero disables expiry.
	TTL time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// Observer receives eviction and size notifications. Optional.
	Observer Observer
}

// NewSQLiteStore creates a persistent cache store backed by SQLite.
func NewSQLiteStore(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.MaxBytes <= 0 {
		return nil, fmt.Errorf("max bytes must be positive")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{
		db:         db,
		dbPath:     cfg.DBPath,
		maxBytes:   cfg.MaxBytes,
		maxEntries: cfg.MaxEntries,
		ttl:        cfg.TTL,
		observer:   cfg.Observer,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return store, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cache_entries (
		key TEXT PRIMARY KEY,
		body BLOB NOT NULL,
		size_bytes INTEGER NOT NULL,
		stored_at INTEGER NOT NULL,
		last_access INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_last_access ON cache_entries(last_access);
	CREATE INDEX IF NOT EXISTS idx_stored_at ON cache_entries(stored_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.getStmt, err = s.db.Prepare(`
		SELECT body, size_bytes, stored_at FROM cache_entries WHERE key = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}

	s.touchStmt, err = s.db.Prepare(`
		UPDATE cache_entries SET last_access = ? WHERE key = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare touch statement: %w", err)
	}

	s.putStmt, err = s.db.Prepare(`
		INSERT INTO cache_entries (key, body, size_bytes, stored_at, last_access)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			body = excluded.body,
			size_bytes = excluded.size_bytes,
			stored_at = excluded.stored_at,
			last_access = excluded.last_access
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare put statement: %w", err)
	}

	s.deleteStmt, err = s.db.Prepare(`
		DELETE FROM cache_entries WHERE key = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	s.totalsStmt, err = s.db.Prepare(`
		SELECT COUNT(*), COALESCE(SUM(size_bytes), 0) FROM cache_entries
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare totals statement: %w", err)
	}

	s.oldestStmt, err = s.db.Prepare(`
		SELECT key, size_bytes FROM cache_entries
		WHERE key != ?
		ORDER BY last_access ASC, rowid ASC LIMIT 1
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare oldest statement: %w", err)
	}

	s.purgeStmt, err = s.db.Prepare(`
		DELETE FROM cache_entries WHERE stored_at < ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare purge statement: %w", err)
	}

	return nil
}

// Get returns the entry for key, or nil on miss. A TTL-expired entry is
// removed and reported as a miss.
func (s *SQLiteStore) Get(ctx context.Context, key Key) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		body     []byte
		size     int64
		storedAt int64
	)
	err := s.getStmt.QueryRowContext(ctx, string(key)).Scan(&body, &size, &storedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cache entry: %w", err)
	}

	stored := time.Unix(storedAt, 0)
	if s.ttl > 0 && time.Since(stored) > s.ttl {
		if _, err := s.deleteStmt.ExecContext(ctx, string(key)); err != nil {
			return nil, fmt.Errorf("failed to expire cache entry: %w", err)
		}
		s.notify(ctx, 1)
		return nil, nil
	}

	if _, err := s.touchStmt.ExecContext(ctx, time.Now().Unix(), string(key)); err != nil {
		return nil, fmt.Errorf("failed to touch cache entry: %w", err)
	}

	return &Entry{
		Key:       key,
		Value:     body,
		StoredAt:  stored,
		SizeBytes: size,
	}, nil
}

// Put inserts or overwrites the entry for key, then evicts least-recently-
// accessed entries until the store fits its bounds.
func (s *SQLiteStore) Put(ctx context.Context, key Key, value []byte) error {
	size := int64(len(value))
	if size > s.maxBytes {
		return &EntryTooLargeError{Key: key, SizeBytes: size, MaxBytes: s.maxBytes}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	if _, err := s.putStmt.ExecContext(ctx, string(key), value, size, now, now); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}

	evicted, err := s.evictLocked(ctx, key)
	if err != nil {
		return err
	}

	s.notify(ctx, evicted)
	return nil
}

// evictLocked removes least-recently-accessed entries until the store is
// within bounds. The just-written key is protected so an insertion cannot
// evict itself. Caller holds mu.
func (s *SQLiteStore) evictLocked(ctx context.Context, protect Key) (int, error) {
	evicted := 0
	for {
		entries, bytes, err := s.totalsLocked(ctx)
		if err != nil {
			return evicted, err
		}
		if bytes <= s.maxBytes && (s.maxEntries == 0 || entries <= s.maxEntries) {
			return evicted, nil
		}

		var key string
		var size int64
		err = s.oldestStmt.QueryRowContext(ctx, string(protect)).Scan(&key, &size)
		if err == sql.ErrNoRows {
			// Only the protected key remains; it fits by the Put size check.
			return evicted, nil
		}
		if err != nil {
			return evicted, fmt.Errorf("failed to find eviction candidate: %w", err)
		}
		if _, err := s.deleteStmt.ExecContext(ctx, key); err != nil {
			return evicted, fmt.Errorf("failed to evict cache entry: %w", err)
		}
		evicted++
	}
}

// InvalidateAll clears the store.
func (s *SQLiteStore) InvalidateAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries`)
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	dropped, _ := res.RowsAffected()
	s.notify(ctx, int(dropped))
	return nil
}

// PurgeExpired removes all entries past the TTL.
func (s *SQLiteStore) PurgeExpired(ctx context.Context) (int, error) {
	if s.ttl == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.ttl).Unix()
	res, err := s.purgeStmt.ExecContext(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired entries: %w", err)
	}

	purged, _ := res.RowsAffected()
	s.notify(ctx, int(purged))
	return int(purged), nil
}

// Len returns the current number of resident entries.
func (s *SQLiteStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, _, err := s.totalsLocked(context.Background())
	if err != nil {
		return 0
	}
	return entries
}

// SizeBytes returns the current total resident value size.
func (s *SQLiteStore) SizeBytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, bytes, err := s.totalsLocked(context.Background())
	if err != nil {
		return 0
	}
	return bytes
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.db.Close()
	})
	return err
}

// totalsLocked returns the current entry count and byte total. Caller holds mu.
func (s *SQLiteStore) totalsLocked(ctx context.Context) (int, int64, error) {
	var entries int
	var bytes int64
	if err := s.totalsStmt.QueryRowContext(ctx).Scan(&entries, &bytes); err != nil {
		return 0, 0, fmt.Errorf("failed to read cache totals: %w", err)
	}
	return entries, bytes, nil
}

// notify reports evictions and current totals. Caller holds mu.
func (s *SQLiteStore) notify(ctx context.Context, evicted int) {
	if s.observer == nil {
		return
	}
	if evicted > 0 {
		s.observer.Evicted(evicted)
	}
	if entries, bytes, err := s.totalsLocked(ctx); err == nil {
		s.observer.Resized(entries, bytes)
	}
}
