package cache

import (
	"context"
	"fmt"
	"time"
)

// Key is the deterministic fingerprint of a generate request, derived from
// its output-affecting fields. See ComputeKey.
type Key string

// Entry is a cached response artifact. Entries are immutable once stored:
// an entry is either absent or fully present and valid.
type Entry struct {
	// Key is the request fingerprint this entry was stored under.
	Key Key

	// Value is the raw upstream response body.
	Value []byte

	// StoredAt is when the entry was written.
	StoredAt time.Time

	// SizeBytes is len(Value), tracked for byte accounting.
	SizeBytes int64
}

// Store is a content-addressed response cache bounded by total byte size
// and, optionally, entry count.
//
// Implementations must be safe for concurrent use. Get never triggers
// upstream calls; expired entries are treated as absent and removed lazily.
type Store interface {
	// Get returns the entry for key, or nil if absent or expired.
	Get(ctx context.Context, key Key) (*Entry, error)

	// Put inserts or overwrites the entry for key, evicting least-recently-
	// used entries until the insertion fits within the configured bounds.
	// A value larger than the total byte bound is rejected with
	// EntryTooLargeError.
	Put(ctx context.Context, key Key, value []byte) error

	// InvalidateAll clears the store. Safe to call concurrently with Get
	// and Put.
	InvalidateAll(ctx context.Context) error

	// PurgeExpired removes entries older than the configured TTL and
	// returns how many were removed. A no-op when no TTL is configured.
	PurgeExpired(ctx context.Context) (int, error)

	// Len returns the current number of resident entries.
	Len() int

	// SizeBytes returns the current total resident value size.
	SizeBytes() int64

	// Close releases backend resources.
	Close() error
}

// Observer receives cache lifecycle notifications, typically a metrics
// collector. All methods must be cheap and non-blocking.
type Observer interface {
	// Evicted is called when entries are evicted or expired.
	Evicted(count int)

	// Resized is called after a mutation with the new resident totals.
	Resized(entries int, bytes int64)
}

// EntryTooLargeError is returned by Put when a single value exceeds the
// store's total byte bound. Such values are never cached; evicting the whole
// store for one entry would be worse than not caching it.
type EntryTooLargeError struct {
	Key       Key
	SizeBytes int64
	MaxBytes  int64
}

// Error implements the error interface.
func (e *EntryTooLargeError) Error() string {
	return fmt.Sprintf("cache entry %s is %d bytes, larger than the %d byte bound", e.Key, e.SizeBytes, e.MaxBytes)
}

// MalformedRequestError is returned by ComputeKey when the request body is
// not a JSON object. The handler maps it to a 400 response.
type MalformedRequestError struct {
	Cause error
}

// Error implements the error interface.
func (e *MalformedRequestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed generate request: %v", e.Cause)
	}
	return "malformed generate request"
}

// Unwrap returns the underlying error for error chain support.
func (e *MalformedRequestError) Unwrap() error {
	return e.Cause
}
