package auth

import (
	"bufio"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// KeyStoreConfig configures a KeyStore.
type KeyStoreConfig struct {
	// KeyFile is the newline-delimited key source file. Entries are either
	// plaintext keys or pre-salted SHA-256 hex digests; both forms may be
	// mixed in one file.
	KeyFile string

	// Salt is the process-wide salt. When empty a random salt is generated
	// and logged once so operators can persist it.
	Salt string

	// RefreshInterval is how often the source file is re-read by Run.
	RefreshInterval time.Duration

	// GenerateIfEmpty generates a random key when the source yields none.
	// When false, an empty key set is a fatal ConfigError.
	GenerateIfEmpty bool

	// Observer receives the key count and generation after every swap of
	// the active set, typically a metrics collector. Optional.
	Observer KeySetObserver
}

// KeySetObserver is notified whenever the active key set changes.
type KeySetObserver interface {
	UpdateKeySet(keys int, generation uint64)
}

// KeyStore loads, salts, hashes, and holds the valid credential set.
//
// The active KeySet is held behind an atomic pointer: a reload builds a
// complete replacement set and swaps it in one step, so in-flight lookups
// observe either the old or the new generation, never a mix. A key removed
// from the source file therefore remains valid for at most RefreshInterval.
type KeyStore struct {
	cfg    KeyStoreConfig
	logger *slog.Logger

	active     atomic.Pointer[KeySet]
	generation atomic.Uint64
}

// NewKeyStore creates a KeyStore and performs the initial load.
//
// If no salt is configured, one is generated and logged at WARN so the
// operator can capture it; pre-salted key files require a configured salt to
// remain verifiable across restarts.
func NewKeyStore(cfg KeyStoreConfig, logger *slog.Logger) (*KeyStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "auth.keystore")

	if cfg.Salt == "" {
		salt, err := randomHex(16)
		if err != nil {
			return nil, &ConfigError{Path: cfg.KeyFile, Message: "failed to generate salt", Cause: err}
		}
		cfg.Salt = salt
		logger.Warn("no salt configured, generated one for this process",
			"salt", cfg.Salt,
		)
	}

	ks := &KeyStore{
		cfg:    cfg,
		logger: logger,
	}

	set, err := ks.load()
	if err != nil {
		// A source file that does not exist yet is only acceptable at
		// startup, and only when key generation may fill the gap. Reload
		// never takes this path: once running, a vanished file is a reload
		// failure that keeps the previous set.
		if !cfg.GenerateIfEmpty || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		set = ks.emptySet()
	}

	if set.Len() == 0 {
		if !cfg.GenerateIfEmpty {
			return nil, &ConfigError{Path: cfg.KeyFile, Message: "no valid keys and key generation is disabled"}
		}
		key, err := ks.generateKey()
		if err != nil {
			return nil, err
		}
		set.credentials[ks.HashKey(key)] = Credential{
			Digest:    ks.HashKey(key),
			CreatedAt: time.Now(),
		}
	}

	ks.active.Store(set)
	ks.notify(set)
	logger.Info("key store initialized",
		"keys", set.Len(),
		"generation", set.Generation,
		"source", cfg.KeyFile,
	)

	return ks, nil
}

// notify pushes the swapped-in set to the configured observer.
func (ks *KeyStore) notify(set *KeySet) {
	if ks.cfg.Observer != nil {
		ks.cfg.Observer.UpdateKeySet(set.Len(), set.Generation)
	}
}

// Contains reports whether the candidate key is in the active set.
//
// The candidate is salted and hashed with the store's salt, located by an
// O(1) map lookup on the fixed-width digest, and confirmed with a
// constant-time byte comparison. Lookup time is independent of the key-set
// size and of whether the candidate is valid.
func (ks *KeyStore) Contains(candidate string) bool {
	digest := ks.HashKey(candidate)
	set := ks.active.Load()

	stored, ok := set.credentials[digest]
	if !ok {
		// Burn the same comparison work for unknown keys so the rejection
		// path is not observably faster.
		subtle.ConstantTimeCompare([]byte(digest), []byte(digest))
		return false
	}

	return subtle.ConstantTimeCompare([]byte(stored.Digest), []byte(digest)) == 1
}

// HashKey returns the salted SHA-256 hex digest of a plaintext key.
func (ks *KeyStore) HashKey(key string) string {
	return SaltedDigest(key, ks.cfg.Salt)
}

// Active returns the current KeySet snapshot.
func (ks *KeyStore) Active() *KeySet {
	return ks.active.Load()
}

// Reload re-reads the key source file and atomically swaps the active set.
//
// Reload failures during operation are not fatal: the previous set stays
// active and the error is returned for logging. That includes a source file
// that has gone missing, so a generated-key deployment keeps its startup key
// across refresh ticks. A file that exists but yields no keys does revoke
// everything.
func (ks *KeyStore) Reload() error {
	set, err := ks.load()
	if err != nil {
		return err
	}

	prev := ks.active.Swap(set)
	ks.notify(set)
	if prev == nil || prev.Len() != set.Len() {
		ks.logger.Info("key set reloaded",
			"keys", set.Len(),
			"generation", set.Generation,
		)
	}
	return nil
}

// Run re-reads the key source on the configured interval until the context
// is cancelled. It is the timer-driven half of key refresh; a file watcher
// can additionally call Reload for immediate pickup.
func (ks *KeyStore) Run(ctx context.Context) {
	ticker := time.NewTicker(ks.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ks.Reload(); err != nil {
				ks.logger.Warn("key refresh failed, keeping previous set", "error", err)
			}
		}
	}
}

// load reads the source file into a new KeySet. Blank lines are ignored,
// malformed lines are skipped with a warning, and everything else is either
// a pre-salted digest (64 hex chars) or a plaintext key to salt and hash.
func (ks *KeyStore) load() (*KeySet, error) {
	set := ks.emptySet()
	now := set.LoadedAt

	f, err := os.Open(ks.cfg.KeyFile)
	if err != nil {
		return nil, &ConfigError{Path: ks.cfg.KeyFile, Message: "unreadable", Cause: err}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.ContainsAny(line, " \t") {
			ks.logger.Warn("skipping malformed key file line",
				"line", lineNo,
			)
			continue
		}

		var digest string
		if isHexDigest(line) {
			digest = strings.ToLower(line)
		} else {
			digest = ks.HashKey(line)
		}

		set.credentials[digest] = Credential{Digest: digest, CreatedAt: now}
	}
	if err := scanner.Err(); err != nil {
		return nil, &ConfigError{Path: ks.cfg.KeyFile, Message: "read failed", Cause: err}
	}

	return set, nil
}

// emptySet allocates a fresh KeySet at the next generation.
func (ks *KeyStore) emptySet() *KeySet {
	return &KeySet{
		Generation:  ks.generation.Add(1),
		credentials: make(map[string]Credential),
		LoadedAt:    time.Now(),
	}
}

// generateKey produces a cryptographically random key and logs it once for
// operator capture. The plaintext is not persisted anywhere else.
func (ks *KeyStore) generateKey() (string, error) {
	key, err := randomHex(16)
	if err != nil {
		return "", &ConfigError{Path: ks.cfg.KeyFile, Message: "failed to generate fallback key", Cause: err}
	}

	ks.logger.Warn("no API keys loaded, generated a random key; capture it now, it will not be shown again",
		"api_key", key,
	)
	return key, nil
}

// SaltedDigest returns the salted SHA-256 hex digest of a plaintext key.
// This is the on-disk format for pre-hashed key file entries.
func SaltedDigest(key, salt string) string {
	sum := sha256.Sum256([]byte(key + saltSeparator + salt))
	return hex.EncodeToString(sum[:])
}

// NewRandomKey generates a cryptographically random API key.
func NewRandomKey() (string, error) {
	return randomHex(16)
}

// NewRandomSalt generates a cryptographically random salt.
func NewRandomSalt() (string, error) {
	return randomHex(16)
}

// IsDigest reports whether an entry is in pre-salted digest form rather than
// a plaintext key.
func IsDigest(entry string) bool {
	return isHexDigest(entry)
}

// isHexDigest reports whether a line is a pre-salted SHA-256 hex digest.
func isHexDigest(s string) bool {
	if len(s) != DigestLen {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
