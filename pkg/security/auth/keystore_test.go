package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func writeKeyFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "api_keys.txt")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600); err != nil {
		t.Fatalf("failed to write key file: %v", err)
	}
	return path
}

func newTestStore(t *testing.T, path string) *KeyStore {
	t.Helper()
	store, err := NewKeyStore(KeyStoreConfig{
		KeyFile:         path,
		Salt:            "test-salt",
		RefreshInterval: 2 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewKeyStore() error = %v", err)
	}
	return store
}

func TestSaltedDigest(t *testing.T) {
	// The digest is sha256(key + "@separator@" + salt), hex encoded.
	sum := sha256.Sum256([]byte("alpha" + "@separator@" + "test-salt"))
	want := hex.EncodeToString(sum[:])

	if got := SaltedDigest("alpha", "test-salt"); got != want {
		t.Errorf("SaltedDigest() = %q, want %q", got, want)
	}
}

func TestKeyStoreContains(t *testing.T) {
	path := writeKeyFile(t, "alpha", "beta")
	store := newTestStore(t, path)

	if !store.Contains("alpha") {
		t.Error("alpha should be valid")
	}
	if !store.Contains("beta") {
		t.Error("beta should be valid")
	}
	if store.Contains("gamma") {
		t.Error("gamma should not be valid")
	}
	if store.Contains("") {
		t.Error("empty key should not be valid")
	}
}

func TestKeyStorePreSaltedDigests(t *testing.T) {
	digest := SaltedDigest("gamma", "test-salt")
	path := writeKeyFile(t, "alpha", digest)
	store := newTestStore(t, path)

	if !store.Contains("alpha") {
		t.Error("plaintext entry should be valid")
	}
	if !store.Contains("gamma") {
		t.Error("pre-salted digest entry should admit the plaintext key")
	}
	// The digest itself is not a valid key
	if store.Contains(digest) {
		t.Error("presenting the digest as a key should not authenticate")
	}
}

func TestKeyStoreUppercaseDigest(t *testing.T) {
	digest := strings.ToUpper(SaltedDigest("gamma", "test-salt"))
	path := writeKeyFile(t, digest)
	store := newTestStore(t, path)

	if !store.Contains("gamma") {
		t.Error("uppercase digest entry should admit the plaintext key")
	}
}

func TestKeyStoreSkipsBlankAndMalformedLines(t *testing.T) {
	path := writeKeyFile(t, "alpha", "", "  ", "has spaces in it", "beta")
	store := newTestStore(t, path)

	if store.Active().Len() != 2 {
		t.Errorf("key count = %d, want 2", store.Active().Len())
	}
	if store.Contains("has spaces in it") {
		t.Error("malformed line should be skipped")
	}
}

func TestKeyStoreReloadRevokes(t *testing.T) {
	path := writeKeyFile(t, "alpha", "beta")
	store := newTestStore(t, path)

	if err := os.WriteFile(path, []byte("beta\n"), 0600); err != nil {
		t.Fatalf("failed to rewrite key file: %v", err)
	}
	if err := store.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if store.Contains("alpha") {
		t.Error("alpha should be revoked after reload")
	}
	if !store.Contains("beta") {
		t.Error("beta should remain valid after reload")
	}
}

func TestKeyStoreReloadAdds(t *testing.T) {
	path := writeKeyFile(t, "alpha")
	store := newTestStore(t, path)

	if store.Contains("gamma") {
		t.Error("gamma should not be valid before reload")
	}

	if err := os.WriteFile(path, []byte("alpha\ngamma\n"), 0600); err != nil {
		t.Fatalf("failed to rewrite key file: %v", err)
	}
	if err := store.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if !store.Contains("gamma") {
		t.Error("gamma should be valid after reload")
	}
}

func TestKeyStoreReloadEmptyFileRevokesAll(t *testing.T) {
	path := writeKeyFile(t, "alpha")
	store := newTestStore(t, path)

	if err := os.WriteFile(path, []byte(""), 0600); err != nil {
		t.Fatalf("failed to truncate key file: %v", err)
	}
	if err := store.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if store.Contains("alpha") {
		t.Error("a successfully loaded empty file should revoke all keys")
	}
}

func TestKeyStoreReloadFailureKeepsPreviousSet(t *testing.T) {
	path := writeKeyFile(t, "alpha")
	store := newTestStore(t, path)

	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove key file: %v", err)
	}

	// GenerateIfEmpty is false, so a missing file is a load error
	if err := store.Reload(); err == nil {
		t.Fatal("expected reload error for missing file")
	}

	if !store.Contains("alpha") {
		t.Error("previous key set should stay active after a failed reload")
	}
}

func TestKeyStoreGenerationIncreases(t *testing.T) {
	path := writeKeyFile(t, "alpha")
	store := newTestStore(t, path)

	first := store.Active().Generation
	if err := store.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	second := store.Active().Generation

	if second <= first {
		t.Errorf("generation should increase on reload, got %d then %d", first, second)
	}
}

func TestKeyStoreEmptySourceFatalWithoutFallback(t *testing.T) {
	path := writeKeyFile(t) // empty file

	_, err := NewKeyStore(KeyStoreConfig{
		KeyFile:         path,
		Salt:            "test-salt",
		RefreshInterval: 2 * time.Second,
		GenerateIfEmpty: false,
	}, nil)
	if err == nil {
		t.Fatal("expected error for empty key source without fallback")
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected ConfigError, got %T: %v", err, err)
	}
}

func TestKeyStoreGeneratesFallbackKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing_keys.txt")

	store, err := NewKeyStore(KeyStoreConfig{
		KeyFile:         path,
		Salt:            "test-salt",
		RefreshInterval: 2 * time.Second,
		GenerateIfEmpty: true,
	}, nil)
	if err != nil {
		t.Fatalf("NewKeyStore() error = %v", err)
	}

	if store.Active().Len() != 1 {
		t.Errorf("key count = %d, want 1 generated key", store.Active().Len())
	}
}

func TestKeyStoreReloadMissingFileKeepsGeneratedKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing_keys.txt")

	store, err := NewKeyStore(KeyStoreConfig{
		KeyFile:         path,
		Salt:            "test-salt",
		RefreshInterval: 2 * time.Second,
		GenerateIfEmpty: true,
	}, nil)
	if err != nil {
		t.Fatalf("NewKeyStore() error = %v", err)
	}
	if store.Active().Len() != 1 {
		t.Fatalf("key count = %d, want 1 generated key", store.Active().Len())
	}
	generation := store.Active().Generation

	// The file still does not exist: a refresh tick must not swap in an
	// empty set and revoke the generated key.
	if err := store.Reload(); err == nil {
		t.Fatal("expected reload error while the source file is missing")
	}

	if store.Active().Len() != 1 {
		t.Errorf("key count after refresh = %d, want the generated key kept", store.Active().Len())
	}
	if store.Active().Generation != generation {
		t.Errorf("generation changed from %d to %d on a failed reload", generation, store.Active().Generation)
	}

	// Once the operator writes the file, reload picks it up normally.
	if err := os.WriteFile(path, []byte("alpha\n"), 0600); err != nil {
		t.Fatalf("failed to write key file: %v", err)
	}
	if err := store.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if !store.Contains("alpha") {
		t.Error("alpha should be valid once the file exists")
	}
}

func TestKeyStoreMissingFileFatalWithoutFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing_keys.txt")

	_, err := NewKeyStore(KeyStoreConfig{
		KeyFile:         path,
		Salt:            "test-salt",
		RefreshInterval: 2 * time.Second,
		GenerateIfEmpty: false,
	}, nil)
	if err == nil {
		t.Fatal("expected error for missing key source without fallback")
	}
}

type keySetSnapshot struct {
	keys       int
	generation uint64
}

// recordingObserver captures every key set swap.
type recordingObserver struct {
	mu        sync.Mutex
	snapshots []keySetSnapshot
}

func (o *recordingObserver) UpdateKeySet(keys int, generation uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snapshots = append(o.snapshots, keySetSnapshot{keys: keys, generation: generation})
}

func (o *recordingObserver) last(t *testing.T) keySetSnapshot {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.snapshots) == 0 {
		t.Fatal("observer received no key set updates")
	}
	return o.snapshots[len(o.snapshots)-1]
}

func TestKeyStoreObserverSeesEverySwap(t *testing.T) {
	path := writeKeyFile(t, "alpha")
	observer := &recordingObserver{}

	store, err := NewKeyStore(KeyStoreConfig{
		KeyFile:         path,
		Salt:            "test-salt",
		RefreshInterval: 2 * time.Second,
		Observer:        observer,
	}, nil)
	if err != nil {
		t.Fatalf("NewKeyStore() error = %v", err)
	}

	startup := observer.last(t)
	if startup.keys != 1 {
		t.Errorf("startup snapshot keys = %d, want 1", startup.keys)
	}

	if err := os.WriteFile(path, []byte("alpha\nbeta\n"), 0600); err != nil {
		t.Fatalf("failed to rewrite key file: %v", err)
	}
	if err := store.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	reloaded := observer.last(t)
	if reloaded.keys != 2 {
		t.Errorf("reload snapshot keys = %d, want 2", reloaded.keys)
	}
	if reloaded.generation <= startup.generation {
		t.Errorf("reload snapshot generation = %d, want above startup %d",
			reloaded.generation, startup.generation)
	}
}

func TestKeyStoreRunPicksUpChanges(t *testing.T) {
	path := writeKeyFile(t, "alpha")
	store, err := NewKeyStore(KeyStoreConfig{
		KeyFile:         path,
		Salt:            "test-salt",
		RefreshInterval: 10 * time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("NewKeyStore() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go store.Run(ctx)

	if err := os.WriteFile(path, []byte("beta\n"), 0600); err != nil {
		t.Fatalf("failed to rewrite key file: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if store.Contains("beta") && !store.Contains("alpha") {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("periodic refresh did not pick up the rewritten key file")
}

func TestKeyStoreSaltIsolation(t *testing.T) {
	path := writeKeyFile(t, "alpha")

	storeA := newTestStore(t, path)
	storeB, err := NewKeyStore(KeyStoreConfig{
		KeyFile:         path,
		Salt:            "other-salt",
		RefreshInterval: 2 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewKeyStore() error = %v", err)
	}

	if storeA.HashKey("alpha") == storeB.HashKey("alpha") {
		t.Error("different salts should produce different digests")
	}
	// Plaintext entries are salted at load time, so both stores accept alpha
	if !storeA.Contains("alpha") || !storeB.Contains("alpha") {
		t.Error("plaintext entries should be valid under any salt")
	}
}
