/*
Package auth provides API key authentication for ollgate.

It implements the credential store backing the proxy's request gate: keys are
loaded from a newline-delimited source file, salted and hashed (SHA-256), and
held in an immutable KeySet snapshot behind an atomic pointer. The set is
refreshed on a timer and, optionally, immediately on file change via an
fsnotify watcher.

# Key File Format

Each non-blank line is one entry. An entry is either a plaintext key or an
already-salted 64-character hex SHA-256 digest; the two forms may be mixed.
Plaintext entries are salted as

	sha256(key + "@separator@" + salt)

with the process-wide salt. When no salt is configured one is generated at
startup and logged once; deployments using pre-salted files must configure
the salt explicitly so digests stay verifiable across restarts.

# Basic Usage

	store, err := auth.NewKeyStore(auth.KeyStoreConfig{
		KeyFile:         "/api_keys.txt",
		RefreshInterval: 10 * time.Second,
		GenerateIfEmpty: true,
	}, slog.Default())
	if err != nil {
		log.Fatal(err)
	}
	go store.Run(ctx)

	authn := auth.NewAuthenticator(store)
	http.Handle("/call_model", authn.Middleware(nil)(handler))

# Revocation Latency

Reloads replace the whole active set atomically; lookups in flight observe
either the old or the new generation, never a mix. A key removed from the
source file remains valid for at most RefreshInterval (less when the file
watcher is enabled).

# Security Considerations

  - Raw key values are never logged; rejections log only the reason
  - Candidate keys are compared by fixed-width digest in constant time, not
    by scanning the set
  - Generated fallback keys are logged exactly once for operator capture
*/
package auth
