package auth

import "time"

// DigestLen is the length of a hex-encoded SHA-256 digest.
const DigestLen = 64

// saltSeparator joins the plaintext key and the salt before hashing.
// The value is part of the key-file contract: pre-salted digests in the
// source file must have been produced with the same separator.
const saltSeparator = "@separator@"

// Credential is the salted, hashed representation of an API key.
// Two credentials are equal iff their digests are equal; plaintext keys are
// never retained after hashing.
type Credential struct {
	// Digest is the lowercase hex SHA-256 of salt-separator-joined key material.
	Digest string

	// CreatedAt records when this credential entered the active set.
	CreatedAt time.Time
}

// KeySet is an immutable snapshot of the valid credential set.
// Snapshots are versioned by a monotonically increasing generation counter;
// a reload builds a complete new KeySet and swaps it atomically, so readers
// always observe an internally consistent set.
type KeySet struct {
	// Generation increases by one on every successful load.
	Generation uint64

	// credentials maps digest to credential for O(1) lookup.
	credentials map[string]Credential

	// LoadedAt records when this snapshot was built.
	LoadedAt time.Time
}

// Len returns the number of credentials in the set.
func (ks *KeySet) Len() int {
	if ks == nil {
		return 0
	}
	return len(ks.credentials)
}

// RejectReason classifies why a request failed authentication.
type RejectReason string

const (
	// RejectMissingHeader means the request carried no API key header.
	RejectMissingHeader RejectReason = "missing_header"

	// RejectUnknownKey means the presented key is not in the active set.
	RejectUnknownKey RejectReason = "unknown_key"
)

// AuthError is a per-request authentication failure.
type AuthError struct {
	// Reason classifies the failure.
	Reason RejectReason
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	switch e.Reason {
	case RejectMissingHeader:
		return "missing API key header"
	case RejectUnknownKey:
		return "unknown API key"
	default:
		return "authentication failed"
	}
}

// ConfigError is a fatal startup error in the key source configuration.
type ConfigError struct {
	// Path is the key source file path.
	Path string

	// Message describes the configuration problem.
	Message string

	// Cause is the underlying error (if any).
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return "key source " + e.Path + ": " + e.Message + ": " + e.Cause.Error()
	}
	return "key source " + e.Path + ": " + e.Message
}

// Unwrap returns the underlying error for error chain support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
