package auth

import (
	"log/slog"
	"net/http"
)

// APIKeyHeader is the request header carrying the client's API key.
const APIKeyHeader = "APIKEY"

// Authenticator decides accept/reject for incoming requests by consulting
// the KeyStore. It has no side effects beyond the digest comparison and
// never logs raw key values.
type Authenticator struct {
	store *KeyStore
}

// NewAuthenticator creates an Authenticator backed by the given KeyStore.
func NewAuthenticator(store *KeyStore) *Authenticator {
	return &Authenticator{store: store}
}

// Authenticate validates the raw header value. A nil return means accept.
func (a *Authenticator) Authenticate(headerValue string) *AuthError {
	if headerValue == "" {
		return &AuthError{Reason: RejectMissingHeader}
	}
	if !a.store.Contains(headerValue) {
		return &AuthError{Reason: RejectUnknownKey}
	}
	return nil
}

// RejectionRecorder receives authentication outcomes, typically a metrics
// collector.
type RejectionRecorder interface {
	RecordAuth(accepted bool, reason string)
}

// Middleware wraps an HTTP handler with API key authentication.
// Rejected requests receive 401 with a generic body and never reach the
// wrapped handler.
func (a *Authenticator) Middleware(recorder RejectionRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := a.Authenticate(r.Header.Get(APIKeyHeader)); err != nil {
				slog.WarnContext(r.Context(), "request rejected",
					"reason", string(err.Reason),
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				if recorder != nil {
					recorder.RecordAuth(false, string(err.Reason))
				}

				msg := "Invalid API key"
				if err.Reason == RejectMissingHeader {
					msg = "Missing APIKEY header"
				}
				http.Error(w, msg, http.StatusUnauthorized)
				return
			}

			if recorder != nil {
				recorder.RecordAuth(true, "")
			}
			next.ServeHTTP(w, r)
		})
	}
}
