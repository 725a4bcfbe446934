package proxy

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"ollgate-hq/ollgate/pkg/cache"
	"ollgate-hq/ollgate/pkg/upstream"
)

// errorResponse is the JSON body returned for all error responses.
type errorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response with the given status code.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: message}); err != nil {
		slog.Debug("failed to write error response", "error", err)
	}
}

// mapUpstreamError translates a typed upstream or request error into an HTTP
// status code and a generic client-facing message. Upstream error bodies are
// logged but never relayed to clients.
func mapUpstreamError(err error) (int, string) {
	var malformed *cache.MalformedRequestError
	if errors.As(err, &malformed) {
		return http.StatusBadRequest, "invalid request body"
	}

	var timeout *upstream.TimeoutError
	if errors.As(err, &timeout) {
		return http.StatusGatewayTimeout, "upstream request timed out"
	}

	var status *upstream.StatusError
	if errors.As(err, &status) {
		return http.StatusBadGateway, "upstream returned an error"
	}

	var conn *upstream.ConnectionError
	if errors.As(err, &conn) {
		return http.StatusBadGateway, "upstream unreachable"
	}

	return http.StatusBadGateway, "upstream request failed"
}
