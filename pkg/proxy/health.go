package proxy

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"ollgate-hq/ollgate/pkg/upstream"
)

// HealthPath is the liveness endpoint. It is unauthenticated so
// orchestrators can probe the proxy without a key.
const HealthPath = "/health"

// healthResponse is the JSON body returned by the health endpoint.
type healthResponse struct {
	Status   string `json:"status"`
	Upstream string `json:"upstream"`
}

// HealthHandler reports proxy and upstream liveness. The proxy itself is
// healthy as long as it can answer; upstream reachability decides between
// 200 and 503.
type HealthHandler struct {
	client *upstream.Client
	logger *slog.Logger
}

// NewHealthHandler creates the health endpoint handler.
func NewHealthHandler(client *upstream.Client, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		client: client,
		logger: logger.With("component", "health"),
	}
}

// ServeHTTP implements http.Handler.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := healthResponse{Status: "ok", Upstream: "ok"}
	status := http.StatusOK

	if err := h.client.Health(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "upstream health probe failed", "error", err)
		resp.Status = "degraded"
		resp.Upstream = "unreachable"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Debug("failed to write health response", "error", err)
	}
}
