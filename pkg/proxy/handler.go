package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"ollgate-hq/ollgate/pkg/cache"
	"ollgate-hq/ollgate/pkg/proxy/middleware"
	"ollgate-hq/ollgate/pkg/telemetry/metrics"
	"ollgate-hq/ollgate/pkg/upstream"
)

const (
	// CallModelPath is the proxied generate endpoint.
	CallModelPath = "/call_model"

	// DefaultMaxBodyBytes bounds how large a generate request body may be.
	DefaultMaxBodyBytes = 4 << 20 // 4 MB

	// cacheHeader reports whether a response was served from cache.
	cacheHeader = "X-Cache"
)

// Request outcome labels for metrics.
const (
	outcomeCacheHit      = "cache_hit"
	outcomeCacheMiss     = "cache_miss"
	outcomeUpstreamError = "upstream_error"
	outcomeBadRequest    = "bad_request"
)

// HandlerConfig configures a CallModelHandler.
type HandlerConfig struct {
	// MaxBodyBytes bounds the accepted request body size. Zero means
	// DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// CallModelHandler proxies generate requests to the upstream inference
// server, serving repeated identical requests from the cache.
//
// The cache is strictly a fast path: a nil or failing store degrades the
// handler to a plain pass-through proxy, never to an error response.
type CallModelHandler struct {
	store     cache.Store
	client    *upstream.Client
	collector *metrics.Collector
	maxBody   int64
	logger    *slog.Logger
}

// NewCallModelHandler creates the generate proxy handler. store may be nil
// to disable caching; collector may be nil to disable metrics.
func NewCallModelHandler(store cache.Store, client *upstream.Client, collector *metrics.Collector, cfg HandlerConfig, logger *slog.Logger) *CallModelHandler {
	if logger == nil {
		logger = slog.Default()
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &CallModelHandler{
		store:     store,
		client:    client,
		collector: collector,
		maxBody:   maxBody,
		logger:    logger.With("component", "proxy"),
	}
}

// ServeHTTP implements http.Handler.
func (h *CallModelHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.record(outcomeBadRequest, start, 0)
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.record(outcomeBadRequest, start, 0)
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	key, err := cache.ComputeKey(body)
	if err != nil {
		h.logger.WarnContext(ctx, "rejecting malformed generate request",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		h.record(outcomeBadRequest, start, 0)
		status, msg := mapUpstreamError(err)
		writeError(w, status, msg)
		return
	}

	if entry := h.lookup(ctx, key); entry != nil {
		if h.collector != nil {
			h.collector.Cache().RecordHit()
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set(cacheHeader, "HIT")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(entry.Value); err != nil {
			h.logger.DebugContext(ctx, "client went away during cached response", "error", err)
		}
		h.record(outcomeCacheHit, start, len(entry.Value))
		return
	}
	if h.collector != nil && h.store != nil {
		h.collector.Cache().RecordMiss()
	}

	if wantsStream(body) {
		h.serveStream(w, r, key, body, start)
		return
	}
	h.serveBuffered(w, r, key, body, start)
}

// serveBuffered forwards the request, returns the whole upstream body, and
// stores it on success.
func (h *CallModelHandler) serveBuffered(w http.ResponseWriter, r *http.Request, key cache.Key, body []byte, start time.Time) {
	ctx := r.Context()

	response, err := h.client.Generate(ctx, body)
	if err != nil {
		h.writeUpstreamFailure(w, r, err, start)
		return
	}

	h.storeEntry(ctx, key, response)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(cacheHeader, "MISS")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(response); err != nil {
		h.logger.DebugContext(ctx, "client went away during response", "error", err)
	}
	h.record(outcomeCacheMiss, start, len(response))
}

// serveStream relays the upstream stream chunk by chunk while buffering a
// copy. The copy is stored only if the stream completes; a truncated stream
// is never cached.
func (h *CallModelHandler) serveStream(w http.ResponseWriter, r *http.Request, key cache.Key, body []byte, start time.Time) {
	ctx := r.Context()

	stream, err := h.client.GenerateStream(ctx, body)
	if err != nil {
		h.writeUpstreamFailure(w, r, err, start)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set(cacheHeader, "MISS")
	w.WriteHeader(http.StatusOK)

	var buffered bytes.Buffer
	written, relayErr := relay(w, &buffered, stream)

	if relayErr != nil {
		// Client disconnects and mid-stream upstream failures land here.
		// The response is already partially written, so only log and skip
		// the cache write.
		h.logger.WarnContext(ctx, "generate stream ended early",
			"error", relayErr,
			"bytes_relayed", written,
			"request_id", middleware.GetRequestID(ctx),
		)
		h.record(outcomeUpstreamError, start, int(written))
		return
	}

	h.storeEntry(ctx, key, buffered.Bytes())
	h.record(outcomeCacheMiss, start, int(written))
}

// lookup returns the cached entry for key, treating store errors as misses.
func (h *CallModelHandler) lookup(ctx context.Context, key cache.Key) *cache.Entry {
	if h.store == nil {
		return nil
	}
	entry, err := h.store.Get(ctx, key)
	if err != nil {
		h.logger.ErrorContext(ctx, "cache lookup failed, treating as miss",
			"error", err,
			"key", string(key),
		)
		return nil
	}
	return entry
}

// storeEntry writes a response into the cache. Failures degrade to an
// uncached response and are only logged; an oversized value is expected and
// logged at debug.
func (h *CallModelHandler) storeEntry(ctx context.Context, key cache.Key, value []byte) {
	if h.store == nil {
		return
	}
	if err := h.store.Put(ctx, key, value); err != nil {
		var tooLarge *cache.EntryTooLargeError
		if errors.As(err, &tooLarge) {
			h.logger.DebugContext(ctx, "response too large to cache",
				"key", string(key),
				"size_bytes", tooLarge.SizeBytes,
				"max_bytes", tooLarge.MaxBytes,
			)
			return
		}
		h.logger.ErrorContext(ctx, "cache write failed, serving uncached",
			"error", err,
			"key", string(key),
		)
	}
}

// writeUpstreamFailure logs and maps an upstream error to a response.
func (h *CallModelHandler) writeUpstreamFailure(w http.ResponseWriter, r *http.Request, err error, start time.Time) {
	ctx := r.Context()
	status, msg := mapUpstreamError(err)
	h.logger.ErrorContext(ctx, "upstream generate failed",
		"error", err,
		"status", status,
		"request_id", middleware.GetRequestID(ctx),
	)
	h.record(outcomeUpstreamError, start, 0)
	writeError(w, status, msg)
}

// record reports a completed request to the metrics collector.
func (h *CallModelHandler) record(outcome string, start time.Time, responseBytes int) {
	if h.collector == nil {
		return
	}
	h.collector.Requests().RecordRequest(outcome, time.Since(start), responseBytes)
}

// wantsStream reports whether the request explicitly asked for a streamed
// response. The field is transport-only and already excluded from the cache
// key, so both forms of the same request share one cached entry.
func wantsStream(body []byte) bool {
	var probe struct {
		Stream *bool `json:"stream"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return false
	}
	return probe.Stream != nil && *probe.Stream
}

// relay copies the stream to the client and a buffer at once, flushing after
// each chunk so tokens reach the client as they arrive.
func relay(w http.ResponseWriter, buffered *bytes.Buffer, stream io.Reader) (int64, error) {
	flusher, _ := w.(http.Flusher)
	dst := io.MultiWriter(w, buffered)

	var written int64
	buf := make([]byte, 32*1024)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			wn, werr := dst.Write(buf[:n])
			written += int64(wn)
			if werr != nil {
				return written, werr
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}
	}
}
