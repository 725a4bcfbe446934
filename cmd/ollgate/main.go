// Ollgate is an authenticated caching reverse proxy for a local LLM
// inference server.
//
// It sits in front of the inference server's generate endpoint, providing:
//   - API key authentication with hot-reloaded key files
//   - Content-addressed response caching with LRU eviction and TTL expiry
//   - Optional persistent SQLite cache backend
//   - Prometheus metrics and structured logging
//
// Usage:
//
//	# Start the proxy with default configuration
//	ollgate run
//
//	# Start with custom configuration file
//	ollgate run --config /path/to/config.yaml
//
//	# Validate a configuration file
//	ollgate validate --config /path/to/config.yaml
//
//	# Generate API keys and salted digests
//	ollgate keys generate --count 3 --salt "my-salt"
//
//	# Show version information
//	ollgate version
package main

func main() {
	Execute()
}
