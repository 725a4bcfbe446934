// Package upstream provides the HTTP client for the inference server that
// ollgate fronts.
//
// The upstream is a black box: a generate endpoint accepting the same JSON
// schema clients send to the proxy, returning either a single JSON object or
// a streamed sequence of JSON chunks. The client applies the configured
// request timeout, pools connections, and converts transport failures into
// typed errors (ConnectionError, TimeoutError, StatusError) that the proxy
// handler maps to 502/504-class responses.
package upstream
