// Package proxy implements the HTTP surface of the gateway: the
// authenticated generate endpoint backed by the response cache, and the
// unauthenticated health endpoint.
//
// The generate handler treats the cache as a pure fast path. A cache hit is
// served verbatim without touching the upstream; a miss forwards the request
// and stores the complete response. Cache failures of any kind degrade the
// request to an uncached pass-through rather than surfacing an error.
package proxy
