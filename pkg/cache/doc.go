/*
Package cache provides the content-addressed response cache for ollgate.

A generate request is reduced to a deterministic fingerprint of its
output-affecting fields (ComputeKey); the cache maps that fingerprint to a
previously computed upstream response body. Caching generate traffic is a
cost optimization the operator opts into: the upstream contract is treated
as deterministic-enough for identical inputs within the configured freshness
horizon, not as truly deterministic.

Two backends implement the Store interface:

  - MemoryStore: in-process LRU with byte accounting, the default
  - SQLiteStore: persistent, least-recently-accessed eviction, survives
    restarts

Both enforce the same policy: total resident size never exceeds the
configured bound, eviction is least-recently-used and happens only when an
insertion would exceed the bound, a single value larger than the whole bound
is rejected rather than evicting everything, and TTL-expired entries are
treated as absent on lookup and removed lazily. The optional Sweeper
reclaims expired entries proactively on a cron schedule.

Cache failures are never client-visible: callers degrade to "not cached"
and serve the freshly fetched upstream result.
*/
package cache
