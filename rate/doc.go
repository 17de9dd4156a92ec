// Package rate implements a sliding-window rate limiter keyed by an opaque
// client identifier.
//
// # Window semantics
//
// Each key maps to the ordered list of request timestamps inside the
// trailing window. A check prunes timestamps older than now-window, rejects
// with a retry-after derived from the oldest surviving timestamp when the
// budget is exhausted, and otherwise records the new timestamp. Every
// allowed call is recorded — successful and failed requests count alike.
//
// # Storage
//
// The timestamp lists live behind the [Store] interface: [MemoryStore] for
// a single process, [RedisStore] (sorted sets, optimistic WATCH retry) when
// several instances must share one budget. Both mutate a key's list
// atomically with respect to concurrent requests on the same key; no
// cross-key locking exists.
//
// # What this package must NOT do
//
//   - Derive keys — callers decide whether to key by network address,
//     identifier, or anything else.
//   - Implement domain policies (login vs reset budgets live in the Engine
//     config).
package rate
