// Package analytics records feature flag usage and aggregates it into
// range reports.
//
// The recorder is intentionally lossy: usage tracking is an observability
// concern and must never block or fail the feature check that triggered it.
// Records flow through a buffered channel into append-only day buckets;
// drops and write failures are logged, not returned.
//
// Reports scan the day buckets of a flag over a date range and produce
// totals, enabled/disabled counts, per-variant counts, unique user
// cardinality and a per-day breakdown. Malformed log entries are skipped
// and surfaced as a count on the report.
//
// Storage backends: MemoryStorage for tests and single instances,
// RedisStorage (lists keyed by flag and UTC day, with retention) for
// shared deployments.
package analytics
