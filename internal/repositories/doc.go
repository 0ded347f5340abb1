// Package repositories implements SQLite persistence shared across server instances.
//
// Key Implementations:
//   - [RateLimitRepository] : admission counters for the request gate, implementing [gate.Store]
//
// Every read-modify-write runs in one transaction (see withTx), so instances sharing a database
// file cannot race past the admission limit. Timestamps are stored in UTC at second precision.
package repositories
