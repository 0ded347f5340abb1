// Package shared holds the ambient plumbing used by every other package.
//
// # Logging
//
// [NewLogger] builds a charmbracelet/log logger with timestamps and caller reporting.
// Components derive scoped loggers with [WithLogger].
//
// # Configuration
//
// [Config] is read from TOML ([LoadConfig]) on top of the embedded config.example.toml
// ([DefaultConfig]), then overlaid with environment variables ([Config.ApplyEnv]) after an
// optional .env file has been loaded with [LoadDotEnv].
//
// # Errors
//
// Sentinel errors (ErrRateLimited, ErrPayloadTooLarge, ErrInvalidPlatform, ...) are wrapped with
// fmt.Errorf("%w: ...") at the point of failure and matched with errors.Is at the HTTP and CLI
// boundaries.
//
// # Storage
//
// [NewDatabase] opens SQLite through mattn/go-sqlite3 and [RunMigrations] applies the embedded
// sql/NNNN_name_{up,down}.sql scripts. The only table is rate_limits, backing the shared
// request gate store.
package shared
