// Package history persists one row per workflow attempt in SQLite.
//
// The Recorder observes orchestrator events and upserts the attempt's latest
// phase, job id, result URLs, and error message, so `vid2manga history` can
// list past conversions and show their artifacts after the process exits.
// The schema is versioned through a schema_version table; a mismatch is
// reported instead of migrated.
package history
