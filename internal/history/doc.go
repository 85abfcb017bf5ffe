// Package history provides an optional SQLite log of published
// readings.
//
// Every value the bridge publishes (and the logged-only temperatures)
// can be recorded with its timestamp, giving a local record that
// survives broker restarts and works without a time-series backend.
// Retention is enforced by a daily pruner.
package history
