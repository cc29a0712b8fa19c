// Package tasks runs background maintenance on a backlite queue backed by a
// dedicated SQLite database.
//
// Queues:
//   - cleanup_audit_events: removes audit events older than the retention period
package tasks
