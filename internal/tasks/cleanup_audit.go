package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// CleanupAuditEventsQueue names the queue that prunes the audit trail.
const CleanupAuditEventsQueue = "cleanup_audit_events"

// DefaultAuditRetentionDays applies when a task does not name a retention.
const DefaultAuditRetentionDays = 90

// AuditEventCleaner deletes audit events older than a retention period.
type AuditEventCleaner interface {
	DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error)
}

// CleanupAuditEventsTask prunes borrow, return, catalogue and login events
// older than RetentionDays. Loans themselves are never touched.
type CleanupAuditEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config keeps failed runs and their payloads for a day so operators can
// inspect them through GET /api/tasks/:id.
func (t CleanupAuditEventsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        CleanupAuditEventsQueue,
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration: 24 * time.Hour,
			Data:     &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// Retention returns how old an event must be to be removed.
func (t CleanupAuditEventsTask) Retention() time.Duration {
	days := t.RetentionDays
	if days <= 0 {
		days = DefaultAuditRetentionDays
	}
	return time.Duration(days) * 24 * time.Hour
}

var errNoCleaner = errors.New("audit event cleaner not configured")

// CleanupAuditEventsProcessor runs a cleanup task. A positive runTimeout
// bounds each run in addition to the queue timeout.
func CleanupAuditEventsProcessor(cleaner AuditEventCleaner, runTimeout time.Duration) backlite.QueueProcessor[CleanupAuditEventsTask] {
	return func(ctx context.Context, task CleanupAuditEventsTask) error {
		if cleaner == nil {
			return errNoCleaner
		}
		if runTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, runTimeout)
			defer cancel()
		}

		retention := task.Retention()
		deleted, err := cleaner.DeleteOldEvents(ctx, retention)
		if err != nil {
			return fmt.Errorf("cleanup audit events older than %s: %w", retention, err)
		}

		log.Printf("Task queue: removed %d audit events older than %d days", deleted, int(retention.Hours()/24))
		return nil
	}
}

// NewCleanupAuditEventsQueue creates the backlite queue for audit cleanup.
func NewCleanupAuditEventsQueue(cleaner AuditEventCleaner, runTimeout time.Duration) backlite.Queue {
	return backlite.NewQueue(CleanupAuditEventsProcessor(cleaner, runTimeout))
}
