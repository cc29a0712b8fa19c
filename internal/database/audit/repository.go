// Package audit stores the audit trail of borrowing, catalogue and
// authentication activity.
package audit

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/database"
	domainerrors "github.com/mrlokans/librarian/internal/errors"
	"github.com/mrlokans/librarian/internal/entities"
)

const defaultPageSize = 50

// Filter narrows an event listing. Zero fields match everything.
type Filter struct {
	LibrarianID uint
	EventType   entities.AuditEventType
	EntityType  string
	EntityID    *uint
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LogEvent saves an audit event to the database.
func (r *Repository) LogEvent(ctx context.Context, event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return database.ClassifyError(r.db.WithContext(ctx).Create(event).Error)
}

// GetEvents retrieves paginated audit events, ordered by most recent first.
func (r *Repository) GetEvents(ctx context.Context, filter Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	events := []entities.AuditEvent{}
	var total int64

	query := r.db.WithContext(ctx).Model(&entities.AuditEvent{})
	if filter.LibrarianID > 0 {
		query = query.Where("librarian_id = ?", filter.LibrarianID)
	}
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, database.ClassifyError(err)
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, database.ClassifyError(err)
}

// GetRecentEvents retrieves audit events since a specific time.
func (r *Repository) GetRecentEvents(ctx context.Context, librarianID uint, since time.Time) ([]entities.AuditEvent, error) {
	events := []entities.AuditEvent{}
	query := r.db.WithContext(ctx).Where("created_at > ?", since).Order("created_at DESC")
	if librarianID > 0 {
		query = query.Where("librarian_id = ?", librarianID)
	}
	err := query.Find(&events).Error
	return events, database.ClassifyError(err)
}

// DeleteOldEvents removes audit events older than the specified time.
// Returns the number of deleted events.
func (r *Repository) DeleteOldEvents(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", olderThan).Delete(&entities.AuditEvent{})
	return result.RowsAffected, database.ClassifyError(result.Error)
}

// GetEventByID retrieves a single audit event by ID.
func (r *Repository) GetEventByID(ctx context.Context, id uint) (*entities.AuditEvent, error) {
	var event entities.AuditEvent
	err := r.db.WithContext(ctx).First(&event, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainerrors.NotFoundf("", "audit event with ID %d not found", id)
	}
	if err != nil {
		return nil, database.ClassifyError(err)
	}
	return &event, nil
}
