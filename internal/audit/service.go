package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/librarian/internal/database/audit"
	"github.com/mrlokans/librarian/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(context.Background(), event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// Flush blocks until every event handed to LogAsync has been written.
func (s *Service) Flush() {
	s.pending.Wait()
}

// LogBorrow records a borrow attempt.
func (s *Service) LogBorrow(librarianID, bookID, readerID uint, loan *entities.Loan, err error) {
	event := &entities.AuditEvent{
		LibrarianID: librarianID,
		EventType:   entities.AuditEventBorrow,
		Action:      "book_borrow",
		Description: fmt.Sprintf("Book %d borrowed by reader %d", bookID, readerID),
		EntityType:  "book",
		EntityID:    &bookID,
		Status:      entities.AuditStatusSuccess,
	}
	event.Metadata = loanMetadata(readerID, loan)

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogReturn records a return attempt.
func (s *Service) LogReturn(librarianID, bookID, readerID uint, loan *entities.Loan, err error) {
	event := &entities.AuditEvent{
		LibrarianID: librarianID,
		EventType:   entities.AuditEventReturn,
		Action:      "book_return",
		Description: fmt.Sprintf("Book %d returned by reader %d", bookID, readerID),
		EntityType:  "book",
		EntityID:    &bookID,
		Status:      entities.AuditStatusSuccess,
	}
	event.Metadata = loanMetadata(readerID, loan)

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogCreate records a catalogue or account creation.
func (s *Service) LogCreate(librarianID uint, entityType string, entityID uint, entityName string) {
	s.LogAsync(&entities.AuditEvent{
		LibrarianID: librarianID,
		EventType:   entities.AuditEventCreate,
		Action:      entityType + "_create",
		Description: "Created " + entityType + ": " + entityName,
		EntityType:  entityType,
		EntityID:    &entityID,
		Status:      entities.AuditStatusSuccess,
	})
}

// LogUpdate records a catalogue or account change.
func (s *Service) LogUpdate(librarianID uint, entityType string, entityID uint, entityName string) {
	s.LogAsync(&entities.AuditEvent{
		LibrarianID: librarianID,
		EventType:   entities.AuditEventUpdate,
		Action:      entityType + "_update",
		Description: "Updated " + entityType + ": " + entityName,
		EntityType:  entityType,
		EntityID:    &entityID,
		Status:      entities.AuditStatusSuccess,
	})
}

// LogDelete records a deletion event.
func (s *Service) LogDelete(librarianID uint, entityType string, entityID uint, entityName string) {
	s.LogAsync(&entities.AuditEvent{
		LibrarianID: librarianID,
		EventType:   entities.AuditEventDelete,
		Action:      entityType + "_delete",
		Description: "Deleted " + entityType + ": " + entityName,
		EntityType:  entityType,
		EntityID:    &entityID,
		Status:      entities.AuditStatusSuccess,
	})
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(librarianID uint, action string, ipAddr, userAgent string, success bool) {
	event := &entities.AuditEvent{
		LibrarianID: librarianID,
		EventType:   entities.AuditEventAuth,
		Action:      action,
		IPAddress:   ipAddr,
		UserAgent:   truncate(userAgent, 500),
		Status:      entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(ctx context.Context, filter audit.Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(ctx, filter, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(ctx, cutoff)
}

func loanMetadata(readerID uint, loan *entities.Loan) string {
	metadata := map[string]any{"reader_id": readerID}
	if loan != nil {
		metadata["loan_id"] = loan.ID
	}
	mdBytes, err := json.Marshal(metadata)
	if err != nil {
		return ""
	}
	return string(mdBytes)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
