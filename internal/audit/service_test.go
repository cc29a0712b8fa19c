package audit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/database"
	auditRepo "github.com/mrlokans/librarian/internal/database/audit"
	"github.com/mrlokans/librarian/internal/entities"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := auditRepo.NewRepository(db.DB)
	svc := NewService(repo)

	return svc, db.DB
}

func TestService_Log(t *testing.T) {
	svc, db := setupTestService(t)

	event := &entities.AuditEvent{
		LibrarianID: 1,
		EventType:   entities.AuditEventCreate,
		Action:      "book_create",
		Description: "Created book: Dune",
		Status:      entities.AuditStatusSuccess,
	}

	err := svc.Log(context.Background(), event)
	require.NoError(t, err)

	var saved entities.AuditEvent
	err = db.First(&saved, event.ID).Error
	require.NoError(t, err)
	assert.Equal(t, "book_create", saved.Action)
}

func TestService_LogBorrow(t *testing.T) {
	svc, db := setupTestService(t)

	t.Run("successful borrow", func(t *testing.T) {
		svc.LogBorrow(1, 10, 20, &entities.Loan{ID: 5}, nil)
		svc.Flush()

		var event entities.AuditEvent
		err := db.Where("action = ? AND status = ?", "book_borrow", entities.AuditStatusSuccess).First(&event).Error
		require.NoError(t, err)
		assert.Equal(t, entities.AuditEventBorrow, event.EventType)
		assert.Equal(t, "Book 10 borrowed by reader 20", event.Description)
		require.NotNil(t, event.EntityID)
		assert.Equal(t, uint(10), *event.EntityID)
		assert.Contains(t, event.Metadata, `"loan_id":5`)
		assert.Contains(t, event.Metadata, `"reader_id":20`)
	})

	t.Run("failed borrow", func(t *testing.T) {
		svc.LogBorrow(1, 11, 20, nil, errors.New("book with ID 11 is not available"))
		svc.Flush()

		var event entities.AuditEvent
		err := db.Where("action = ? AND status = ?", "book_borrow", entities.AuditStatusFailed).First(&event).Error
		require.NoError(t, err)
		assert.Contains(t, event.ErrorMsg, "not available")
		assert.NotContains(t, event.Metadata, "loan_id")
	})
}

func TestService_LogReturn(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogReturn(2, 10, 20, &entities.Loan{ID: 5}, nil)
	svc.Flush()

	var event entities.AuditEvent
	err := db.Where("action = ?", "book_return").First(&event).Error
	require.NoError(t, err)
	assert.Equal(t, entities.AuditEventReturn, event.EventType)
	assert.Equal(t, uint(2), event.LibrarianID)
}

func TestService_LogCatalogChanges(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogCreate(1, "book", 42, "The Great Gatsby")
	svc.LogUpdate(1, "reader", 7, "Ann Lee")
	svc.LogDelete(1, "book", 42, "The Great Gatsby")
	svc.Flush()

	var event entities.AuditEvent
	err := db.Where("action = ?", "book_delete").First(&event).Error
	require.NoError(t, err)
	assert.Equal(t, entities.AuditEventDelete, event.EventType)
	assert.Equal(t, "book", event.EntityType)
	require.NotNil(t, event.EntityID)
	assert.Equal(t, uint(42), *event.EntityID)

	var count int64
	require.NoError(t, db.Model(&entities.AuditEvent{}).Where("action IN ?", []string{"book_create", "reader_update"}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestService_LogAuth(t *testing.T) {
	svc, db := setupTestService(t)

	t.Run("successful login", func(t *testing.T) {
		svc.LogAuth(1, "login", "192.168.1.1", "Mozilla/5.0", true)
		svc.Flush()

		var event entities.AuditEvent
		err := db.Where("action = ?", "login").First(&event).Error
		require.NoError(t, err)
		assert.Equal(t, entities.AuditStatusSuccess, event.Status)
		assert.Equal(t, "192.168.1.1", event.IPAddress)
	})

	t.Run("failed login", func(t *testing.T) {
		svc.LogAuth(0, "login_failed", "10.0.0.1", "curl/7.68.0", false)
		svc.Flush()

		var event entities.AuditEvent
		err := db.Where("action = ?", "login_failed").First(&event).Error
		require.NoError(t, err)
		assert.Equal(t, entities.AuditStatusFailed, event.Status)
	})
}

func TestService_GetEvents(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	// Create some events synchronously
	for i := 0; i < 5; i++ {
		err := svc.Log(ctx, &entities.AuditEvent{
			LibrarianID: 1,
			EventType:   entities.AuditEventBorrow,
			Action:      "test",
			Status:      entities.AuditStatusSuccess,
		})
		require.NoError(t, err)
	}

	events, total, err := svc.GetEvents(ctx, auditRepo.Filter{LibrarianID: 1}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, events, 5)
}

func TestService_DeleteOldEvents(t *testing.T) {
	svc, db := setupTestService(t)

	// Create old event
	oldEvent := &entities.AuditEvent{
		LibrarianID: 1,
		EventType:   entities.AuditEventBorrow,
		Action:      "old",
		Status:      entities.AuditStatusSuccess,
		CreatedAt:   time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, db.Create(oldEvent).Error)

	// Create new event
	newEvent := &entities.AuditEvent{
		LibrarianID: 1,
		EventType:   entities.AuditEventDelete,
		Action:      "new",
		Status:      entities.AuditStatusSuccess,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, db.Create(newEvent).Error)

	// Delete events older than 24 hours
	deleted, err := svc.DeleteOldEvents(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []entities.AuditEvent
	db.Find(&remaining)
	assert.Len(t, remaining, 1)
	assert.Equal(t, "new", remaining[0].Action)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10c", 10, "exactly10c"},
		{"this is a very long string", 10, "this is..."},
		{"", 5, ""},
	}

	for _, tc := range tests {
		result := truncate(tc.input, tc.maxLen)
		assert.Equal(t, tc.expected, result)
	}
}
