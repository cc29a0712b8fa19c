package entities

import "time"

// AuditEventType groups audit events by what happened.
type AuditEventType string

const (
	AuditEventBorrow AuditEventType = "borrow"
	AuditEventReturn AuditEventType = "return"
	AuditEventCreate AuditEventType = "create"
	AuditEventUpdate AuditEventType = "update"
	AuditEventDelete AuditEventType = "delete"
	AuditEventAuth   AuditEventType = "auth"
)

// AuditEventTypes lists every event type in display order.
func AuditEventTypes() []AuditEventType {
	return []AuditEventType{
		AuditEventBorrow,
		AuditEventReturn,
		AuditEventCreate,
		AuditEventUpdate,
		AuditEventDelete,
		AuditEventAuth,
	}
}

// Valid reports whether t is one of the known event types.
func (t AuditEventType) Valid() bool {
	for _, known := range AuditEventTypes() {
		if t == known {
			return true
		}
	}
	return false
}

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

// AuditEvent records one action taken against the library, successful or not.
// Borrow and return events point at the loan when one was written, or at the
// book when the attempt was refused.
type AuditEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	LibrarianID uint           `gorm:"index" json:"librarian_id"` // 0 when anonymous
	EventType   AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action      string         `gorm:"size:100" json:"action"` // book_borrow, reader_delete, login, ...
	Description string         `gorm:"size:500" json:"description"`
	EntityType  string         `gorm:"size:50;index:idx_audit_entity" json:"entity_type"`
	EntityID    *uint          `gorm:"index:idx_audit_entity" json:"entity_id,omitempty"`
	Metadata    string         `gorm:"type:text" json:"metadata,omitempty"` // JSON
	IPAddress   string         `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent   string         `gorm:"size:500" json:"user_agent,omitempty"`
	Status      AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg    string         `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}

// Failed reports whether the audited action was refused or errored.
func (e AuditEvent) Failed() bool {
	return e.Status == AuditStatusFailed
}
