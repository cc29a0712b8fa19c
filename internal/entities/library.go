package entities

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Person is the shared profile behind readers and librarians.
// Email is unique among live (not soft-deleted) persons.
type Person struct {
	ID        uint           `gorm:"primaryKey" json:"-"`
	FirstName string         `gorm:"size:50;not null" json:"first_name"`
	LastName  string         `gorm:"size:50;not null" json:"last_name"`
	Surname   *string        `gorm:"size:50" json:"surname"`
	Email     string         `gorm:"size:254;not null;uniqueIndex:idx_persons_email,where:deleted_at IS NULL" json:"email"`
	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Person) TableName() string {
	return "persons"
}

// FullName joins the non-empty name parts.
func (p Person) FullName() string {
	parts := []string{p.FirstName}
	if p.Surname != nil && *p.Surname != "" {
		parts = append(parts, *p.Surname)
	}
	parts = append(parts, p.LastName)
	return strings.Join(parts, " ")
}

// Book tracks only the copies currently on the shelf; there is no separate total.
type Book struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Title           string         `gorm:"size:255;not null" json:"title"`
	Author          string         `gorm:"size:255;not null;index" json:"author"`
	Year            int            `gorm:"not null" json:"year"`
	ISBN            *string        `gorm:"column:isbn;size:17;uniqueIndex:idx_books_isbn,where:deleted_at IS NULL" json:"isbn"`
	AvailableCopies int            `gorm:"not null;check:available_copies >= 0" json:"available_copies"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// Reader is a library member who can hold loans.
type Reader struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	PersonID  uint           `gorm:"not null;uniqueIndex" json:"-"`
	Person    Person         `json:"person"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Librarian is a staff account that records borrow and return events.
type Librarian struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	PersonID         uint           `gorm:"not null;uniqueIndex" json:"-"`
	Person           Person         `json:"person"`
	PasswordHash     string         `gorm:"size:255;not null" json:"-"`
	FailedLoginCount int            `gorm:"default:0" json:"-"`
	LockedUntil      *time.Time     `json:"-"`
	LastLoginAt      *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// Email is a shortcut for the librarian's login identity.
func (l *Librarian) Email() string {
	return l.Person.Email
}

// IsLocked reports whether failed logins have locked the account at the given time.
func (l *Librarian) IsLocked(now time.Time) bool {
	return l.LockedUntil != nil && now.Before(*l.LockedUntil)
}

// Loan is a borrowing record. It is open while ReturnedAt is nil and
// transitions to closed exactly once.
type Loan struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	BookID      uint       `gorm:"not null;index:idx_loans_book_reader,priority:1" json:"book_id"`
	ReaderID    uint       `gorm:"not null;index;index:idx_loans_book_reader,priority:2" json:"reader_id"`
	LibrarianID uint       `gorm:"not null;index" json:"librarian_id"`
	BorrowedAt  time.Time  `gorm:"not null" json:"borrowed_at"`
	ReturnedAt  *time.Time `gorm:"index" json:"returned_at"`

	Book      *Book      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Reader    *Reader    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Librarian *Librarian `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

// IsOpen reports whether the book has not been returned yet.
func (l *Loan) IsOpen() bool {
	return l.ReturnedAt == nil
}
