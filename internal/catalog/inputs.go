package catalog

import (
	"strings"

	"github.com/mrlokans/librarian/internal/entities"
)

// DefaultAvailableCopies is used when a new book does not say how many
// copies are on the shelf.
const DefaultAvailableCopies = 1

// PersonInput is the profile given when a reader or librarian is created.
type PersonInput struct {
	FirstName string  `json:"first_name" validate:"required,max=50"`
	LastName  string  `json:"last_name" validate:"required,max=50"`
	Surname   *string `json:"surname" validate:"omitempty,max=50"`
	Email     string  `json:"email" validate:"required,email,max=254"`
}

func (p PersonInput) normalized() PersonInput {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Email = strings.TrimSpace(p.Email)
	p.Surname = emptyToNil(trimOptional(p.Surname))
	return p
}

func (p PersonInput) toEntity() entities.Person {
	return entities.Person{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Surname:   p.Surname,
		Email:     p.Email,
	}
}

// PersonUpdate changes only the fields that are set.
type PersonUpdate struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=50"`
	LastName  *string `json:"last_name" validate:"omitempty,min=1,max=50"`
	Surname   *string `json:"surname" validate:"omitempty,max=50"`
	Email     *string `json:"email" validate:"omitempty,email,max=254"`
}

func (p PersonUpdate) normalized() PersonUpdate {
	p.FirstName = trimOptional(p.FirstName)
	p.LastName = trimOptional(p.LastName)
	p.Email = trimOptional(p.Email)
	p.Surname = trimOptional(p.Surname)
	return p
}

func (p PersonUpdate) applyTo(person *entities.Person) {
	if p.FirstName != nil {
		person.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		person.LastName = *p.LastName
	}
	if p.Surname != nil {
		if *p.Surname == "" {
			person.Surname = nil
		} else {
			person.Surname = p.Surname
		}
	}
	if p.Email != nil {
		person.Email = *p.Email
	}
}

// BookInput describes a new book.
type BookInput struct {
	Title           string  `json:"title" validate:"required,max=255"`
	Author          string  `json:"author" validate:"required,max=255"`
	Year            int     `json:"year" validate:"required,gt=0"`
	ISBN            *string `json:"isbn" validate:"omitempty,max=17,isbn_chars"`
	AvailableCopies *int    `json:"available_copies" validate:"omitempty,gte=0"`
}

// BookUpdate changes only the fields that are set. An empty ISBN clears it.
type BookUpdate struct {
	Title           *string `json:"title" validate:"omitempty,min=1,max=255"`
	Author          *string `json:"author" validate:"omitempty,min=1,max=255"`
	Year            *int    `json:"year" validate:"omitempty,gt=0"`
	ISBN            *string `json:"isbn" validate:"omitempty,max=17,isbn_chars"`
	AvailableCopies *int    `json:"available_copies" validate:"omitempty,gte=0"`
}

// changes lists the columns the update sets, keyed by column name.
func (u BookUpdate) changes() map[string]any {
	changes := map[string]any{}
	if u.Title != nil {
		changes["title"] = *u.Title
	}
	if u.Author != nil {
		changes["author"] = *u.Author
	}
	if u.Year != nil {
		changes["year"] = *u.Year
	}
	if u.ISBN != nil {
		changes["isbn"] = emptyToNil(u.ISBN)
	}
	if u.AvailableCopies != nil {
		changes["available_copies"] = *u.AvailableCopies
	}
	return changes
}

// ReaderInput describes a new reader.
type ReaderInput struct {
	Person PersonInput `json:"person" validate:"required"`
}

// ReaderUpdate changes a reader's profile.
type ReaderUpdate struct {
	Person *PersonUpdate `json:"person"`
}

// LibrarianInput describes a new librarian account.
type LibrarianInput struct {
	Person   PersonInput `json:"person" validate:"required"`
	Password string      `json:"password" validate:"required,min=8,max=72"`
}

// LibrarianUpdate changes a librarian's profile.
type LibrarianUpdate struct {
	Person *PersonUpdate `json:"person"`
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	return &trimmed
}
