// Package catalog manages the books, readers and librarian accounts that the
// borrowing workflow refers to.
//
// Inputs are validated once here, against the `validate` tags on the input
// structs. Deletions are soft and are refused with HAS_OPEN_LOANS while an
// open loan still references the record.
package catalog
