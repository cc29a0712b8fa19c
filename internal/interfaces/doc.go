// Package interfaces documents the core abstractions used throughout the application.
//
// Consumers declare the interfaces they need next to the code that uses
// them; this package only asserts, at compile time, that the concrete types
// wired together in internal/entrypoint satisfy them. See checks.go.
//
// # Interface Categories
//
// ## Borrowing Workflow
//
//   - circulation.Store / circulation.Ledger: units of work over books,
//     readers and loans (implemented by internal/database/ledger)
//   - http.Circulation: borrow, return and loan listings
//
// ## Catalogue
//
//   - catalog.BookStore, catalog.ReaderStore, catalog.LibrarianStore:
//     persistence for the CRUD services (internal/database/*)
//   - catalog.PasswordHasher: hashes new librarian passwords (auth.Service)
//   - http.BookCatalog, http.ReaderCatalog, http.LibrarianCatalog
//
// ## Identity & Access
//
//   - auth.LibrarianRepository: account lookup and login bookkeeping
//   - auth.Auditor: authentication events
//
// ## Audit Trail & Background Work
//
//   - http.Auditor, http.AuditLog: record and read audit events
//   - tasks.AuditEventCleaner: retention cleanup run by the task queue
//   - http.TaskQueue, scheduler.Enqueuer: enqueue work on backlite
//
// # Adding a New Store Backend
//
// The ledger runs every borrow and return in one transaction. A new backend
// must implement circulation.Store and report a lost race as
// errors.ErrTxConflict so the workflow can retry it once:
//
//	type Store struct { ... }
//
//	func (s *Store) Transaction(ctx context.Context, fn func(circulation.Ledger) error) error
//	func (s *Store) View(ctx context.Context, fn func(circulation.Ledger) error) error
//
//	var _ circulation.Store = (*Store)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
package interfaces
