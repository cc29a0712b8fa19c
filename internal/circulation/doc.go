// Package circulation implements the borrowing workflow: lending a book to a
// reader, taking it back, and listing what is currently out.
//
// Each borrow or return runs its read-check-mutate sequence inside a single
// store transaction, so the availability counter and the loan record change
// together or not at all. The rules enforced are:
//
//   - a book's available copies never drop below zero
//   - a reader holds at most MaxOpenLoans unreturned books
//   - a loan is closed at most once, and only closing it puts the copy back
//
// A transaction that loses a race with a concurrent one is retried once and
// then reported as a CONFLICT/TX_CONFLICT error. Business-rule failures are
// never retried.
package circulation
