package repositories

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// UnitOfWork groups the repositories of one request-scoped transaction.
// Writes performed through its repositories are staged and become durable
// only when Commit is called; Rollback discards them.
type UnitOfWork interface {
	Users() UserRepository
	Tasks() TaskRepository
	// Commit makes the staged writes durable and returns the number of
	// affected rows.
	Commit() (int64, error)
	// Rollback discards the staged writes. Calling it after Commit is a no-op,
	// so it is safe to defer.
	Rollback() error
}

// UnitOfWorkFactory opens a new unit of work bound to the caller's context,
// so a disconnecting caller aborts the transaction before commit.
type UnitOfWorkFactory interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}
