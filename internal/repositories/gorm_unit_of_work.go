package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// GormUnitOfWorkFactory opens GORM-transaction-backed units of work.
type GormUnitOfWorkFactory struct {
	db *gorm.DB
}

// NewGormUnitOfWorkFactory creates a factory over the given database handle.
func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db}
}

// Begin starts a transaction bound to ctx and wraps it in a UnitOfWork.
func (f *GormUnitOfWorkFactory) Begin(ctx context.Context) (UnitOfWork, error) {
	tx := f.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	uow := &gormUnitOfWork{tx: tx}
	uow.users = NewGORMUserRepository(tx, &uow.affected)
	uow.tasks = NewGORMTaskRepository(tx, &uow.affected)
	return uow, nil
}

type gormUnitOfWork struct {
	tx       *gorm.DB
	affected int64
	users    *GORMUserRepository
	tasks    *GORMTaskRepository
	finished bool
}

func (u *gormUnitOfWork) Users() UserRepository {
	return u.users
}

func (u *gormUnitOfWork) Tasks() TaskRepository {
	return u.tasks
}

// Commit commits the transaction and returns the number of rows the staged
// writes affected. A constraint violation (e.g. duplicate email) or lost
// connection surfaces here.
func (u *gormUnitOfWork) Commit() (int64, error) {
	if u.finished {
		return 0, fmt.Errorf("unit of work already finished")
	}
	u.finished = true
	if err := u.tx.Commit().Error; err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return u.affected, nil
}

// Rollback discards the staged writes. After Commit it is a no-op.
func (u *gormUnitOfWork) Rollback() error {
	if u.finished {
		return nil
	}
	u.finished = true
	if err := u.tx.Rollback().Error; err != nil {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}
