package persistence

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// dbFor returns the transaction carried by ctx, or db when there is none
func dbFor(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// GormUnitOfWork runs a function in a transaction carried by its context.
// Repositories called with that context join the transaction; a unit of work
// opened inside another one becomes a savepoint.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Do commits when fn succeeds and rolls back when it fails
func (u *GormUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return dbFor(ctx, u.db).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}
