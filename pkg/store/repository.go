package store

import (
	"context"
	"errors"

	"github.com/restinspect/platform/pkg/resolution"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// Repository is the gorm-backed record store. It satisfies resolution.Store
// and tweets.Store.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&Restaurant{},
		&Inspection{},
		&Link{},
		&TweetMatch{},
		&ResolutionRun{},
	)
}

// Transaction runs fn against a repository bound to one database
// transaction, rolling back when fn returns an error.
func (r *Repository) Transaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) WithTx(ctx context.Context, fn func(w resolution.LinkWriter) error) error {
	return r.Transaction(ctx, func(repo *Repository) error {
		return fn(repo)
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
