package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// GORMStore is a GORM implementation of Store.
type GORMStore struct {
	db           *gorm.DB
	groups       *GORMGroupRepository
	collectibles *GORMCollectibleRepository
}

// NewGORMStore creates a Store backed by db.
func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{
		db:           db,
		groups:       NewGORMGroupRepository(db),
		collectibles: NewGORMCollectibleRepository(db),
	}
}

func (s *GORMStore) Groups() GroupRepository { return s.groups }

func (s *GORMStore) Collectibles() CollectibleRepository { return s.collectibles }

// Transaction runs fn inside a database transaction.
func (s *GORMStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGORMStore(tx))
	})
}

// translate maps GORM errors onto the package sentinels.
func translate(err error, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", msg, ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}
