package repositories

import (
	"context"
	"errors"

	"koleksi/internal/models"
)

var (
	// ErrNotFound is returned when no row matches both the id and the owner.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("duplicate record")
)

// CollectibleFilter narrows a collectible listing. An empty GroupID means no filter.
type CollectibleFilter struct {
	GroupID string
}

// GroupRepository defines data access for groups. Every read and write is scoped to an owner.
type GroupRepository interface {
	List(ctx context.Context, ownerID string) ([]models.Group, error)
	GetByID(ctx context.Context, ownerID, id string) (*models.Group, error)
	GetByName(ctx context.Context, ownerID, name string) (*models.Group, error)
	Create(ctx context.Context, group *models.Group) error
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, ownerID, id string) error
}

// CollectibleRepository defines data access for collectibles. Every read and write is scoped to an owner.
type CollectibleRepository interface {
	List(ctx context.Context, ownerID string, filter CollectibleFilter) ([]models.Collectible, error)
	GetByID(ctx context.Context, ownerID, id string) (*models.Collectible, error)
	Create(ctx context.Context, collectible *models.Collectible) error
	Update(ctx context.Context, collectible *models.Collectible) error
	Delete(ctx context.Context, ownerID, id string) error
	// ClearGroup detaches every collectible referencing groupID and reports how many changed.
	ClearGroup(ctx context.Context, groupID string) (int64, error)
}

// Store bundles the repositories and runs units of work atomically.
type Store interface {
	Groups() GroupRepository
	Collectibles() CollectibleRepository
	// Transaction runs fn against a transactional view of the store.
	// Any error returned by fn rolls every write back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
