package repositories

import (
	"context"

	"koleksi/internal/models"

	"gorm.io/gorm"
)

// GORMCollectibleRepository is a GORM implementation of CollectibleRepository.
type GORMCollectibleRepository struct {
	db *gorm.DB
}

// NewGORMCollectibleRepository creates a new instance of GORMCollectibleRepository.
func NewGORMCollectibleRepository(db *gorm.DB) *GORMCollectibleRepository {
	return &GORMCollectibleRepository{
		db: db,
	}
}

// List retrieves the owner's collectibles, optionally restricted to one group.
// The owner condition is always applied, so a foreign group id matches nothing.
func (r *GORMCollectibleRepository) List(ctx context.Context, ownerID string, filter CollectibleFilter) ([]models.Collectible, error) {
	query := r.db.WithContext(ctx).Preload("Group").Where("owner_id = ?", ownerID)
	if filter.GroupID != "" {
		query = query.Where("group_id = ?", filter.GroupID)
	}

	collectibles := []models.Collectible{}
	if err := query.Order("name asc, id asc").Find(&collectibles).Error; err != nil {
		return nil, translate(err, "failed to list collectibles")
	}
	return collectibles, nil
}

// GetByID retrieves a single collectible by its ID, scoped to the owner.
func (r *GORMCollectibleRepository) GetByID(ctx context.Context, ownerID, id string) (*models.Collectible, error) {
	var collectible models.Collectible
	if err := r.db.WithContext(ctx).
		Preload("Group").
		Where("owner_id = ? AND id = ?", ownerID, id).
		First(&collectible).Error; err != nil {
		return nil, translate(err, "failed to get collectible %s", id)
	}
	return &collectible, nil
}

// Create inserts a new collectible without touching the referenced group.
func (r *GORMCollectibleRepository) Create(ctx context.Context, collectible *models.Collectible) error {
	if err := r.db.WithContext(ctx).Omit("Group").Create(collectible).Error; err != nil {
		return translate(err, "failed to create collectible")
	}
	return nil
}

// Update writes every mutable column, including cleared ones. owner_id and created_at are never written.
func (r *GORMCollectibleRepository) Update(ctx context.Context, collectible *models.Collectible) error {
	res := r.db.WithContext(ctx).
		Model(collectible).
		Where("owner_id = ?", collectible.OwnerID).
		Select("name", "description", "acquisition_date", "estimated_value",
			"condition", "image_key", "group_id", "updated_at").
		Updates(collectible)
	if res.Error != nil {
		return translate(res.Error, "failed to update collectible %s", collectible.ID)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "collectible %s not found for update", collectible.ID)
	}
	return nil
}

// Delete removes a collectible by its ID, scoped to the owner.
func (r *GORMCollectibleRepository) Delete(ctx context.Context, ownerID, id string) error {
	res := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Delete(&models.Collectible{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "failed to delete collectible %s", id)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "collectible %s not found for deletion", id)
	}
	return nil
}

// ClearGroup sets group_id to NULL on every collectible referencing groupID.
// updated_at is left alone, matching what an ON DELETE SET NULL constraint does.
func (r *GORMCollectibleRepository) ClearGroup(ctx context.Context, groupID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Collectible{}).
		Where("group_id = ?", groupID).
		UpdateColumn("group_id", nil)
	if res.Error != nil {
		return 0, translate(res.Error, "failed to detach collectibles from group %s", groupID)
	}
	return res.RowsAffected, nil
}
