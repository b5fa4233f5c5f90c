package repositories

import (
	"context"

	"koleksi/internal/models"

	"gorm.io/gorm"
)

// GORMGroupRepository is a GORM implementation of GroupRepository.
type GORMGroupRepository struct {
	db *gorm.DB
}

// NewGORMGroupRepository creates a new instance of GORMGroupRepository.
func NewGORMGroupRepository(db *gorm.DB) *GORMGroupRepository {
	return &GORMGroupRepository{
		db: db,
	}
}

// List retrieves every group owned by ownerID.
func (r *GORMGroupRepository) List(ctx context.Context, ownerID string) ([]models.Group, error) {
	groups := []models.Group{}
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name asc, id asc").
		Find(&groups).Error; err != nil {
		return nil, translate(err, "failed to list groups")
	}
	return groups, nil
}

// GetByID retrieves a single group by its ID, scoped to the owner.
func (r *GORMGroupRepository) GetByID(ctx context.Context, ownerID, id string) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		First(&group).Error; err != nil {
		return nil, translate(err, "failed to get group %s", id)
	}
	return &group, nil
}

// GetByName retrieves the owner's group with the given name.
func (r *GORMGroupRepository) GetByName(ctx context.Context, ownerID, name string) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND name = ?", ownerID, name).
		First(&group).Error; err != nil {
		return nil, translate(err, "failed to get group named %q", name)
	}
	return &group, nil
}

// Create inserts a new group.
func (r *GORMGroupRepository) Create(ctx context.Context, group *models.Group) error {
	if err := r.db.WithContext(ctx).Create(group).Error; err != nil {
		return translate(err, "failed to create group")
	}
	return nil
}

// Update writes the mutable fields of an existing group. The owner is part of the
// match condition and is never written.
func (r *GORMGroupRepository) Update(ctx context.Context, group *models.Group) error {
	res := r.db.WithContext(ctx).
		Model(group).
		Where("owner_id = ?", group.OwnerID).
		Select("name", "description", "updated_at").
		Updates(group)
	if res.Error != nil {
		return translate(res.Error, "failed to update group %s", group.ID)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "group %s not found for update", group.ID)
	}
	return nil
}

// Delete removes a group by its ID, scoped to the owner.
func (r *GORMGroupRepository) Delete(ctx context.Context, ownerID, id string) error {
	res := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Delete(&models.Group{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error, "failed to delete group %s", id)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "group %s not found for deletion", id)
	}
	return nil
}
