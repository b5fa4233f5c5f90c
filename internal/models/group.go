package models

import "time"

// Group is a named set of collectibles owned by a single principal.
type Group struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null;uniqueIndex:idx_groups_name_owner"`
	Description string    `json:"description" gorm:"type:text"`
	OwnerID     string    `json:"-" gorm:"type:varchar(36);not null;uniqueIndex:idx_groups_name_owner;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
