package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Condition grades the physical state of a collectible.
type Condition string

const (
	ConditionMint      Condition = "mint"
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
)

// Conditions lists every accepted condition, best first.
var Conditions = []Condition{
	ConditionMint,
	ConditionExcellent,
	ConditionGood,
	ConditionFair,
	ConditionPoor,
}

// Valid reports whether c is one of the enumerated conditions.
func (c Condition) Valid() bool {
	for _, known := range Conditions {
		if c == known {
			return true
		}
	}
	return false
}

// Collectible is a single item in a principal's inventory.
type Collectible struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name            string          `json:"name" gorm:"type:varchar(200);not null"`
	Description     string          `json:"description" gorm:"type:text;not null"`
	AcquisitionDate Date            `json:"acquisition_date" gorm:"type:date;not null"`
	EstimatedValue  decimal.Decimal `json:"estimated_value" gorm:"type:decimal(10,2);not null"`
	Condition       Condition       `json:"condition" gorm:"type:varchar(10);not null"`
	ImageKey        string          `json:"-" gorm:"type:varchar(255)"`
	GroupID         *string         `json:"group" gorm:"type:varchar(36);index"`
	Group           *Group          `json:"-" gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL"`
	OwnerID         string          `json:"-" gorm:"type:varchar(36);not null;index"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Derived on read, never stored.
	GroupName *string `json:"group_name" gorm:"-"`
	ImageURL  *string `json:"image_url" gorm:"-"`
}

// MarshalJSON renders the estimated value with exactly two decimals.
func (c Collectible) MarshalJSON() ([]byte, error) {
	type plain Collectible
	return json.Marshal(struct {
		plain
		EstimatedValue string `json:"estimated_value"`
	}{
		plain:          plain(c),
		EstimatedValue: c.EstimatedValue.StringFixed(2),
	})
}
