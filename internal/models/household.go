package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Household struct {
	BaseModel
	Name        string                `json:"name" gorm:"type:varchar(100);not null"`
	Memberships []HouseholdMembership `json:"members,omitempty" gorm:"foreignKey:HouseholdID;constraint:OnDelete:CASCADE"`
	Lists       []ShoppingList        `json:"-" gorm:"foreignKey:HouseholdID;constraint:OnDelete:CASCADE"`
}

// HouseholdMembership is the user/household join row. The composite key
// doubles as the index behind membership checks.
type HouseholdMembership struct {
	UserID      uuid.UUID `json:"userID" gorm:"type:uuid;primaryKey"`
	HouseholdID uuid.UUID `json:"householdID" gorm:"type:uuid;primaryKey;index"`
	CreatedAt   time.Time `json:"joinedAt"`
	User        *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (m *HouseholdMembership) BeforeCreate(_ *gorm.DB) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (HouseholdMembership) TableName() string {
	return "household_memberships"
}
