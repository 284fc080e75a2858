package models

import "github.com/google/uuid"

type ShoppingList struct {
	BaseModel
	Name        string         `json:"name" gorm:"type:varchar(100);not null"`
	Date        Date           `json:"date" gorm:"type:date;not null;index"`
	HouseholdID uuid.UUID      `json:"householdID" gorm:"type:uuid;not null;index"`
	Items       []ShoppingItem `json:"-" gorm:"foreignKey:ShoppingListID;constraint:OnDelete:CASCADE"`
}
