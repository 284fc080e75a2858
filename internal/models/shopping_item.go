package models

import "github.com/google/uuid"

type ShoppingItem struct {
	BaseModel
	Name           string    `json:"name" gorm:"type:varchar(100);not null"`
	Category       *string   `json:"category,omitempty" gorm:"type:varchar(50)"`
	Amount         *string   `json:"amount,omitempty" gorm:"type:varchar(50)"`
	Notes          *string   `json:"notes,omitempty" gorm:"column:free_text;type:varchar(200)"`
	Bought         bool      `json:"bought" gorm:"not null;default:false;index"`
	ShoppingListID uuid.UUID `json:"shoppingListID" gorm:"type:uuid;not null;index"`
}
