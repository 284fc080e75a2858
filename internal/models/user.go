package models

type User struct {
	BaseModel
	Username     string                `json:"username" gorm:"type:varchar(20);uniqueIndex;not null"`
	Email        string                `json:"email" gorm:"type:varchar(120);uniqueIndex;not null"`
	PasswordHash string                `json:"-" gorm:"type:varchar(256);not null"`
	Memberships  []HouseholdMembership `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
