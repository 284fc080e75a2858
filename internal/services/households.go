package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoplist/api/internal/models"
)

// HouseholdRegistry owns households and their membership rows. It does not
// check who is calling; that is AccessService's job.
type HouseholdRegistry struct {
	DB *gorm.DB
}

func NewHouseholdRegistry(db *gorm.DB) *HouseholdRegistry {
	return &HouseholdRegistry{DB: db}
}

func validateHouseholdName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := checkLength("name", name, 2, 100); err != nil {
		return "", err
	}
	return name, nil
}

// Create stores the household and makes ownerID its first member in one
// transaction.
func (r *HouseholdRegistry) Create(ctx context.Context, ownerID uuid.UUID, name string) (*models.Household, error) {
	name, err := validateHouseholdName(name)
	if err != nil {
		return nil, err
	}

	household := models.Household{Name: name}
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&household).Error; err != nil {
			return fmt.Errorf("create household: %w", err)
		}
		membership := models.HouseholdMembership{UserID: ownerID, HouseholdID: household.ID}
		if err := tx.Create(&membership).Error; err != nil {
			return fmt.Errorf("create membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &household, nil
}

func (r *HouseholdRegistry) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Household, error) {
	var households []models.Household
	err := r.DB.WithContext(ctx).
		Joins("JOIN household_memberships ON household_memberships.household_id = households.id AND household_memberships.user_id = ?", userID).
		Order("households.created_at ASC").
		Order("households.id ASC").
		Find(&households).Error
	if err != nil {
		return nil, fmt.Errorf("list households: %w", err)
	}
	return households, nil
}

func (r *HouseholdRegistry) Exists(ctx context.Context, householdID uuid.UUID) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Household{}).Where("id = ?", householdID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check household: %w", err)
	}
	return count > 0, nil
}

// IsMember is a single lookup on the membership primary key.
func (r *HouseholdRegistry) IsMember(ctx context.Context, userID, householdID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&models.HouseholdMembership{}).
		Where("household_id = ? AND user_id = ?", householdID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return count > 0, nil
}

func (r *HouseholdRegistry) Get(ctx context.Context, householdID uuid.UUID) (*models.Household, error) {
	var household models.Household
	err := r.DB.WithContext(ctx).
		Preload("Memberships", func(db *gorm.DB) *gorm.DB {
			return db.Order("household_memberships.created_at ASC")
		}).
		Preload("Memberships.User").
		First(&household, "id = ?", householdID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("household")
		}
		return nil, fmt.Errorf("get household: %w", err)
	}
	return &household, nil
}

// Delete removes the household with its lists, their items and all
// memberships. The rows are deleted explicitly so nothing is orphaned even
// where foreign keys are not enforced.
func (r *HouseholdRegistry) Delete(ctx context.Context, householdID uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteHousehold(tx, householdID)
	})
}

func deleteHousehold(tx *gorm.DB, householdID uuid.UUID) error {
	lists := tx.Model(&models.ShoppingList{}).Select("id").Where("household_id = ?", householdID)
	if err := tx.Where("shopping_list_id IN (?)", lists).Delete(&models.ShoppingItem{}).Error; err != nil {
		return fmt.Errorf("delete household items: %w", err)
	}
	if err := tx.Where("household_id = ?", householdID).Delete(&models.ShoppingList{}).Error; err != nil {
		return fmt.Errorf("delete household lists: %w", err)
	}
	if err := tx.Where("household_id = ?", householdID).Delete(&models.HouseholdMembership{}).Error; err != nil {
		return fmt.Errorf("delete memberships: %w", err)
	}
	result := tx.Delete(&models.Household{}, "id = ?", householdID)
	if result.Error != nil {
		return fmt.Errorf("delete household: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("household")
	}
	return nil
}

func (r *HouseholdRegistry) AddMember(ctx context.Context, householdID, userID uuid.UUID) error {
	isMember, err := r.IsMember(ctx, userID, householdID)
	if err != nil {
		return err
	}
	if isMember {
		return ErrAlreadyMember
	}

	membership := models.HouseholdMembership{UserID: userID, HouseholdID: householdID}
	if err := r.DB.WithContext(ctx).Create(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyMember
		}
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// RemoveMember drops the membership. When the last member leaves, the
// household is deleted with everything in it.
func (r *HouseholdRegistry) RemoveMember(ctx context.Context, householdID, userID uuid.UUID) (householdDeleted bool, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("household_id = ? AND user_id = ?", householdID, userID).Delete(&models.HouseholdMembership{})
		if result.Error != nil {
			return fmt.Errorf("remove member: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return notFound("membership")
		}

		var remaining int64
		if err := tx.Model(&models.HouseholdMembership{}).Where("household_id = ?", householdID).Count(&remaining).Error; err != nil {
			return fmt.Errorf("count members: %w", err)
		}
		if remaining > 0 {
			return nil
		}
		householdDeleted = true
		return deleteHousehold(tx, householdID)
	})
	if err != nil {
		return false, err
	}
	return householdDeleted, nil
}
