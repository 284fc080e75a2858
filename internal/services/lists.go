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

// ListInput is the create form for a shopping list. Date is YYYY-MM-DD.
type ListInput struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

func (in ListInput) parse() (string, models.Date, error) {
	name := strings.TrimSpace(in.Name)
	if err := checkLength("name", name, 2, 100); err != nil {
		return "", models.Date{}, err
	}
	raw := strings.TrimSpace(in.Date)
	if raw == "" {
		return "", models.Date{}, invalid("date", "is required")
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		return "", models.Date{}, invalid("date", "must be a valid date in YYYY-MM-DD format")
	}
	return name, date, nil
}

type ListLedger struct {
	DB *gorm.DB
}

func NewListLedger(db *gorm.DB) *ListLedger {
	return &ListLedger{DB: db}
}

func (l *ListLedger) Create(ctx context.Context, householdID uuid.UUID, in ListInput) (*models.ShoppingList, error) {
	name, date, err := in.parse()
	if err != nil {
		return nil, err
	}

	list := models.ShoppingList{Name: name, Date: date, HouseholdID: householdID}
	if err := l.DB.WithContext(ctx).Create(&list).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, notFound("household")
		}
		return nil, fmt.Errorf("create shopping list: %w", err)
	}
	return &list, nil
}

// ListForHousehold returns lists newest date first; lists sharing a date
// are ordered by creation, newest first.
func (l *ListLedger) ListForHousehold(ctx context.Context, householdID uuid.UUID) ([]models.ShoppingList, error) {
	var lists []models.ShoppingList
	err := l.DB.WithContext(ctx).
		Where("household_id = ?", householdID).
		Order("date DESC").
		Order("created_at DESC").
		Find(&lists).Error
	if err != nil {
		return nil, fmt.Errorf("list shopping lists: %w", err)
	}
	return lists, nil
}

func (l *ListLedger) Get(ctx context.Context, listID uuid.UUID) (*models.ShoppingList, error) {
	var list models.ShoppingList
	if err := l.DB.WithContext(ctx).First(&list, "id = ?", listID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("shopping list")
		}
		return nil, fmt.Errorf("get shopping list: %w", err)
	}
	return &list, nil
}

func (l *ListLedger) Delete(ctx context.Context, listID uuid.UUID) error {
	return l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("shopping_list_id = ?", listID).Delete(&models.ShoppingItem{}).Error; err != nil {
			return fmt.Errorf("delete list items: %w", err)
		}
		result := tx.Delete(&models.ShoppingList{}, "id = ?", listID)
		if result.Error != nil {
			return fmt.Errorf("delete shopping list: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return notFound("shopping list")
		}
		return nil
	})
}
