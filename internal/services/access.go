package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoplist/api/internal/metrics"
	"github.com/shoplist/api/internal/models"
)

// HouseholdDirectory answers the two questions every access check asks.
// HouseholdRegistry implements it.
type HouseholdDirectory interface {
	Exists(ctx context.Context, householdID uuid.UUID) (bool, error)
	IsMember(ctx context.Context, userID, householdID uuid.UUID) (bool, error)
}

// AccessService resolves which household owns a list or item and checks
// that the acting user belongs to it. A missing entity is reported as not
// found before membership is considered.
type AccessService struct {
	DB         *gorm.DB
	Households HouseholdDirectory
	Lists      *ListLedger
	Metrics    *metrics.Metrics
}

func NewAccessService(db *gorm.DB, households HouseholdDirectory, lists *ListLedger, m *metrics.Metrics) *AccessService {
	return &AccessService{DB: db, Households: households, Lists: lists, Metrics: m}
}

func (a *AccessService) RequireHouseholdMember(ctx context.Context, userID, householdID uuid.UUID) error {
	exists, err := a.Households.Exists(ctx, householdID)
	if err != nil {
		return err
	}
	if !exists {
		return notFound("household")
	}
	return a.requireMember(ctx, userID, householdID, "household")
}

func (a *AccessService) AuthorizeList(ctx context.Context, userID, listID uuid.UUID) (*models.ShoppingList, error) {
	list, err := a.Lists.Get(ctx, listID)
	if err != nil {
		return nil, err
	}
	if err := a.requireMember(ctx, userID, list.HouseholdID, "list"); err != nil {
		return nil, err
	}
	return list, nil
}

type ownedItem struct {
	models.ShoppingItem
	HouseholdID uuid.UUID
}

// AuthorizeItem resolves item, list and household in one query. The
// returned household id saves callers a second lookup.
func (a *AccessService) AuthorizeItem(ctx context.Context, userID, itemID uuid.UUID) (*models.ShoppingItem, uuid.UUID, error) {
	var rows []ownedItem
	err := a.DB.WithContext(ctx).
		Table("shopping_items").
		Joins("JOIN shopping_lists ON shopping_lists.id = shopping_items.shopping_list_id").
		Where("shopping_items.id = ?", itemID).
		Select("shopping_items.*, shopping_lists.household_id AS household_id").
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("resolve item: %w", err)
	}
	if len(rows) == 0 {
		return nil, uuid.Nil, notFound("item")
	}

	row := rows[0]
	if err := a.requireMember(ctx, userID, row.HouseholdID, "item"); err != nil {
		return nil, uuid.Nil, err
	}
	return &row.ShoppingItem, row.HouseholdID, nil
}

func (a *AccessService) requireMember(ctx context.Context, userID, householdID uuid.UUID, resource string) error {
	ok, err := a.Households.IsMember(ctx, userID, householdID)
	if err != nil {
		return err
	}
	if !ok {
		a.Metrics.IncrementAccessDenied(resource)
		return ErrForbidden
	}
	return nil
}
