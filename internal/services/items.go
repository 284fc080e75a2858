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

const (
	maxItemNameLength     = 100
	maxItemCategoryLength = 50
	maxItemAmountLength   = 50
	maxItemNotesLength    = 200
)

// ItemInput carries every editable item field. Empty optional fields are
// stored as NULL.
type ItemInput struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Notes    string `json:"notes"`
}

// ItemPatch changes only the fields that are set.
type ItemPatch struct {
	Name     *string `json:"name"`
	Category *string `json:"category"`
	Amount   *string `json:"amount"`
	Notes    *string `json:"notes"`
	Bought   *bool   `json:"bought"`
}

// apply validates in and writes it onto item.
func (in ItemInput) apply(item *models.ShoppingItem) error {
	name := strings.TrimSpace(in.Name)
	if err := checkLength("name", name, 1, maxItemNameLength); err != nil {
		return err
	}
	category, err := optionalText("category", in.Category, maxItemCategoryLength)
	if err != nil {
		return err
	}
	amount, err := optionalText("amount", in.Amount, maxItemAmountLength)
	if err != nil {
		return err
	}
	notes, err := optionalText("notes", in.Notes, maxItemNotesLength)
	if err != nil {
		return err
	}

	item.Name = name
	item.Category = category
	item.Amount = amount
	item.Notes = notes
	return nil
}

func inputFromItem(item *models.ShoppingItem) ItemInput {
	return ItemInput{
		Name:     item.Name,
		Category: deref(item.Category),
		Amount:   deref(item.Amount),
		Notes:    deref(item.Notes),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type ItemLedger struct {
	DB *gorm.DB
}

func NewItemLedger(db *gorm.DB) *ItemLedger {
	return &ItemLedger{DB: db}
}

func (l *ItemLedger) Create(ctx context.Context, listID uuid.UUID, in ItemInput) (*models.ShoppingItem, error) {
	item := models.ShoppingItem{ShoppingListID: listID}
	if err := in.apply(&item); err != nil {
		return nil, err
	}
	if err := l.DB.WithContext(ctx).Create(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, notFound("shopping list")
		}
		return nil, fmt.Errorf("create item: %w", err)
	}
	return &item, nil
}

// ListForList puts unbought items first, each group sorted by name.
func (l *ItemLedger) ListForList(ctx context.Context, listID uuid.UUID) ([]models.ShoppingItem, error) {
	var items []models.ShoppingItem
	err := l.DB.WithContext(ctx).
		Where("shopping_list_id = ?", listID).
		Order("bought ASC").
		Order("name ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (l *ItemLedger) Get(ctx context.Context, itemID uuid.UUID) (*models.ShoppingItem, error) {
	return l.get(l.DB.WithContext(ctx), itemID)
}

func (l *ItemLedger) get(db *gorm.DB, itemID uuid.UUID) (*models.ShoppingItem, error) {
	var item models.ShoppingItem
	if err := db.First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("item")
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &item, nil
}

// Update replaces every editable field. Optional fields left empty are
// cleared and bought takes the given value.
func (l *ItemLedger) Update(ctx context.Context, itemID uuid.UUID, in ItemInput, bought bool) (*models.ShoppingItem, error) {
	var item *models.ShoppingItem
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = l.get(tx, itemID)
		if err != nil {
			return err
		}
		if err := in.apply(item); err != nil {
			return err
		}
		item.Bought = bought
		return l.save(tx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (l *ItemLedger) Patch(ctx context.Context, itemID uuid.UUID, patch ItemPatch) (*models.ShoppingItem, error) {
	var item *models.ShoppingItem
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = l.get(tx, itemID)
		if err != nil {
			return err
		}

		in := inputFromItem(item)
		if patch.Name != nil {
			in.Name = *patch.Name
		}
		if patch.Category != nil {
			in.Category = *patch.Category
		}
		if patch.Amount != nil {
			in.Amount = *patch.Amount
		}
		if patch.Notes != nil {
			in.Notes = *patch.Notes
		}
		if err := in.apply(item); err != nil {
			return err
		}
		if patch.Bought != nil {
			item.Bought = *patch.Bought
		}
		return l.save(tx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (l *ItemLedger) save(tx *gorm.DB, item *models.ShoppingItem) error {
	err := tx.Model(item).Updates(map[string]interface{}{
		"name":      item.Name,
		"category":  item.Category,
		"amount":    item.Amount,
		"free_text": item.Notes,
		"bought":    item.Bought,
	}).Error
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// ToggleBought flips the flag with a single UPDATE so concurrent toggles
// never read a stale value.
func (l *ItemLedger) ToggleBought(ctx context.Context, itemID uuid.UUID) (*models.ShoppingItem, error) {
	var item *models.ShoppingItem
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ShoppingItem{}).
			Where("id = ?", itemID).
			Update("bought", gorm.Expr("NOT bought"))
		if result.Error != nil {
			return fmt.Errorf("toggle item: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return notFound("item")
		}
		var err error
		item, err = l.get(tx, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (l *ItemLedger) Delete(ctx context.Context, itemID uuid.UUID) error {
	result := l.DB.WithContext(ctx).Delete(&models.ShoppingItem{}, "id = ?", itemID)
	if result.Error != nil {
		return fmt.Errorf("delete item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("item")
	}
	return nil
}
