package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/shoplist/api/internal/metrics"
	"github.com/shoplist/api/internal/models"
	"github.com/shoplist/api/pkg/logger"
	"github.com/shoplist/api/pkg/utils"
)

// ShoppingService is the operation surface for households, lists and items.
// Every method takes the acting user explicitly and runs the access check
// before touching a ledger. Successful mutations are written to the
// household's activity log.
type ShoppingService struct {
	Identity   *IdentityService
	Households *HouseholdRegistry
	Lists      *ListLedger
	Items      *ItemLedger
	Access     *AccessService
	Audit      *AuditService
	Metrics    *metrics.Metrics
}

func NewShoppingService(identity *IdentityService, households *HouseholdRegistry, lists *ListLedger, items *ItemLedger, access *AccessService, audit *AuditService, m *metrics.Metrics) *ShoppingService {
	return &ShoppingService{
		Identity:   identity,
		Households: households,
		Lists:      lists,
		Items:      items,
		Access:     access,
		Audit:      audit,
		Metrics:    m,
	}
}

func householdEntry(ctx context.Context, actorID, householdID uuid.UUID, action, resourceType string, resourceID uuid.UUID, details map[string]interface{}) AuditEntry {
	meta := requestMetaFrom(ctx)
	return AuditEntry{
		UserID:       &actorID,
		HouseholdID:  &householdID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   &resourceID,
		Details:      details,
		IPAddress:    meta.ip,
		RequestID:    meta.requestID,
	}
}

func (s *ShoppingService) record(ctx context.Context, actorID, householdID uuid.UUID, action, resourceType string, resourceID uuid.UUID, details map[string]interface{}) {
	s.Audit.LogAsync(householdEntry(ctx, actorID, householdID, action, resourceType, resourceID, details))
}

func (s *ShoppingService) CreateHousehold(ctx context.Context, actorID uuid.UUID, name string) (*models.Household, error) {
	household, err := s.Households.Create(ctx, actorID, name)
	if err != nil {
		return nil, err
	}
	s.Metrics.IncrementHouseholdsCreated()
	s.record(ctx, actorID, household.ID, ActionHouseholdCreate, "household", household.ID, map[string]interface{}{
		"name": household.Name,
	})
	return household, nil
}

func (s *ShoppingService) ListHouseholds(ctx context.Context, actorID uuid.UUID) ([]models.Household, error) {
	return s.Households.ListForUser(ctx, actorID)
}

func (s *ShoppingService) GetHousehold(ctx context.Context, actorID, householdID uuid.UUID) (*models.Household, error) {
	if err := s.Access.RequireHouseholdMember(ctx, actorID, householdID); err != nil {
		return nil, err
	}
	return s.Households.Get(ctx, householdID)
}

func (s *ShoppingService) DeleteHousehold(ctx context.Context, actorID, householdID uuid.UUID) error {
	if err := s.Access.RequireHouseholdMember(ctx, actorID, householdID); err != nil {
		return err
	}
	if err := s.Households.Delete(ctx, householdID); err != nil {
		return err
	}
	// Written synchronously: this row is the only trace left of the household.
	entry := householdEntry(ctx, actorID, householdID, ActionHouseholdDelete, "household", householdID, nil)
	if err := s.Audit.Log(ctx, entry); err != nil {
		logger.ErrorWithUser(actorID.String(), "audit_household_delete_failed", err, map[string]interface{}{
			"household_id": householdID.String(),
		})
	}
	return nil
}

// AddMember invites the registered user with the given email.
func (s *ShoppingService) AddMember(ctx context.Context, actorID, householdID uuid.UUID, email string) (*models.User, error) {
	if err := s.Access.RequireHouseholdMember(ctx, actorID, householdID); err != nil {
		return nil, err
	}
	if NormalizeEmail(email) == "" {
		return nil, invalid("email", "is required")
	}
	user, err := s.Identity.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.Households.AddMember(ctx, householdID, user.ID); err != nil {
		return nil, err
	}
	s.record(ctx, actorID, householdID, ActionHouseholdMemberAdd, "household", householdID, map[string]interface{}{
		"member_id":       user.ID.String(),
		"member_username": user.Username,
	})
	return user, nil
}

// LeaveHousehold removes the actor's membership and reports whether the
// household was deleted because nobody was left in it.
func (s *ShoppingService) LeaveHousehold(ctx context.Context, actorID, householdID uuid.UUID) (bool, error) {
	if err := s.Access.RequireHouseholdMember(ctx, actorID, householdID); err != nil {
		return false, err
	}
	deleted, err := s.Households.RemoveMember(ctx, householdID, actorID)
	if err != nil {
		return false, err
	}
	s.record(ctx, actorID, householdID, ActionHouseholdLeave, "household", householdID, map[string]interface{}{
		"household_deleted": deleted,
	})
	return deleted, nil
}

func (s *ShoppingService) HouseholdActivity(ctx context.Context, actorID, householdID uuid.UUID, p utils.PaginationParams) ([]models.AuditLog, int64, error) {
	if err := s.Access.RequireHouseholdMember(ctx, actorID, householdID); err != nil {
		return nil, 0, err
	}
	return s.Audit.ListForHousehold(ctx, householdID, p)
}

func (s *ShoppingService) CreateList(ctx context.Context, actorID, householdID uuid.UUID, in ListInput) (*models.ShoppingList, error) {
	if err := s.Access.RequireHouseholdMember(ctx, actorID, householdID); err != nil {
		return nil, err
	}
	list, err := s.Lists.Create(ctx, householdID, in)
	if err != nil {
		return nil, err
	}
	s.Metrics.IncrementListsCreated()
	s.record(ctx, actorID, householdID, ActionListCreate, "list", list.ID, map[string]interface{}{
		"name": list.Name,
		"date": list.Date.String(),
	})
	return list, nil
}

func (s *ShoppingService) ListLists(ctx context.Context, actorID, householdID uuid.UUID) ([]models.ShoppingList, error) {
	if err := s.Access.RequireHouseholdMember(ctx, actorID, householdID); err != nil {
		return nil, err
	}
	return s.Lists.ListForHousehold(ctx, householdID)
}

func (s *ShoppingService) GetList(ctx context.Context, actorID, listID uuid.UUID) (*models.ShoppingList, error) {
	return s.Access.AuthorizeList(ctx, actorID, listID)
}

func (s *ShoppingService) DeleteList(ctx context.Context, actorID, listID uuid.UUID) error {
	list, err := s.Access.AuthorizeList(ctx, actorID, listID)
	if err != nil {
		return err
	}
	if err := s.Lists.Delete(ctx, list.ID); err != nil {
		return err
	}
	s.record(ctx, actorID, list.HouseholdID, ActionListDelete, "list", list.ID, map[string]interface{}{
		"name": list.Name,
	})
	return nil
}

func (s *ShoppingService) AddItem(ctx context.Context, actorID, listID uuid.UUID, in ItemInput) (*models.ShoppingItem, error) {
	list, err := s.Access.AuthorizeList(ctx, actorID, listID)
	if err != nil {
		return nil, err
	}
	item, err := s.Items.Create(ctx, list.ID, in)
	if err != nil {
		return nil, err
	}
	s.Metrics.IncrementItemsCreated()
	s.record(ctx, actorID, list.HouseholdID, ActionItemCreate, "item", item.ID, map[string]interface{}{
		"name":    item.Name,
		"list_id": list.ID.String(),
	})
	return item, nil
}

func (s *ShoppingService) ListItems(ctx context.Context, actorID, listID uuid.UUID) ([]models.ShoppingItem, error) {
	list, err := s.Access.AuthorizeList(ctx, actorID, listID)
	if err != nil {
		return nil, err
	}
	return s.Items.ListForList(ctx, list.ID)
}

// EditItem replaces all fields of the item.
func (s *ShoppingService) EditItem(ctx context.Context, actorID, itemID uuid.UUID, in ItemInput, bought bool) (*models.ShoppingItem, error) {
	_, householdID, err := s.Access.AuthorizeItem(ctx, actorID, itemID)
	if err != nil {
		return nil, err
	}
	item, err := s.Items.Update(ctx, itemID, in, bought)
	if err != nil {
		return nil, err
	}
	s.record(ctx, actorID, householdID, ActionItemUpdate, "item", item.ID, map[string]interface{}{
		"name": item.Name,
	})
	return item, nil
}

func (s *ShoppingService) PatchItem(ctx context.Context, actorID, itemID uuid.UUID, patch ItemPatch) (*models.ShoppingItem, error) {
	_, householdID, err := s.Access.AuthorizeItem(ctx, actorID, itemID)
	if err != nil {
		return nil, err
	}
	item, err := s.Items.Patch(ctx, itemID, patch)
	if err != nil {
		return nil, err
	}
	s.record(ctx, actorID, householdID, ActionItemUpdate, "item", item.ID, map[string]interface{}{
		"name":    item.Name,
		"partial": true,
	})
	return item, nil
}

func (s *ShoppingService) ToggleBought(ctx context.Context, actorID, itemID uuid.UUID) (*models.ShoppingItem, error) {
	_, householdID, err := s.Access.AuthorizeItem(ctx, actorID, itemID)
	if err != nil {
		return nil, err
	}
	item, err := s.Items.ToggleBought(ctx, itemID)
	if err != nil {
		return nil, err
	}
	s.Metrics.ObserveToggle(item.Bought)
	s.record(ctx, actorID, householdID, ActionItemToggle, "item", item.ID, map[string]interface{}{
		"name":   item.Name,
		"bought": item.Bought,
	})
	return item, nil
}

func (s *ShoppingService) DeleteItem(ctx context.Context, actorID, itemID uuid.UUID) error {
	item, householdID, err := s.Access.AuthorizeItem(ctx, actorID, itemID)
	if err != nil {
		return err
	}
	if err := s.Items.Delete(ctx, itemID); err != nil {
		return err
	}
	s.record(ctx, actorID, householdID, ActionItemDelete, "item", item.ID, map[string]interface{}{
		"name": item.Name,
	})
	return nil
}
