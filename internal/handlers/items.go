package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shoplist/api/internal/middleware"
	"github.com/shoplist/api/internal/services"
	"github.com/shoplist/api/pkg/logger"
	"github.com/shoplist/api/pkg/utils"
)

type ItemsHandler struct {
	Shopping *services.ShoppingService
}

func NewItemsHandler(shopping *services.ShoppingService) *ItemsHandler {
	return &ItemsHandler{Shopping: shopping}
}

func (h *ItemsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	listID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid list id")
	}

	var req services.ItemInput
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	item, err := h.Shopping.AddItem(c.UserContext(), currentUser.ID, listID, req)
	if err != nil {
		return respondError(c, err, "item_create_failed")
	}

	logger.InfoWithUser(currentUser.ID.String(), "item_created", map[string]interface{}{
		"list_id": listID.String(),
		"item_id": item.ID.String(),
	})
	return utils.Success(c, fiber.StatusCreated, item)
}

func (h *ItemsHandler) ListForList(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	listID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid list id")
	}

	items, err := h.Shopping.ListItems(c.UserContext(), currentUser.ID, listID)
	if err != nil {
		return respondError(c, err, "item_list_failed")
	}
	return utils.Success(c, fiber.StatusOK, items)
}

type updateItemRequest struct {
	services.ItemInput
	Bought bool `json:"bought"`
}

// Update is a full replace: omitted optional fields are cleared and an
// omitted bought flag resets to false.
func (h *ItemsHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	itemID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	var req updateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	item, err := h.Shopping.EditItem(c.UserContext(), currentUser.ID, itemID, req.ItemInput, req.Bought)
	if err != nil {
		return respondError(c, err, "item_update_failed")
	}
	return utils.Success(c, fiber.StatusOK, item)
}

func (h *ItemsHandler) Patch(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	itemID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	var req services.ItemPatch
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	item, err := h.Shopping.PatchItem(c.UserContext(), currentUser.ID, itemID, req)
	if err != nil {
		return respondError(c, err, "item_patch_failed")
	}
	return utils.Success(c, fiber.StatusOK, item)
}

func (h *ItemsHandler) Toggle(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	itemID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	item, err := h.Shopping.ToggleBought(c.UserContext(), currentUser.ID, itemID)
	if err != nil {
		return respondError(c, err, "item_toggle_failed")
	}
	return utils.Success(c, fiber.StatusOK, item)
}

func (h *ItemsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	itemID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	if err := h.Shopping.DeleteItem(c.UserContext(), currentUser.ID, itemID); err != nil {
		return respondError(c, err, "item_delete_failed")
	}

	logger.InfoWithUser(currentUser.ID.String(), "item_deleted", map[string]interface{}{
		"item_id": itemID.String(),
	})
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}
