package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shoplist/api/internal/middleware"
	"github.com/shoplist/api/internal/services"
	"github.com/shoplist/api/pkg/logger"
	"github.com/shoplist/api/pkg/utils"
)

type ListsHandler struct {
	Shopping *services.ShoppingService
}

func NewListsHandler(shopping *services.ShoppingService) *ListsHandler {
	return &ListsHandler{Shopping: shopping}
}

func (h *ListsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	householdID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid household id")
	}

	var req services.ListInput
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	list, err := h.Shopping.CreateList(c.UserContext(), currentUser.ID, householdID, req)
	if err != nil {
		return respondError(c, err, "list_create_failed")
	}

	logger.InfoWithUser(currentUser.ID.String(), "list_created", map[string]interface{}{
		"household_id": householdID.String(),
		"list_id":      list.ID.String(),
	})
	return utils.Success(c, fiber.StatusCreated, list)
}

func (h *ListsHandler) ListForHousehold(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	householdID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid household id")
	}

	lists, err := h.Shopping.ListLists(c.UserContext(), currentUser.ID, householdID)
	if err != nil {
		return respondError(c, err, "list_list_failed")
	}
	return utils.Success(c, fiber.StatusOK, lists)
}

func (h *ListsHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	listID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid list id")
	}

	list, err := h.Shopping.GetList(c.UserContext(), currentUser.ID, listID)
	if err != nil {
		return respondError(c, err, "list_get_failed")
	}
	return utils.Success(c, fiber.StatusOK, list)
}

func (h *ListsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	listID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid list id")
	}

	if err := h.Shopping.DeleteList(c.UserContext(), currentUser.ID, listID); err != nil {
		return respondError(c, err, "list_delete_failed")
	}

	logger.InfoWithUser(currentUser.ID.String(), "list_deleted", map[string]interface{}{
		"list_id": listID.String(),
	})
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}
