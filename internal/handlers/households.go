package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shoplist/api/internal/middleware"
	"github.com/shoplist/api/internal/services"
	"github.com/shoplist/api/pkg/logger"
	"github.com/shoplist/api/pkg/utils"
)

type HouseholdsHandler struct {
	Shopping *services.ShoppingService
}

func NewHouseholdsHandler(shopping *services.ShoppingService) *HouseholdsHandler {
	return &HouseholdsHandler{Shopping: shopping}
}

type createHouseholdRequest struct {
	Name string `json:"name"`
}

func (h *HouseholdsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createHouseholdRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	household, err := h.Shopping.CreateHousehold(c.UserContext(), currentUser.ID, req.Name)
	if err != nil {
		return respondError(c, err, "household_create_failed")
	}

	logger.InfoWithUser(currentUser.ID.String(), "household_created", map[string]interface{}{
		"household_id":   household.ID.String(),
		"household_name": household.Name,
	})
	return utils.Success(c, fiber.StatusCreated, household)
}

func (h *HouseholdsHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	households, err := h.Shopping.ListHouseholds(c.UserContext(), currentUser.ID)
	if err != nil {
		return respondError(c, err, "household_list_failed")
	}
	return utils.Success(c, fiber.StatusOK, households)
}

func (h *HouseholdsHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	householdID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid household id")
	}

	household, err := h.Shopping.GetHousehold(c.UserContext(), currentUser.ID, householdID)
	if err != nil {
		return respondError(c, err, "household_get_failed")
	}
	return utils.Success(c, fiber.StatusOK, household)
}

func (h *HouseholdsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	householdID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid household id")
	}

	if err := h.Shopping.DeleteHousehold(c.UserContext(), currentUser.ID, householdID); err != nil {
		return respondError(c, err, "household_delete_failed")
	}

	logger.InfoWithUser(currentUser.ID.String(), "household_deleted", map[string]interface{}{
		"household_id": householdID.String(),
	})
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

type addMemberRequest struct {
	Email string `json:"email"`
}

func (h *HouseholdsHandler) AddMember(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	householdID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid household id")
	}

	var req addMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	member, err := h.Shopping.AddMember(c.UserContext(), currentUser.ID, householdID, req.Email)
	if err != nil {
		return respondError(c, err, "household_member_add_failed")
	}

	logger.InfoWithUser(currentUser.ID.String(), "household_member_added", map[string]interface{}{
		"household_id": householdID.String(),
		"member_id":    member.ID.String(),
	})
	return utils.Success(c, fiber.StatusCreated, member)
}

func (h *HouseholdsHandler) Leave(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	householdID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid household id")
	}

	deleted, err := h.Shopping.LeaveHousehold(c.UserContext(), currentUser.ID, householdID)
	if err != nil {
		return respondError(c, err, "household_leave_failed")
	}

	logger.InfoWithUser(currentUser.ID.String(), "household_left", map[string]interface{}{
		"household_id":      householdID.String(),
		"household_deleted": deleted,
	})
	return utils.Success(c, fiber.StatusOK, fiber.Map{"left": true, "householdDeleted": deleted})
}

func (h *HouseholdsHandler) Activity(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	householdID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid household id")
	}

	p := utils.ParsePagination(c)
	logs, total, err := h.Shopping.HouseholdActivity(c.UserContext(), currentUser.ID, householdID, p)
	if err != nil {
		return respondError(c, err, "household_activity_failed")
	}
	return utils.Paginated(c, logs, p, total)
}
