package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shoplist/api/internal/metrics"
	"github.com/shoplist/api/internal/middleware"
)

type Router struct {
	Auth       *AuthHandler
	Households *HouseholdsHandler
	Lists      *ListsHandler
	Items      *ItemsHandler
	Middleware *middleware.AuthMiddleware
	Metrics    *metrics.Metrics
}

func (r *Router) Register(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", r.Metrics.Handler())

	api := app.Group("/api")
	api.Get("/version", GetVersion(r.Auth.Revoked))

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", r.Auth.Register)
	authRoutes.Post("/login", r.Auth.Login)
	authRoutes.Post("/logout", r.Middleware.RequireAuth, r.Auth.Logout)
	authRoutes.Get("/me", r.Middleware.RequireAuth, r.Auth.Me)

	householdRoutes := api.Group("/households", r.Middleware.RequireAuth)
	householdRoutes.Post("/", r.Households.Create)
	householdRoutes.Get("/", r.Households.List)
	householdRoutes.Get("/:id", r.Households.Get)
	householdRoutes.Delete("/:id", r.Households.Delete)
	householdRoutes.Post("/:id/members", r.Households.AddMember)
	householdRoutes.Delete("/:id/members/me", r.Households.Leave)
	householdRoutes.Get("/:id/activity", r.Households.Activity)
	householdRoutes.Post("/:id/lists", r.Lists.Create)
	householdRoutes.Get("/:id/lists", r.Lists.ListForHousehold)

	listRoutes := api.Group("/lists", r.Middleware.RequireAuth)
	listRoutes.Get("/:id", r.Lists.Get)
	listRoutes.Delete("/:id", r.Lists.Delete)
	listRoutes.Post("/:id/items", r.Items.Create)
	listRoutes.Get("/:id/items", r.Items.ListForList)

	itemRoutes := api.Group("/items", r.Middleware.RequireAuth)
	itemRoutes.Put("/:id", r.Items.Update)
	itemRoutes.Patch("/:id", r.Items.Patch)
	itemRoutes.Post("/:id/toggle", r.Items.Toggle)
	itemRoutes.Delete("/:id", r.Items.Delete)
}
