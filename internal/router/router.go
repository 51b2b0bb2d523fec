// Package router assembles the fiber application.
package router

import (
	"errors"
	"log"

	"deskhub/internal/config"
	"deskhub/internal/handler"
	"deskhub/internal/middleware"
	"deskhub/internal/model"
	"deskhub/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

func New(cfg *config.Config, h *handler.Handler, tokens *util.TokenIssuer) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "DeskHub",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			} else {
				log.Printf("Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	if cfg.Server.Env != "test" {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		}))
	}
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/health", h.HandleHealth)
	api.Post("/login", h.HandleLogin)

	if cfg.Server.AuthRequired {
		api.Use(middleware.Auth(tokens))
	}

	// Users
	users := api.Group("/users")
	if cfg.Server.AuthRequired {
		users.Use(middleware.RequireRole(model.RoleAdmin, model.RoleSuperAdmin))
	}
	users.Get("/", h.HandleListUsers)
	users.Post("/", h.HandleCreateUser)
	users.Get("/export", h.HandleExportUsers)
	users.Post("/balances", h.HandleRecomputeBalances)
	users.Get("/:id", h.HandleGetUser)
	users.Put("/:id", h.HandleUpdateUser)
	users.Put("/:id/password", h.HandleSetPassword)
	users.Delete("/:id", h.HandleDeleteUser)

	// Inventory
	api.Get("/items", h.HandleListItems)
	api.Post("/items", h.HandleCreateItem)
	api.Put("/items/:id", h.HandleUpdateItem)
	api.Delete("/items/:id", h.HandleDeleteItem)

	api.Get("/models", h.HandleListModels)
	api.Post("/models", h.HandleCreateModel)
	api.Get("/models/by-item/:itemId", h.HandleModelsByItem)
	api.Put("/models/:id", h.HandleUpdateModel)
	api.Delete("/models/:id", h.HandleDeleteModel)

	api.Get("/units", h.HandleListUnits)
	api.Post("/units", h.HandleCreateUnit)
	api.Get("/units/export", h.HandleExportUnits)
	api.Get("/units/:id", h.HandleGetUnit)
	api.Put("/units/:id", h.HandleUpdateUnit)
	api.Delete("/units/:id", h.HandleDeleteUnit)

	api.Get("/inventory-inout", h.HandleListMovements)
	api.Post("/inventory-inout", h.HandleCreateMovement)
	api.Put("/inventory-inout/:id", h.HandleUpdateMovement)
	api.Delete("/inventory-inout/:id", h.HandleDeleteMovement)

	api.Get("/projects", h.HandleListProjects)
	api.Post("/projects", h.HandleCreateProject)
	api.Put("/projects/:id", h.HandleUpdateProject)
	api.Delete("/projects/:id", h.HandleDeleteProject)

	api.Get("/calendar/:category", h.HandleListEvents)
	api.Post("/calendar/:category", h.HandleCreateEvent)
	api.Put("/calendar/:category/:id", h.HandleUpdateEvent)
	api.Delete("/calendar/:category/:id", h.HandleDeleteEvent)

	// Forms
	api.Post("/send-leave-pdf", h.HandleSendForm)
	api.Get("/forms", h.HandleListForms)
	api.Get("/forms/next-control-number", h.HandleNextControlNumber)
	api.Get("/forms/:id", h.HandleGetForm)
	api.Put("/forms/:id/status", h.HandleSetFormStatus)

	// Reporting
	api.Get("/logs", h.HandleGetLogs)
	api.Get("/login-logs", h.HandleGetLoginLogs)
	api.Get("/statistics", h.HandleStatistics)

	return app
}
