package handler

import (
	"errors"
	"log"
	"strconv"

	"deskhub/internal/config"
	"deskhub/internal/middleware"
	"deskhub/internal/schema"
	"deskhub/internal/service"
	"deskhub/internal/util"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Handler serves the /api routes.
type Handler struct {
	db     *gorm.DB
	cfg    *config.Config
	users  *service.UserStore
	forms  *service.FormService
	tokens *util.TokenIssuer
}

func New(db *gorm.DB, cfg *config.Config, users *service.UserStore, forms *service.FormService, tokens *util.TokenIssuer) *Handler {
	return &Handler{db: db, cfg: cfg, users: users, forms: forms, tokens: tokens}
}

// fail translates a service error into a JSON error response.
func fail(c *fiber.Ctx, err error) error {
	var svcErr *service.Error
	switch {
	case errors.As(err, &svcErr):
		return c.Status(statusOf(svcErr.Kind)).JSON(fiber.Map{"error": svcErr.Msg})
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrInactive):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case schema.IsConfigError(err):
		log.Printf("Configuration error on %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Printf("Request %s %s failed: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}

func statusOf(kind error) int {
	switch kind {
	case service.ErrValidation:
		return fiber.StatusBadRequest
	case service.ErrNotFound:
		return fiber.StatusNotFound
	case service.ErrConflict:
		return fiber.StatusConflict
	case service.ErrUnauthorized, service.ErrInactive:
		return fiber.StatusUnauthorized
	}
	return fiber.StatusInternalServerError
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// actor names who is making the change: the token's user when there is
// one, otherwise the fallback from the body, otherwise "system".
func actor(c *fiber.Ctx, fallback string) string {
	if claims := middleware.ClaimsFrom(c); claims != nil {
		return claims.Username
	}
	if fallback != "" {
		return fallback
	}
	return "system"
}

func paging(c *fiber.Ctx) (page, pageSize int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	pageSize, _ = strconv.Atoi(c.Query("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// HandleHealth reports whether the database answers.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.UserContext())
	}
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
