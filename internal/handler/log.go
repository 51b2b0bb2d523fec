package handler

import (
	"deskhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) HandleGetLogs(c *fiber.Ctx) error {
	page, pageSize := paging(c)

	logs, total, err := service.GetOperationLogs(c.UserContext(), h.db, c.Query("actor"), page, pageSize)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"total": total,
		"page":  page,
		"size":  pageSize,
	})
}

func (h *Handler) HandleGetLoginLogs(c *fiber.Ctx) error {
	page, pageSize := paging(c)

	logs, total, err := service.GetLoginLogs(c.UserContext(), h.db, c.Query("username"), page, pageSize)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"total": total,
		"page":  page,
		"size":  pageSize,
	})
}
