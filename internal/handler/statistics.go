package handler

import (
	"strconv"
	"time"

	"deskhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// HandleStatistics summarises the dashboard counters. window_days overrides
// the configured calibration window.
func (h *Handler) HandleStatistics(c *fiber.Ctx) error {
	window := h.cfg.Defaults.CalibrationWindowDays
	if raw := c.Query("window_days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			return badRequest(c, "window_days must be a non-negative integer")
		}
		window = days
	}

	stats, err := service.GetStatistics(c.UserContext(), h.db, h.users, window, time.Now())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(stats)
}
