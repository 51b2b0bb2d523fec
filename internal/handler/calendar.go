package handler

import (
	"strconv"

	"deskhub/internal/model"
	"deskhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// HandleListEvents lists one category's events, optionally limited to the
// from/to query range (YYYY-MM-DD).
func (h *Handler) HandleListEvents(c *fiber.Ctx) error {
	from, err := model.ParseDate(c.Query("from"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	to, err := model.ParseDate(c.Query("to"))
	if err != nil {
		return badRequest(c, err.Error())
	}
	events, err := service.ListEvents(c.UserContext(), h.db, c.Params("category"), from, to)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(events)
}

func (h *Handler) HandleCreateEvent(c *fiber.Ctx) error {
	input := new(service.CalendarInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input: "+err.Error())
	}
	category := c.Params("category")
	ev, err := service.CreateEvent(c.UserContext(), h.db, category, *input)
	if err != nil {
		return fail(c, err)
	}
	service.LogOperation(c.UserContext(), h.db, actor(c, input.Username), "create", "calendar_"+category, strconv.FormatUint(uint64(ev.ID), 10), ev)
	return c.Status(fiber.StatusCreated).JSON(ev)
}

func (h *Handler) HandleUpdateEvent(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid event id")
	}
	input := new(service.CalendarInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input: "+err.Error())
	}
	category := c.Params("category")
	ev, err := service.UpdateEvent(c.UserContext(), h.db, category, id, *input)
	if err != nil {
		return fail(c, err)
	}
	service.LogOperation(c.UserContext(), h.db, actor(c, input.Username), "update", "calendar_"+category, c.Params("id"), ev)
	return c.JSON(ev)
}

func (h *Handler) HandleDeleteEvent(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid event id")
	}
	category := c.Params("category")
	if err := service.DeleteEvent(c.UserContext(), h.db, category, id); err != nil {
		return fail(c, err)
	}
	service.LogOperation(c.UserContext(), h.db, actor(c, ""), "delete", "calendar_"+category, c.Params("id"), nil)
	return c.SendStatus(fiber.StatusNoContent)
}
