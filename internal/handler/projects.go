package handler

import (
	"strconv"

	"deskhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) HandleListProjects(c *fiber.Ctx) error {
	projects, err := service.ListProjects(c.UserContext(), h.db)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(projects)
}

func (h *Handler) HandleCreateProject(c *fiber.Ctx) error {
	input := new(service.ProjectInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input")
	}
	p, err := service.CreateProject(c.UserContext(), h.db, *input)
	if err != nil {
		return fail(c, err)
	}
	service.LogOperation(c.UserContext(), h.db, actor(c, ""), "create", "project", strconv.FormatUint(uint64(p.ID), 10), p)
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *Handler) HandleUpdateProject(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid project id")
	}
	input := new(service.ProjectInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input")
	}
	p, err := service.UpdateProject(c.UserContext(), h.db, id, *input)
	if err != nil {
		return fail(c, err)
	}
	service.LogOperation(c.UserContext(), h.db, actor(c, ""), "update", "project", c.Params("id"), p)
	return c.JSON(p)
}

func (h *Handler) HandleDeleteProject(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid project id")
	}
	if err := service.DeleteProject(c.UserContext(), h.db, id); err != nil {
		return fail(c, err)
	}
	service.LogOperation(c.UserContext(), h.db, actor(c, ""), "delete", "project", c.Params("id"), nil)
	return c.SendStatus(fiber.StatusNoContent)
}
