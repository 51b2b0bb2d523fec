package handler

import (
	"errors"

	"deskhub/internal/schema"
	"deskhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

type StatusInput struct {
	Status string `json:"status"`
}

// HandleSendForm numbers, renders and mails an HR form. Delivery failures
// are reported with their message.
func (h *Handler) HandleSendForm(c *fiber.Ctx) error {
	input := new(service.FormRequest)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input: "+err.Error())
	}

	rec, err := h.forms.Submit(c.UserContext(), *input)
	if err != nil {
		var svcErr *service.Error
		if errors.As(err, &svcErr) || schema.IsConfigError(err) {
			return fail(c, err)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to send form: " + err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message":        "Form submitted successfully",
		"control_number": rec.ControlNumber,
		"id":             rec.ID,
	})
}

func (h *Handler) HandleListForms(c *fiber.Ctx) error {
	filter := new(service.FormFilter)
	if err := c.QueryParser(filter); err != nil {
		return badRequest(c, "Invalid query parameters")
	}
	records, err := h.forms.List(c.UserContext(), *filter)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(records)
}

func (h *Handler) HandleGetForm(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid form id")
	}
	rec, err := h.forms.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(rec)
}

func (h *Handler) HandleSetFormStatus(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid form id")
	}
	input := new(StatusInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input")
	}
	rec, err := h.forms.SetStatus(c.UserContext(), id, input.Status, actor(c, ""))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(rec)
}

// HandleNextControlNumber previews the number the next submission of
// form_type by username would receive.
func (h *Handler) HandleNextControlNumber(c *fiber.Ctx) error {
	username := c.Query("username")
	if username == "" {
		return badRequest(c, "username is required")
	}
	next, err := h.forms.Preview(c.UserContext(), c.Query("form_type"), username)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"control_number": next})
}
