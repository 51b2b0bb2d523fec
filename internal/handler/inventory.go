package handler

import (
	"strconv"

	"deskhub/internal/model"
	"deskhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Items

func (h *Handler) HandleListItems(c *fiber.Ctx) error {
	items, err := service.ListItems(c.UserContext(), h.db)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(items)
}

func (h *Handler) HandleCreateItem(c *fiber.Ctx) error {
	input := new(service.ItemInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input")
	}
	input.UpdatedBy = actor(c, input.UpdatedBy)

	item, err := service.CreateItem(c.UserContext(), h.db, *input)
	if err != nil {
		return fail(c, err)
	}
	service.LogOperation(c.UserContext(), h.db, input.UpdatedBy, "create", "item", strconv.FormatUint(uint64(item.ID), 10), input)
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *Handler) HandleUpdateItem(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid item id")
	}
	input := new(service.ItemInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input")
	}
	input.UpdatedBy = actor(c, input.UpdatedBy)

	item, err := service.UpdateItem(c.UserContext(), h.db, id, *input)
	if err != nil {
		return fail(c, err)
	}
	service.LogOperation(c.UserContext(), h.db, input.UpdatedBy, "update", "item", c.Params("id"), input)
	return c.JSON(item)
}

func (h *Handler) HandleDeleteItem(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid item id")
	}
	if err := service.DeleteItem(c.UserContext(), h.db, id); err != nil {
		return fail(c, err)
	}
	service.LogOperation(c.UserContext(), h.db, actor(c, ""), "delete", "item", c.Params("id"), nil)
	return c.SendStatus(fiber.StatusNoContent)
}

// Models

func (h *Handler) HandleListModels(c *fiber.Ctx) error {
	models, err := service.ListModels(c.UserContext(), h.db)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(models)
}

func (h *Handler) HandleModelsByItem(c *fiber.Ctx) error {
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return badRequest(c, "Invalid item id")
	}
	opts, err := service.ModelsByItem(c.UserContext(), h.db, itemID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(opts)
}

func (h *Handler) HandleCreateModel(c *fiber.Ctx) error {
	input := new(service.ModelInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input")
	}
	input.UpdatedBy = actor(c, input.UpdatedBy)

	m, err := service.CreateModel(c.UserContext(), h.db, *input)
	if err != nil {
		return fail(c, err)
	}
	service.LogOperation(c.UserContext(), h.db, input.UpdatedBy, "create", "model", strconv.FormatUint(uint64(m.ID), 10), input)
	return c.Status(fiber.StatusCreated).JSON(m)
}

func (h *Handler) HandleUpdateModel(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid model id")
	}
	input := new(service.ModelInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input")
	}
	input.UpdatedBy = actor(c, input.UpdatedBy)

	m, err := service.UpdateModel(c.UserContext(), h.db, id, *input)
	if err != nil {
		return fail(c, err)
	}
	service.LogOperation(c.UserContext(), h.db, input.UpdatedBy, "update", "model", c.Params("id"), input)
	return c.JSON(m)
}

func (h *Handler) HandleDeleteModel(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid model id")
	}
	if err := service.DeleteModel(c.UserContext(), h.db, id); err != nil {
		return fail(c, err)
	}
	service.LogOperation(c.UserContext(), h.db, actor(c, ""), "delete", "model", c.Params("id"), nil)
	return c.SendStatus(fiber.StatusNoContent)
}

// Units

func (h *Handler) HandleListUnits(c *fiber.Ctx) error {
	units, err := service.ListUnits(c.UserContext(), h.db)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(units)
}

func (h *Handler) HandleGetUnit(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid unit id")
	}
	unit, err := service.GetUnit(c.UserContext(), h.db, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(unit)
}

func (h *Handler) HandleCreateUnit(c *fiber.Ctx) error {
	input := new(model.Unit)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input: "+err.Error())
	}
	input.LastUpdatedBy = actor(c, input.LastUpdatedBy)

	unit, err := service.CreateUnit(c.UserContext(), h.db, *input)
	if err != nil {
		return fail(c, err)
	}
	service.LogOperation(c.UserContext(), h.db, input.LastUpdatedBy, "create", "unit", strconv.FormatUint(uint64(unit.ID), 10), input)
	return c.Status(fiber.StatusCreated).JSON(unit)
}

func (h *Handler) HandleUpdateUnit(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid unit id")
	}
	input := new(model.Unit)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input: "+err.Error())
	}
	input.LastUpdatedBy = actor(c, input.LastUpdatedBy)

	unit, err := service.UpdateUnit(c.UserContext(), h.db, id, *input)
	if err != nil {
		return fail(c, err)
	}
	service.LogOperation(c.UserContext(), h.db, input.LastUpdatedBy, "update", "unit", c.Params("id"), input)
	return c.JSON(unit)
}

func (h *Handler) HandleDeleteUnit(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid unit id")
	}
	if err := service.DeleteUnit(c.UserContext(), h.db, id); err != nil {
		return fail(c, err)
	}
	service.LogOperation(c.UserContext(), h.db, actor(c, ""), "delete", "unit", c.Params("id"), nil)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) HandleExportUnits(c *fiber.Ctx) error {
	units, err := service.ListUnits(c.UserContext(), h.db)
	if err != nil {
		return fail(c, err)
	}
	buf, err := service.ExportUnits(units)
	if err != nil {
		return fail(c, err)
	}
	return sendWorkbook(c, "units.xlsx", buf.Bytes())
}

func sendWorkbook(c *fiber.Ctx, name string, data []byte) error {
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Attachment(name)
	return c.Send(data)
}

// Inventory movements

func (h *Handler) HandleListMovements(c *fiber.Ctx) error {
	moves, err := service.ListMovements(c.UserContext(), h.db)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(moves)
}

func (h *Handler) HandleCreateMovement(c *fiber.Ctx) error {
	input := new(model.InventoryMovement)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input: "+err.Error())
	}
	mv, err := service.CreateMovement(c.UserContext(), h.db, *input)
	if err != nil {
		return fail(c, err)
	}
	service.LogOperation(c.UserContext(), h.db, actor(c, ""), "create", "inventory_inout", strconv.FormatUint(uint64(mv.ID), 10), mv)
	return c.Status(fiber.StatusCreated).JSON(mv)
}

func (h *Handler) HandleUpdateMovement(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid record id")
	}
	input := new(model.InventoryMovement)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input: "+err.Error())
	}
	mv, err := service.UpdateMovement(c.UserContext(), h.db, id, *input)
	if err != nil {
		return fail(c, err)
	}
	service.LogOperation(c.UserContext(), h.db, actor(c, ""), "update", "inventory_inout", c.Params("id"), mv)
	return c.JSON(mv)
}

func (h *Handler) HandleDeleteMovement(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "Invalid record id")
	}
	if err := service.DeleteMovement(c.UserContext(), h.db, id); err != nil {
		return fail(c, err)
	}
	service.LogOperation(c.UserContext(), h.db, actor(c, ""), "delete", "inventory_inout", c.Params("id"), nil)
	return c.SendStatus(fiber.StatusNoContent)
}
