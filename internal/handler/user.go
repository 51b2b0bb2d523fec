package handler

import (
	"errors"
	"strconv"

	"deskhub/internal/model"
	"deskhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type PasswordInput struct {
	Password string `json:"password"`
}

func userID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	return id, err == nil && id > 0
}

// HandleLogin checks the credentials and returns the user's role, the apps
// the role may open and a session token.
func (h *Handler) HandleLogin(c *fiber.Ctx) error {
	input := new(LoginInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input")
	}
	if input.Username == "" || input.Password == "" {
		return badRequest(c, "Username and password are required.")
	}

	ctx := c.UserContext()
	user, err := h.users.Authenticate(ctx, input.Username, input.Password)
	if err != nil {
		status := "error"
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			status = "failed"
		case errors.Is(err, service.ErrInactive):
			status = "inactive"
		}
		service.RecordLogin(ctx, h.db, input.Username, c.IP(), c.Get("User-Agent"), status)
		return fail(c, err)
	}
	service.RecordLogin(ctx, h.db, user.Username, c.IP(), c.Get("User-Agent"), "success")

	role := user.RoleName()
	token, err := h.tokens.GenerateToken(user.ID, user.Username, role)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"id":           user.ID,
		"role":         role,
		"allowed_apps": model.AllowedApps(role),
		"username":     user.Username,
		"full_name":    user.FullName,
		"token":        token,
	})
}

func (h *Handler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(users)
}

func (h *Handler) HandleGetUser(c *fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return badRequest(c, "Invalid user id")
	}
	user, err := h.users.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(user)
}

func (h *Handler) HandleCreateUser(c *fiber.Ctx) error {
	input := new(service.UserInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input: "+err.Error())
	}
	input.UpdatedBy = actor(c, input.UpdatedBy)

	user, err := h.users.Create(c.UserContext(), *input)
	if err != nil {
		return fail(c, err)
	}
	service.LogOperation(c.UserContext(), h.db, input.UpdatedBy, "create", "user", strconv.FormatInt(user.ID, 10),
		fiber.Map{"username": user.Username, "role": user.RoleName()})
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *Handler) HandleUpdateUser(c *fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return badRequest(c, "Invalid user id")
	}
	input := new(service.UserInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input: "+err.Error())
	}
	input.UpdatedBy = actor(c, input.UpdatedBy)

	user, err := h.users.Update(c.UserContext(), id, *input)
	if err != nil {
		return fail(c, err)
	}
	service.LogOperation(c.UserContext(), h.db, input.UpdatedBy, "update", "user", c.Params("id"),
		fiber.Map{"username": user.Username, "role": user.RoleName()})
	return c.JSON(user)
}

// HandleSetPassword replaces a user's password. The plaintext is hashed
// and never logged.
func (h *Handler) HandleSetPassword(c *fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return badRequest(c, "Invalid user id")
	}
	input := new(PasswordInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input")
	}

	by := actor(c, "")
	if err := h.users.SetPassword(c.UserContext(), id, input.Password, by); err != nil {
		return fail(c, err)
	}
	service.LogOperation(c.UserContext(), h.db, by, "set_password", "user", c.Params("id"), nil)
	return c.JSON(fiber.Map{"message": "Password updated"})
}

func (h *Handler) HandleDeleteUser(c *fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return badRequest(c, "Invalid user id")
	}
	if err := h.users.Delete(c.UserContext(), id); err != nil {
		return fail(c, err)
	}
	service.LogOperation(c.UserContext(), h.db, actor(c, ""), "delete", "user", c.Params("id"), nil)
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleRecomputeBalances returns the posted benefit columns with every
// balance set to total - used. Nothing is stored.
func (h *Handler) HandleRecomputeBalances(c *fiber.Ctx) error {
	input := new(service.Benefits)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input: "+err.Error())
	}
	return c.JSON(input.Recomputed())
}

func (h *Handler) HandleExportUsers(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	buf, err := service.ExportUsers(users)
	if err != nil {
		return fail(c, err)
	}
	return sendWorkbook(c, "users.xlsx", buf.Bytes())
}
