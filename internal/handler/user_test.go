package handler

import (
	"context"
	"fmt"
	"testing"

	"deskhub/internal/database"
	"deskhub/internal/model"
	"deskhub/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userApp(h *Handler) *fiber.App {
	app := fiber.New()
	app.Post("/api/login", h.HandleLogin)
	app.Get("/api/users", h.HandleListUsers)
	app.Post("/api/users", h.HandleCreateUser)
	app.Post("/api/users/balances", h.HandleRecomputeBalances)
	app.Get("/api/users/export", h.HandleExportUsers)
	app.Get("/api/users/:id", h.HandleGetUser)
	app.Put("/api/users/:id", h.HandleUpdateUser)
	app.Put("/api/users/:id/password", h.HandleSetPassword)
	app.Delete("/api/users/:id", h.HandleDeleteUser)
	return app
}

func TestHandleCreateUser(t *testing.T) {
	h, _ := newTestHandler(t)
	app := userApp(h)

	tests := []struct {
		name       string
		input      map[string]interface{}
		wantStatus int
	}{
		{
			name:       "valid_user",
			input:      map[string]interface{}{"username": "testuser", "password": "password123", "email": "test@example.com"},
			wantStatus: fiber.StatusCreated,
		},
		{
			name:       "duplicate_username",
			input:      map[string]interface{}{"username": "testuser", "password": "password123"},
			wantStatus: fiber.StatusConflict,
		},
		{
			name:       "missing_password",
			input:      map[string]interface{}{"username": "other"},
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name:       "unknown_role",
			input:      map[string]interface{}{"username": "other", "password": "x", "role": "owner"},
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name:       "unknown_office",
			input:      map[string]interface{}{"username": "other", "password": "x", "office": "Tokyo"},
			wantStatus: fiber.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, app, "POST", "/api/users", tt.input)
			assert.Equal(t, tt.wantStatus, resp.StatusCode, string(body))
			if tt.wantStatus >= 400 {
				assert.Contains(t, decodeMap(t, body), "error")
			}
		})
	}
}

func TestCreateUserRejectsNonFiniteAmounts(t *testing.T) {
	h, _ := newTestHandler(t)
	app := userApp(h)

	for _, raw := range []string{"Infinity", "NaN", "-Inf"} {
		t.Run(raw, func(t *testing.T) {
			resp, body := doJSON(t, app, "POST", "/api/users",
				map[string]interface{}{"username": "inf", "password": "p", "user_leave_total": raw})
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, string(body))
			assert.Contains(t, decodeMap(t, body), "error")
		})
	}

	var count int64
	require.NoError(t, database.DB.Raw(`SELECT COUNT(*) FROM users WHERE username = 'inf'`).Scan(&count).Error)
	assert.Zero(t, count)

	resp, body := doJSON(t, app, "GET", "/api/users", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
}

func TestCreatedUserReadsBackWithoutPassword(t *testing.T) {
	h, _ := newTestHandler(t)
	app := userApp(h)

	resp, body := doJSON(t, app, "POST", "/api/users", map[string]string{"username": "alice", "password": "p1"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))
	created := decodeMap(t, body)
	assert.NotContains(t, created, "password")
	assert.NotContains(t, created, "password_hash")

	resp, body = doJSON(t, app, "GET", fmt.Sprintf("/api/users/%v", created["id"]), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	user := decodeMap(t, body)
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "user", user["role"])
	assert.Equal(t, true, user["is_active"])
	assert.Nil(t, user["email"])
	assert.NotContains(t, user, "password")

	var hash string
	require.NoError(t, database.DB.Raw(`SELECT password_hash FROM users WHERE username = 'alice'`).Scan(&hash).Error)
	assert.NotEqual(t, "p1", hash)

	resp, body = doJSON(t, app, "GET", "/api/users", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"username":"alice"`)
	assert.NotContains(t, string(body), "password")
}

func TestHandleUpdateAndDeleteUser(t *testing.T) {
	h, _ := newTestHandler(t)
	app := userApp(h)

	resp, body := doJSON(t, app, "POST", "/api/users", map[string]string{"username": "carol", "password": "p1"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id := decodeMap(t, body)["id"]

	update := `{"username":"carol","role":"admin","office":"Kuala Lumpur",
		"user_leave_total":14,"user_leave_used":5,"user_leave_balance":100}`
	resp, body = doJSON(t, app, "PUT", fmt.Sprintf("/api/users/%v", id), update)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	user := decodeMap(t, body)
	assert.Equal(t, "admin", user["role"])
	assert.Equal(t, "Kuala Lumpur", user["office"])
	assert.EqualValues(t, 100, user["user_leave_balance"])

	resp, _ = doJSON(t, app, "PUT", "/api/users/9999", update)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp, _ = doJSON(t, app, "PUT", "/api/users/abc", update)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, "PUT", fmt.Sprintf("/api/users/%v/password", id), map[string]string{"password": "p2"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, "POST", "/api/login", map[string]string{"username": "carol", "password": "p2"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	for i := 0; i < 2; i++ {
		resp, _ = doJSON(t, app, "DELETE", fmt.Sprintf("/api/users/%v", id), nil)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	}
	resp, _ = doJSON(t, app, "GET", fmt.Sprintf("/api/users/%v", id), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var deletes int64
	require.NoError(t, database.DB.Model(&model.OperationLog{}).Where("target = ? AND action = ?", "user", "delete").Count(&deletes).Error)
	assert.EqualValues(t, 2, deletes)
}

func TestHandleLogin(t *testing.T) {
	h, _ := newTestHandler(t)
	app := userApp(h)

	_, err := h.users.Create(context.Background(), service.UserInput{Username: "root", Password: "secret", Role: "superadmin", FullName: "Root User"})
	require.NoError(t, err)
	inactive := false
	_, err = h.users.Create(context.Background(), service.UserInput{Username: "gone", Password: "secret", IsActive: &inactive})
	require.NoError(t, err)

	resp, body := doJSON(t, app, "POST", "/api/login", map[string]string{"username": "root", "password": "secret"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	out := decodeMap(t, body)
	assert.Equal(t, "superadmin", out["role"])
	assert.Equal(t, "Root User", out["full_name"])
	assert.Equal(t, []interface{}{"inventory", "leaveform", "controlpanel"}, out["allowed_apps"])
	require.NotEmpty(t, out["token"])

	claims, err := h.tokens.ValidateToken(out["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "root", claims.Username)
	assert.Equal(t, "superadmin", claims.Role)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
	}{
		{name: "wrong_password", body: map[string]string{"username": "root", "password": "nope"}, wantStatus: fiber.StatusUnauthorized},
		{name: "unknown_user", body: map[string]string{"username": "ghost", "password": "secret"}, wantStatus: fiber.StatusUnauthorized},
		{name: "inactive", body: map[string]string{"username": "gone", "password": "secret"}, wantStatus: fiber.StatusUnauthorized},
		{name: "missing_fields", body: map[string]string{"username": "root"}, wantStatus: fiber.StatusBadRequest},
		{name: "malformed", body: "{", wantStatus: fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := doJSON(t, app, "POST", "/api/login", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}

	var attempts []model.LoginLog
	require.NoError(t, database.DB.Order("id").Find(&attempts).Error)
	require.Len(t, attempts, 4)
	assert.Equal(t, "success", attempts[0].Status)
	assert.Equal(t, "failed", attempts[1].Status)
	assert.Equal(t, "inactive", attempts[3].Status)
}

func TestHandleRecomputeBalances(t *testing.T) {
	h, _ := newTestHandler(t)
	app := userApp(h)

	resp, body := doJSON(t, app, "POST", "/api/users/balances",
		`{"user_leave_total":14,"user_leave_used":5,"user_leave_balance":1,"user_mc_total":"","user_mc_used":""}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	out := decodeMap(t, body)
	assert.EqualValues(t, 9, out["user_leave_balance"])
	assert.Nil(t, out["user_mc_balance"])
	assert.EqualValues(t, 14, out["user_leave_total"])

	for _, raw := range []string{`{"user_leave_total":"many"}`, `{"user_leave_total":"NaN","user_leave_used":1}`} {
		resp, body = doJSON(t, app, "POST", "/api/users/balances", raw)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, string(body))
	}
}

func TestUsersTableMissingUsernameIsServerError(t *testing.T) {
	h, _ := newTestHandler(t)
	require.NoError(t, database.DB.Exec(`DROP TABLE users`).Error)
	require.NoError(t, database.DB.Exec(`CREATE TABLE users (id integer primary key, email text)`).Error)
	h.users.Resolver().Invalidate()
	app := userApp(h)

	resp, body := doJSON(t, app, "GET", "/api/users", nil)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, decodeMap(t, body)["error"], "users table missing required columns")
}

func TestHandleExportUsers(t *testing.T) {
	h, _ := newTestHandler(t)
	app := userApp(h)

	_, err := h.users.Create(context.Background(), service.UserInput{Username: "dana", Password: "x"})
	require.NoError(t, err)

	resp, body := doJSON(t, app, "GET", "/api/users/export", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "users.xlsx")
	assert.Equal(t, "PK", string(body[:2]))
}
