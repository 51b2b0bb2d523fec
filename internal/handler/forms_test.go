package handler

import (
	"errors"
	"fmt"
	"testing"

	"deskhub/internal/database"
	"deskhub/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func formApp(h *Handler) *fiber.App {
	app := fiber.New()
	app.Post("/api/send-leave-pdf", h.HandleSendForm)
	app.Get("/api/forms", h.HandleListForms)
	app.Get("/api/forms/next-control-number", h.HandleNextControlNumber)
	app.Get("/api/forms/:id", h.HandleGetForm)
	app.Put("/api/forms/:id/status", h.HandleSetFormStatus)
	return app
}

func TestSendLeaveFormTwice(t *testing.T) {
	h, mailer := newTestHandler(t)
	app := formApp(h)

	form := map[string]interface{}{
		"formType":   "leave",
		"username":   "bob",
		"full_name":  "Bob Tan",
		"office":     "Singapore",
		"email":      "bob@example.com",
		"leave_type": "Annual",
		"date_from":  "2026-11-02",
		"date_to":    "2026-11-04",
		"total_days": 3,
	}

	var ids []interface{}
	for _, want := range []string{"LVF_bob_001", "LVF_bob_002"} {
		resp, body := doJSON(t, app, "POST", "/api/send-leave-pdf", form)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
		out := decodeMap(t, body)
		assert.Equal(t, want, out["control_number"])
		assert.NotEmpty(t, out["message"])
		ids = append(ids, out["id"])
	}

	require.Len(t, mailer.sent, 2)
	attachment := mailer.sent[1].Attachments[0]
	assert.Equal(t, "lvf_bob_002.pdf", attachment.Name)
	assert.Equal(t, "%PDF-", string(attachment.Data[:5]))
	assert.Contains(t, mailer.sent[1].To, "bob@example.com")

	resp, body := doJSON(t, app, "GET", fmt.Sprintf("/api/forms/%v", ids[0]), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	rec := decodeMap(t, body)
	assert.Equal(t, model.FormSubmitted, rec["status"])
	assert.Equal(t, "leave", rec["form_type"])

	resp, body = doJSON(t, app, "GET", "/api/forms/next-control-number?form_type=leave&username=BOB", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "LVF_BOB_003", decodeMap(t, body)["control_number"])
}

func TestSendFormMailFailure(t *testing.T) {
	h, mailer := newTestHandler(t)
	mailer.err = errors.New("connection refused")
	app := formApp(h)

	resp, body := doJSON(t, app, "POST", "/api/send-leave-pdf", map[string]string{"formType": "overtime", "username": "amy"})
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, decodeMap(t, body)["error"], "connection refused")

	var count int64
	require.NoError(t, database.DB.Model(&model.FormRecord{}).Count(&count).Error)
	assert.Zero(t, count)

	resp, _ = doJSON(t, app, "POST", "/api/send-leave-pdf", map[string]string{"formType": "overtime"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestFormStatusRoutes(t *testing.T) {
	h, _ := newTestHandler(t)
	app := formApp(h)

	resp, body := doJSON(t, app, "POST", "/api/send-leave-pdf", map[string]string{"formType": "night_access", "username": "eve"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	id := decodeMap(t, body)["id"]

	resp, body = doJSON(t, app, "PUT", fmt.Sprintf("/api/forms/%v/status", id), map[string]string{"status": "Approved"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "Approved", decodeMap(t, body)["status"])

	resp, _ = doJSON(t, app, "PUT", fmt.Sprintf("/api/forms/%v/status", id), map[string]string{"status": "Burned"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp, _ = doJSON(t, app, "PUT", "/api/forms/999/status", map[string]string{"status": "Approved"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, body = doJSON(t, app, "GET", "/api/forms?status=Approved", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "NAF_eve_001")

	resp, body = doJSON(t, app, "GET", "/api/forms?username=nobody", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]", string(body))

	resp, _ = doJSON(t, app, "GET", "/api/forms/next-control-number", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
