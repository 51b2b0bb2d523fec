package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"deskhub/internal/config"
	"deskhub/internal/database"
	"deskhub/internal/mail"
	"deskhub/internal/pdf"
	"deskhub/internal/service"
	"deskhub/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

type stubMailer struct {
	sent []mail.Message
	err  error
}

func (m *stubMailer) Send(ctx context.Context, msg mail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func newTestHandler(t *testing.T) (*Handler, *stubMailer) {
	t.Helper()
	database.InitTestDB()
	t.Cleanup(database.CleanTestDB)

	cfg := config.Testing()
	mailer := &stubMailer{}
	users := service.NewUserStore(database.DB)
	forms := service.NewFormService(database.DB, pdf.NewRenderer(), mailer, []string{"hr@example.com"}, nil)
	tokens := util.NewTokenIssuer(cfg.Server.JWTSecret, time.Hour)
	return New(database.DB, cfg, users, forms, tokens), mailer
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(b)
		}
		reader = bytes.NewBufferString(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, out
}

func decodeMap(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &m), string(body))
	return m
}
