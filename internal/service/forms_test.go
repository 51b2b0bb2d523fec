package service

import (
	"context"
	"errors"
	"testing"

	"deskhub/internal/mail"
	"deskhub/internal/model"
	"deskhub/internal/pdf"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubRenderer struct {
	docs []pdf.Document
	err  error
}

func (r *stubRenderer) Render(doc pdf.Document) ([]byte, error) {
	r.docs = append(r.docs, doc)
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.3 stub"), nil
}

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

func TestSubmitNumbersSequentially(t *testing.T) {
	db := setupDB(t)
	renderer := &stubRenderer{}
	mailer := &stubMailer{}
	svc := NewFormService(db, renderer, mailer, []string{"hr@example.com"}, nil)
	ctx := context.Background()

	req := FormRequest{FormType: "leave", Username: "bob", FullName: "Bob Tan", Office: "Singapore", Email: "bob@example.com", DateFrom: "2026-03-02", DateTo: "2026-03-04"}

	first, err := svc.Submit(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "LVF_bob_001", first.ControlNumber)
	assert.Equal(t, model.FormSubmitted, first.Status)

	second, err := svc.Submit(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "LVF_bob_002", second.ControlNumber)

	require.Len(t, mailer.sent, 2)
	msg := mailer.sent[0]
	assert.Equal(t, []string{"hr@example.com", "bob@example.com"}, msg.To)
	assert.Contains(t, msg.Subject, "LVF_bob_001")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "lvf_bob_001.pdf", msg.Attachments[0].Name)
	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)

	require.Len(t, renderer.docs, 2)
	assert.Equal(t, "Leave Application Form", renderer.docs[0].Title)
	assert.Equal(t, "Singapore", renderer.docs[0].Office)
	assert.Equal(t, pdf.Field{Label: "Control No", Value: "LVF_bob_001"}, renderer.docs[0].Fields[0])

	stored, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FormSubmitted, stored.Status)
	assert.Contains(t, string(stored.Payload), `"date_from":"2026-03-02"`)

	var logs int64
	require.NoError(t, db.Model(&model.OperationLog{}).Where("action = ?", "submit").Count(&logs).Error)
	assert.EqualValues(t, 2, logs)
}

func TestSubmitFailureReleasesNumber(t *testing.T) {
	db := setupDB(t)
	mailer := &stubMailer{err: errors.New("smtp down")}
	svc := NewFormService(db, &stubRenderer{}, mailer, nil, nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, FormRequest{FormType: "leave", Username: "bob"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")

	var count int64
	require.NoError(t, db.Model(&model.FormRecord{}).Count(&count).Error)
	assert.Zero(t, count)

	mailer.err = nil
	rec, err := svc.Submit(ctx, FormRequest{FormType: "leave", Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, "LVF_bob_001", rec.ControlNumber)
}

// failFormUpdates makes the next n updates of form_records fail; n < 0 fails
// them all. It returns the number of updates attempted so far.
func failFormUpdates(t *testing.T, db *gorm.DB, n int) *int {
	t.Helper()
	attempts := new(int)
	err := db.Callback().Update().Before("gorm:update").Register("deskhub:fail_form_update", func(tx *gorm.DB) {
		if tx.Statement.Table != "form_records" {
			return
		}
		*attempts++
		if n < 0 || *attempts <= n {
			tx.AddError(errors.New("database is locked"))
		}
	})
	require.NoError(t, err)
	return attempts
}

func TestSubmitRetriesStatusUpdateAfterDelivery(t *testing.T) {
	db := setupDB(t)
	attempts := failFormUpdates(t, db, 1)
	mailer := &stubMailer{}
	svc := NewFormService(db, &stubRenderer{}, mailer, nil, nil)
	ctx := context.Background()

	rec, err := svc.Submit(ctx, FormRequest{FormType: "leave", Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, model.FormSubmitted, rec.Status)
	assert.Equal(t, 2, *attempts)
	assert.Len(t, mailer.sent, 1)

	stored, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FormSubmitted, stored.Status)
}

func TestSubmitDeliveredFormSurvivesStatusUpdateFailure(t *testing.T) {
	db := setupDB(t)
	attempts := failFormUpdates(t, db, -1)
	mailer := &stubMailer{}
	svc := NewFormService(db, &stubRenderer{}, mailer, nil, nil)
	ctx := context.Background()

	rec, err := svc.Submit(ctx, FormRequest{FormType: "leave", Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, "LVF_bob_001", rec.ControlNumber)
	assert.Equal(t, model.FormSubmitted, rec.Status)
	assert.Equal(t, maxReserveAttempts, *attempts)
	assert.Len(t, mailer.sent, 1)

	// The delivered number stays taken.
	next, err := svc.Preview(ctx, "leave", "bob")
	require.NoError(t, err)
	assert.Equal(t, "LVF_bob_002", next)
}

func TestSubmitRenderFailure(t *testing.T) {
	db := setupDB(t)
	mailer := &stubMailer{}
	svc := NewFormService(db, &stubRenderer{err: errors.New("font missing")}, mailer, nil, nil)

	_, err := svc.Submit(context.Background(), FormRequest{FormType: "overtime", Username: "amy"})
	require.Error(t, err)
	assert.Empty(t, mailer.sent)

	next, err := svc.Preview(context.Background(), "overtime", "amy")
	require.NoError(t, err)
	assert.Equal(t, "OTF_amy_001", next)
}

func TestSubmitRequiresUsername(t *testing.T) {
	db := setupDB(t)
	svc := NewFormService(db, &stubRenderer{}, &stubMailer{}, nil, nil)

	_, err := svc.Submit(context.Background(), FormRequest{FormType: "leave", Username: " "})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSubmitDefaultsFormType(t *testing.T) {
	db := setupDB(t)
	svc := NewFormService(db, &stubRenderer{}, &stubMailer{}, nil, nil)

	rec, err := svc.Submit(context.Background(), FormRequest{Username: "cat"})
	require.NoError(t, err)
	assert.Equal(t, "FM_cat_001", rec.ControlNumber)
	assert.Equal(t, DefaultFormType, rec.FormType)
}

func TestFormStatusAndFilter(t *testing.T) {
	db := setupDB(t)
	svc := NewFormService(db, &stubRenderer{}, &stubMailer{}, nil, nil)
	ctx := context.Background()

	leave, err := svc.Submit(ctx, FormRequest{FormType: "leave", Username: "bob"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, FormRequest{FormType: "overtime", Username: "bob"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, FormRequest{FormType: "leave", Username: "amy"})
	require.NoError(t, err)

	updated, err := svc.SetStatus(ctx, leave.ID, model.FormApproved, "admin")
	require.NoError(t, err)
	assert.Equal(t, model.FormApproved, updated.Status)

	_, err = svc.SetStatus(ctx, leave.ID, "Lost", "admin")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.SetStatus(ctx, 999, model.FormRejected, "admin")
	assert.ErrorIs(t, err, ErrNotFound)

	pending := model.FormRecord{Username: "dan", FormType: "leave", ControlNumber: "LVF_dan_001", Status: model.FormReserved}
	require.NoError(t, db.Create(&pending).Error)
	_, err = svc.SetStatus(ctx, pending.ID, model.FormApproved, "admin")
	assert.ErrorIs(t, err, ErrConflict)

	bobs, err := svc.List(ctx, FormFilter{Username: "BOB"})
	require.NoError(t, err)
	assert.Len(t, bobs, 2)

	approved, err := svc.List(ctx, FormFilter{Status: model.FormApproved})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "LVF_bob_001", approved[0].ControlNumber)

	leaves, err := svc.List(ctx, FormFilter{FormType: "leave"})
	require.NoError(t, err)
	assert.Len(t, leaves, 3)
}
