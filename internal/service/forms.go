package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"deskhub/internal/balance"
	"deskhub/internal/mail"
	"deskhub/internal/model"
	"deskhub/internal/pdf"

	"gorm.io/gorm"
)

const maxReserveAttempts = 3

// FormRequest is an HR form submission.
type FormRequest struct {
	FormType   string         `json:"formType"`
	Username   string         `json:"username"`
	FullName   string         `json:"full_name"`
	Office     string         `json:"office"`
	Email      string         `json:"email"`
	Department string         `json:"department"`
	Position   string         `json:"position"`
	LeaveType  string         `json:"leave_type"`
	DateFrom   string         `json:"date_from"`
	DateTo     string         `json:"date_to"`
	TimeFrom   string         `json:"time_from"`
	TimeTo     string         `json:"time_to"`
	TotalDays  balance.Amount `json:"total_days"`
	TotalHours balance.Amount `json:"total_hours"`
	Reason     string         `json:"reason"`
	Location   string         `json:"location"`
	Remarks    string         `json:"remarks"`
}

// fields lists the printable fields in form order, skipping blanks.
func (r *FormRequest) fields(controlNumber string) []pdf.Field {
	all := []pdf.Field{
		{Label: "Control No", Value: controlNumber},
		{Label: "Name", Value: r.FullName},
		{Label: "Username", Value: r.Username},
		{Label: "Office", Value: r.Office},
		{Label: "Department", Value: r.Department},
		{Label: "Position", Value: r.Position},
		{Label: "Email", Value: r.Email},
		{Label: "Leave Type", Value: r.LeaveType},
		{Label: "Date From", Value: r.DateFrom},
		{Label: "Date To", Value: r.DateTo},
		{Label: "Time From", Value: r.TimeFrom},
		{Label: "Time To", Value: r.TimeTo},
		{Label: "Total Days", Value: r.TotalDays.String()},
		{Label: "Total Hours", Value: r.TotalHours.String()},
		{Label: "Location", Value: r.Location},
		{Label: "Reason", Value: r.Reason},
		{Label: "Remarks", Value: r.Remarks},
	}
	out := all[:0]
	for _, f := range all {
		if strings.TrimSpace(f.Value) != "" {
			out = append(out, f)
		}
	}
	return out
}

// FormService turns submissions into numbered, rendered and mailed records.
type FormService struct {
	db       *gorm.DB
	renderer pdf.Renderer
	mailer   mail.Sender
	hr       []string
	sheets   *SheetSyncService
}

func NewFormService(db *gorm.DB, renderer pdf.Renderer, mailer mail.Sender, hrRecipients []string, sheets *SheetSyncService) *FormService {
	return &FormService{db: db, renderer: renderer, mailer: mailer, hr: hrRecipients, sheets: sheets}
}

// Submit reserves a control number, renders the form, mails it and marks the
// record Submitted. If rendering or delivery fails the reservation is
// removed so the number can be reused.
func (s *FormService) Submit(ctx context.Context, req FormRequest) (*model.FormRecord, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return nil, invalid("Username is required.")
	}
	if req.FormType == "" {
		req.FormType = DefaultFormType
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding form payload: %w", err)
	}
	rec, err := s.reserve(ctx, req, payload)
	if err != nil {
		return nil, err
	}

	if err := s.deliver(ctx, req, rec); err != nil {
		if delErr := s.db.WithContext(ctx).Delete(&model.FormRecord{}, rec.ID).Error; delErr != nil {
			log.Printf("Failed to release control number %s: %v", rec.ControlNumber, delErr)
		}
		return nil, err
	}

	// The mail is out; from here on the submission stands.
	s.markSubmitted(ctx, rec)

	LogOperation(ctx, s.db, req.Username, "submit", "form", rec.ControlNumber, map[string]string{"form_type": req.FormType})
	s.mirror(*rec)
	return rec, nil
}

// markSubmitted flips a delivered record from Reserved to Submitted. It keeps
// going after the request is cancelled and retries before giving up, leaving
// the row Reserved with an error logged.
func (s *FormService) markSubmitted(ctx context.Context, rec *model.FormRecord) {
	ctx = context.WithoutCancel(ctx)
	var err error
	for attempt := 1; attempt <= maxReserveAttempts; attempt++ {
		err = s.db.WithContext(ctx).Model(&model.FormRecord{}).Where("id = ?", rec.ID).
			Update("status", model.FormSubmitted).Error
		if err == nil {
			break
		}
		log.Printf("Marking form %s submitted failed (%d/%d): %v", rec.ControlNumber, attempt, maxReserveAttempts, err)
	}
	if err != nil {
		log.Printf("Form %s was delivered but is still Reserved in the database", rec.ControlNumber)
	}
	rec.Status = model.FormSubmitted
}

// mirror pushes rec to the sheet in the background.
func (s *FormService) mirror(rec model.FormRecord) {
	if s.sheets == nil {
		return
	}
	go func() {
		if err := s.sheets.SyncForm(context.Background(), rec); err != nil {
			log.Printf("Sheet sync of %s failed: %v", rec.ControlNumber, err)
		}
	}()
}

// reserve inserts a Reserved record under the next control number. A
// concurrent submission that took the same number trips the unique index;
// the number is then recomputed.
func (s *FormService) reserve(ctx context.Context, req FormRequest, payload []byte) (*model.FormRecord, error) {
	for attempt := 1; attempt <= maxReserveAttempts; attempt++ {
		controlNumber, err := NextControlNumber(ctx, s.db, req.FormType, req.Username)
		if err != nil {
			return nil, err
		}
		rec := &model.FormRecord{
			Username:      req.Username,
			FullName:      req.FullName,
			ControlNumber: controlNumber,
			FormType:      req.FormType,
			Status:        model.FormReserved,
			Payload:       model.JSONText(payload),
		}
		err = s.db.WithContext(ctx).Create(rec).Error
		if err == nil {
			return rec, nil
		}
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("saving form record: %w", err)
		}
		log.Printf("Control number %s taken, retrying (%d/%d)", controlNumber, attempt, maxReserveAttempts)
	}
	return nil, conflict("Could not reserve a control number for %s, please retry.", req.Username)
}

func (s *FormService) deliver(ctx context.Context, req FormRequest, rec *model.FormRecord) error {
	title := FormTitle(req.FormType)
	doc, err := s.renderer.Render(pdf.Document{
		Title:         title,
		Office:        req.Office,
		ControlNumber: rec.ControlNumber,
		Fields:        req.fields(rec.ControlNumber),
	})
	if err != nil {
		return fmt.Errorf("rendering %s: %w", rec.ControlNumber, err)
	}

	to := append([]string(nil), s.hr...)
	if email := strings.TrimSpace(req.Email); email != "" {
		to = append(to, email)
	}
	name := req.FullName
	if name == "" {
		name = req.Username
	}
	err = s.mailer.Send(ctx, mail.Message{
		To:      to,
		Subject: fmt.Sprintf("%s %s - %s", title, rec.ControlNumber, name),
		Body:    fmt.Sprintf("Please find attached %s %s submitted by %s.", title, rec.ControlNumber, name),
		Attachments: []mail.Attachment{{
			Name:        FileStem(rec.ControlNumber) + ".pdf",
			ContentType: "application/pdf",
			Data:        doc,
		}},
	})
	if err != nil {
		return fmt.Errorf("mailing %s: %w", rec.ControlNumber, err)
	}
	return nil
}

// FormFilter narrows List; empty fields match everything.
type FormFilter struct {
	Username string `query:"username"`
	FormType string `query:"form_type"`
	Status   string `query:"status"`
}

func (s *FormService) List(ctx context.Context, f FormFilter) ([]model.FormRecord, error) {
	q := s.db.WithContext(ctx).Model(&model.FormRecord{})
	if f.Username != "" {
		q = q.Where("LOWER(username) = LOWER(?)", f.Username)
	}
	if f.FormType != "" {
		q = q.Where("form_type = ?", f.FormType)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	records := make([]model.FormRecord, 0)
	if err := q.Order("id DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *FormService) Get(ctx context.Context, id uint) (*model.FormRecord, error) {
	var rec model.FormRecord
	err := s.db.WithContext(ctx).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Form")
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func validStatus(status string) bool {
	switch status {
	case model.FormSubmitted, model.FormApproved, model.FormRejected:
		return true
	}
	return false
}

// SetStatus records an admin decision on a submitted form.
func (s *FormService) SetStatus(ctx context.Context, id uint, status, actor string) (*model.FormRecord, error) {
	if !validStatus(status) {
		return nil, invalid("Status must be Submitted, Approved or Rejected.")
	}
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status == model.FormReserved {
		return nil, conflict("Form %s is still being submitted.", rec.ControlNumber)
	}
	if err := s.db.WithContext(ctx).Model(rec).Update("status", status).Error; err != nil {
		return nil, err
	}
	rec.Status = status
	LogOperation(ctx, s.db, actor, "set_status", "form", rec.ControlNumber, map[string]string{"status": status})
	s.mirror(*rec)
	return rec, nil
}

// Preview returns the control number the next submission would get.
func (s *FormService) Preview(ctx context.Context, formType, username string) (string, error) {
	return NextControlNumber(ctx, s.db, formType, username)
}
