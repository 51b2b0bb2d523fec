package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"deskhub/internal/config"
	"deskhub/internal/model"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
	"gorm.io/gorm"
)

// SheetSyncService mirrors form records into a Google Sheet, one row per
// control number (columns A:G), and pulls status decisions back.
type SheetSyncService struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
}

// NewSheetSyncService returns nil when syncing is disabled. All methods
// accept a nil receiver.
func NewSheetSyncService(cfg config.SheetsConfig) (*SheetSyncService, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	ctx := context.Background()

	b, err := os.ReadFile(cfg.CredentialPath)
	if err != nil {
		return nil, fmt.Errorf("reading sheets credentials: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, b, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("loading sheets credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, err
	}

	return newSheetSync(srv, cfg.SpreadsheetID, cfg.SheetName), nil
}

func newSheetSync(srv *sheets.Service, spreadsheetID, sheetName string) *SheetSyncService {
	return &SheetSyncService{service: srv, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

func formRow(rec model.FormRecord) []interface{} {
	return []interface{}{
		rec.ControlNumber,
		rec.Username,
		rec.FullName,
		rec.FormType,
		rec.Status,
		rec.SubmittedOn.Format(time.RFC3339),
		rec.UpdatedAt.Format(time.RFC3339),
	}
}

// SyncForm updates the row holding rec's control number, or appends one.
func (s *SheetSyncService) SyncForm(ctx context.Context, rec model.FormRecord) error {
	if s == nil {
		return nil
	}

	keys, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName+"!A2:A").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("reading sheet keys: %w", err)
	}

	rowIndex := 0
	for i, row := range keys.Values {
		if len(row) > 0 && fmt.Sprint(row[0]) == rec.ControlNumber {
			rowIndex = i + 2 // data starts at row 2
			break
		}
	}

	values := &sheets.ValueRange{Values: [][]interface{}{formRow(rec)}}
	if rowIndex > 0 {
		rng := fmt.Sprintf("%s!A%d:G%d", s.sheetName, rowIndex, rowIndex)
		_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rng, values).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
	} else {
		_, err = s.service.Spreadsheets.Values.Append(s.spreadsheetID, s.sheetName+"!A2:G", values).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
	}
	if err != nil {
		return fmt.Errorf("syncing form %s to sheet: %w", rec.ControlNumber, err)
	}

	log.Printf("Synced form %s to Google Sheet", rec.ControlNumber)
	return nil
}

// BatchSyncForms appends every record as a new row.
func (s *SheetSyncService) BatchSyncForms(ctx context.Context, recs []model.FormRecord) error {
	if s == nil || len(recs) == 0 {
		return nil
	}

	values := make([][]interface{}, 0, len(recs))
	for _, rec := range recs {
		values = append(values, formRow(rec))
	}

	_, err := s.service.Spreadsheets.Values.Append(
		s.spreadsheetID,
		s.sheetName+"!A2:G",
		&sheets.ValueRange{Values: values},
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("batch syncing %d forms: %w", len(recs), err)
	}
	return nil
}

// PullStatuses copies decisions made in the sheet (column E) back onto the
// matching form records. It returns how many records changed.
func (s *SheetSyncService) PullStatuses(ctx context.Context, db *gorm.DB) (int, error) {
	if s == nil {
		return 0, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName+"!A2:G").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("reading sheet: %w", err)
	}

	changed := 0
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, row := range resp.Values {
			if len(row) < 5 {
				log.Printf("Sheet row %d incomplete, skipped", i+2)
				continue
			}
			controlNumber, status := fmt.Sprint(row[0]), fmt.Sprint(row[4])
			if !validStatus(status) {
				log.Printf("Sheet row %d has unknown status %q, skipped", i+2, status)
				continue
			}
			res := tx.Model(&model.FormRecord{}).
				Where("control_number = ? AND status <> ? AND status <> ?", controlNumber, status, model.FormReserved).
				Update("status", status)
			if res.Error != nil {
				return fmt.Errorf("updating form %s: %w", controlNumber, res.Error)
			}
			changed += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Printf("Pulled %d status change(s) from Google Sheet", changed)
	return changed, nil
}
