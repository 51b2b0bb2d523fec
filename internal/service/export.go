package service

import (
	"bytes"
	"fmt"

	"deskhub/internal/balance"
	"deskhub/internal/model"
	"deskhub/internal/schema"

	"github.com/xuri/excelize/v2"
)

func strOrNil(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func amountOrNil(a balance.Amount) interface{} {
	if !a.Valid {
		return nil
	}
	return a.Float64
}

func dateOrNil(d model.NullDate) interface{} {
	if !d.Valid {
		return nil
	}
	return d.String()
}

// workbook writes one sheet with a bold header row.
func workbook(sheet string, header []interface{}, rows [][]interface{}) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return nil, err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return f.WriteToBuffer()
}

func ExportUnits(units []model.UnitView) (*bytes.Buffer, error) {
	header := []interface{}{
		"ID", "Item", "Model", "Serial Number", "Brand", "Purchase Date",
		"Last Calibration", "Next Calibration", "PO Number", "Invoice Number",
		"Invoice Date", "Amount", "Subscription", "Remarks",
	}
	rows := make([][]interface{}, 0, len(units))
	for _, u := range units {
		var amount interface{}
		if u.Amount != nil {
			amount = *u.Amount
		}
		rows = append(rows, []interface{}{
			u.ID, strOrNil(u.ItemName), strOrNil(u.ModelName), strOrNil(u.SerialNumber),
			strOrNil(u.Brand), dateOrNil(u.PurchaseDate), dateOrNil(u.LastCalibration),
			dateOrNil(u.NextCalibration), strOrNil(u.PoNumber), strOrNil(u.InvoiceNumber),
			dateOrNil(u.InvoiceDate), amount, strOrNil(u.SubscriptionInfo), strOrNil(u.Remarks),
		})
	}
	return workbook("Units", header, rows)
}

// ExportUsers writes the users with their benefit ledgers. Identity numbers
// and addresses are left out.
func ExportUsers(users []UserRecord) (*bytes.Buffer, error) {
	header := []interface{}{"ID", "Username", "Full Name", "Email", "Role", "Active", "Office"}
	for _, cat := range balance.Categories {
		for _, part := range schema.BenefitParts {
			header = append(header, string(schema.BenefitField(cat, part)))
		}
	}

	rows := make([][]interface{}, 0, len(users))
	for _, u := range users {
		row := []interface{}{
			u.ID, u.Username, strOrNil(u.FullName), strOrNil(u.Email),
			u.RoleName(), u.Active(), strOrNil(u.Office),
		}
		for _, cat := range balance.Categories {
			for _, part := range schema.BenefitParts {
				row = append(row, amountOrNil(u.Benefits.part(cat, part)))
			}
		}
		rows = append(rows, row)
	}
	return workbook("Users", header, rows)
}
