// Package pdf renders HR forms as printable A4 documents.
package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

type Field struct {
	Label string
	Value string
}

// Document is an ordered list of label/value pairs under a title. Office
// selects the letterhead.
type Document struct {
	Title         string
	Office        string
	ControlNumber string
	Fields        []Field
	GeneratedAt   time.Time
}

type Renderer interface {
	Render(doc Document) ([]byte, error)
}

type letterhead struct {
	company string
	lines   []string
}

var letterheads = map[string]letterhead{
	"Singapore": {
		company: "DeskHub Singapore",
		lines:   []string{"Singapore Office"},
	},
	"Kuala Lumpur": {
		company: "DeskHub Malaysia",
		lines:   []string{"Kuala Lumpur Office"},
	},
}

func letterheadFor(office string) letterhead {
	if lh, ok := letterheads[office]; ok {
		return lh
	}
	return letterhead{company: "DeskHub"}
}

type FPDFRenderer struct{}

func NewRenderer() *FPDFRenderer { return &FPDFRenderer{} }

func (r *FPDFRenderer) Render(doc Document) ([]byte, error) {
	if doc.GeneratedAt.IsZero() {
		doc.GeneratedAt = time.Now()
	}

	f := fpdf.New("P", "mm", "A4", "")
	f.SetTitle(doc.Title, true)
	f.SetCreator("DeskHub", true)
	f.SetMargins(20, 20, 20)
	f.AddPage()
	tr := f.UnicodeTranslatorFromDescriptor("")

	lh := letterheadFor(doc.Office)
	f.SetFont("Helvetica", "B", 16)
	f.CellFormat(0, 8, tr(lh.company), "", 1, "C", false, 0, "")
	f.SetFont("Helvetica", "", 10)
	for _, line := range lh.lines {
		f.CellFormat(0, 5, tr(line), "", 1, "C", false, 0, "")
	}
	f.Ln(6)

	f.SetFont("Helvetica", "B", 14)
	f.CellFormat(0, 8, tr(doc.Title), "", 1, "C", false, 0, "")
	if doc.ControlNumber != "" {
		f.SetFont("Helvetica", "", 10)
		f.CellFormat(0, 6, tr("Control No: "+doc.ControlNumber), "", 1, "R", false, 0, "")
	}
	f.Ln(4)

	for _, field := range doc.Fields {
		f.SetFont("Helvetica", "B", 10)
		f.CellFormat(55, 8, tr(field.Label), "1", 0, "L", false, 0, "")
		f.SetFont("Helvetica", "", 10)
		f.MultiCell(0, 8, tr(field.Value), "1", "L", false)
	}

	f.Ln(6)
	f.SetFont("Helvetica", "I", 8)
	f.CellFormat(0, 5, "Generated "+doc.GeneratedAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := f.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}
	return buf.Bytes(), nil
}
