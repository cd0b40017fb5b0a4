package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders agendas as a landscape A4 table grouped by day.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ContentType is the MIME type of the rendered output.
func (e *PDFExporter) ContentType() string {
	return "application/pdf"
}

// Extension is the file suffix of the rendered output.
func (e *PDFExporter) Extension() string {
	return "pdf"
}

var pdfColumns = []struct {
	header string
	width  float64
}{
	{ColumnStart, 18},
	{ColumnEnd, 18},
	{ColumnType, 30},
	{ColumnTitle, 80},
	{ColumnPets, 50},
	{ColumnDone, 15},
	{ColumnRecurrence, 66},
}

// Render draws a title, then for each day a heading and one row per entry
// with a stripe in the entry's type color.
func (e *PDFExporter) Render(agenda Agenda) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	title := agenda.Title
	if title == "" {
		title = "Pet calendar"
	}
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 9, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	period := fmt.Sprintf("%s - %s", agenda.local(agenda.Start).Format("Mon 02 Jan 2006"), agenda.local(agenda.End).Format("Mon 02 Jan 2006"))
	pdf.CellFormat(0, 6, period, "", 1, "L", false, 0, "")
	pdf.Ln(3)

	data := agenda.Dataset()
	if len(data.Rows) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 8, "No events in this period.", "", 1, "L", false, 0, "")
	}

	currentDay := ""
	for i, row := range data.Rows {
		if day := row[ColumnDate]; day != currentDay {
			currentDay = day
			pdf.Ln(2)
			pdf.SetFont("Arial", "B", 11)
			pdf.CellFormat(0, 7, day, "B", 1, "L", false, 0, "")
			e.header(pdf)
		}
		r, g, b := hexColor(agenda.Entries[i].Color)
		pdf.SetFillColor(r, g, b)
		pdf.CellFormat(3, 7, "", "1", 0, "", true, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, col := range pdfColumns {
			pdf.CellFormat(col.width, 7, tr(truncate(row[col.header], int(col.width/1.8))), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) header(pdf *gofpdf.Fpdf) {
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(3, 7, "", "1", 0, "", false, 0, "")
	for _, col := range pdfColumns {
		pdf.CellFormat(col.width, 7, strings.ToUpper(col.header), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
}

// hexColor parses "#rrggbb", falling back to grey.
func hexColor(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 160, 160, 160
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 160, 160, 160
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 3 || len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
