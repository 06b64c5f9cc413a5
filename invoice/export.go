package invoice

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// Format is a print view output format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/pdf"
	}
}

// Render produces the print view in the requested format.
func Render(inv Invoice, f Format) ([]byte, error) {
	switch f {
	case FormatPDF, "":
		return BuildPDF(inv)
	case FormatXLSX:
		return BuildXLSX(inv)
	}
	return nil, fmt.Errorf("unsupported print format %q", f)
}

// receiptFont is a UTF-8 font so Vietnamese station names and the đ sign print as is.
const receiptFont = "DejaVu"

var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	fontRegular []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	fontBold []byte
)

func newReceipt(inv Invoice) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.AddUTF8FontFromBytes(receiptFont, "", fontRegular)
	pdf.AddUTF8FontFromBytes(receiptFont, "B", fontBold)
	pdf.SetFont(receiptFont, "B", 14)
	pdf.AddPage()

	pdf.Cell(0, 8, "Charging reservation invoice")
	pdf.Ln(12)

	pdf.SetFont(receiptFont, "", 10)
	for _, row := range inv.Rows() {
		pdf.CellFormat(40, 7, row.Label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, row.Value, "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	return pdf
}

// BuildPDF renders a one page receipt.
func BuildPDF(inv Invoice) ([]byte, error) {
	return outputPDF(newReceipt(inv))
}

func outputPDF(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type cell struct {
	axis  string
	value any
}

// BuildXLSX renders the invoice as a two column sheet with numeric totals.
func BuildXLSX(inv Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "invoice"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	cells := []cell{{"A1", "Charging reservation invoice"}}
	rows := inv.Rows()
	for i, row := range rows {
		r := i + 3
		cells = append(cells,
			cell{fmt.Sprintf("A%d", r), row.Label},
			cell{fmt.Sprintf("B%d", r), row.Value},
		)
	}

	// Raw figures for spreadsheet arithmetic.
	base := len(rows) + 4
	cells = append(cells,
		cell{fmt.Sprintf("A%d", base), "Energy (kWh)"},
		cell{fmt.Sprintf("B%d", base), inv.EnergyKwh},
		cell{fmt.Sprintf("A%d", base+1), "Price per kWh"},
		cell{fmt.Sprintf("B%d", base+1), float64(inv.PricePerKwh)},
		cell{fmt.Sprintf("A%d", base+2), "Total amount"},
		cell{fmt.Sprintf("B%d", base+2), inv.TotalAmount},
	)
	for _, c := range cells {
		if err := f.SetCellValue(sheet, c.axis, c.value); err != nil {
			return nil, fmt.Errorf("writing %s: %w", c.axis, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
