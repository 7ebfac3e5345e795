package services

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// InvoiceDocument carries the fields rendered into the invoice PDF and
// the invoice/reminder emails.
type InvoiceDocument struct {
	InvoiceID   string // human-readable short id
	ClientName  string
	ClientEmail string
	Amount      float64
	Description string
	DueDate     string
}

// FormatCurrency renders an amount as a USD currency string
func FormatCurrency(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

// PDFService renders invoice documents
type PDFService interface {
	RenderInvoice(doc *InvoiceDocument) ([]byte, error)
}

type pdfService struct{}

func NewPDFService() PDFService {
	return &pdfService{}
}

// RenderInvoice produces a single-page A4 invoice PDF
func (s *pdfService) RenderInvoice(doc *InvoiceDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	marginX := 20.0
	marginY := 20.0
	pdf.SetMargins(marginX, marginY, marginX)
	pdf.SetAutoPageBreak(true, marginY)
	pageWidth, _ := pdf.GetPageSize()

	// Header
	pdf.SetFont("Helvetica", "B", 28)
	pdf.SetTextColor(33, 37, 41)
	pdf.SetXY(marginX, marginY)
	pdf.Cell(0, 10, "INVOICE")
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.Cell(0, 6, fmt.Sprintf("Invoice ID: %s", doc.InvoiceID))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Due Date: %s", doc.DueDate))
	pdf.Ln(12)

	drawDivider(pdf, marginX, pageWidth)

	// Bill To
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.Cell(0, 6, "BILL TO")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(33, 37, 41)
	pdf.Cell(0, 6, doc.ClientName)
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.Cell(0, 6, doc.ClientEmail)
	pdf.Ln(12)

	drawDivider(pdf, marginX, pageWidth)

	// Description
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.Cell(0, 6, "DESCRIPTION")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(33, 37, 41)
	pdf.MultiCell(pageWidth-marginX*2, 6, doc.Description, "", "L", false)
	pdf.Ln(10)

	drawDivider(pdf, marginX, pageWidth)

	// Amount, right aligned
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.Cell(0, 6, "AMOUNT DUE")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(33, 37, 41)
	pdf.CellFormat(pageWidth-marginX*2, 10, FormatCurrency(doc.Amount), "", 0, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return buf.Bytes(), nil
}

func drawDivider(pdf *gofpdf.Fpdf, marginX, pageWidth float64) {
	pdf.SetDrawColor(200, 200, 200)
	y := pdf.GetY()
	pdf.Line(marginX, y, pageWidth-marginX, y)
	pdf.Ln(8)
}
