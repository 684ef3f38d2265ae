package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/facturado/billing-api/internal/models"
	"github.com/facturado/billing-api/internal/repository"
)

// ExportService renders billing documents and reports into downloadable
// formats
type ExportService struct {
	paymentRepo repository.PaymentRepository
}

// NewExportService creates a new export service
func NewExportService(paymentRepo repository.PaymentRepository) *ExportService {
	return &ExportService{paymentRepo: paymentRepo}
}

// InvoicePDF renders an invoice as a printable PDF
func (s *ExportService) InvoicePDF(ctx context.Context, invoice *models.Invoice) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(100, 10, "INVOICE")
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(90, 10, invoice.InvoiceNumber, "", 1, "R", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 10)
	if invoice.Client.ID != 0 {
		pdf.Cell(100, 6, invoice.Client.CompanyName)
		pdf.Ln(5)
		if invoice.Client.PrimaryContactName != "" {
			pdf.Cell(100, 6, invoice.Client.PrimaryContactName)
			pdf.Ln(5)
		}
	}
	pdf.Cell(60, 6, fmt.Sprintf("Invoice date: %s", invoice.InvoiceDate.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(60, 6, fmt.Sprintf("Due date: %s", invoice.DueDate.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(60, 6, fmt.Sprintf("Status: %s", invoice.Status))
	pdf.Ln(10)

	// Line item table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(90, 8, "Description", "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 8, "Qty", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Unit Price", "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, "Amount", "1", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, item := range invoice.Items {
		pdf.CellFormat(90, 8, item.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%.2f", item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 8, fmt.Sprintf("%.2f", item.Amount), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// Totals block
	totals := []struct {
		label string
		value float64
	}{
		{"Subtotal", invoice.Subtotal},
		{fmt.Sprintf("Tax (%.2f%%)", invoice.TaxRate), invoice.TaxAmount},
		{"Discount", invoice.DiscountAmount},
		{"Total", invoice.TotalAmount},
	}
	for i, row := range totals {
		if i == len(totals)-1 {
			pdf.SetFont("Arial", "B", 11)
		}
		pdf.CellFormat(150, 7, row.label+":", "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, fmt.Sprintf("%.2f %s", row.value, invoice.Currency), "", 1, "R", false, 0, "")
	}

	if invoice.Notes != nil && *invoice.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "I", 9)
		pdf.MultiCell(190, 5, *invoice.Notes, "", "L", false)
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("%s.pdf", invoice.InvoiceNumber)
	return buf.Bytes(), filename, nil
}

// PaymentsXLSX exports a filtered payment listing as a spreadsheet
func (s *ExportService) PaymentsXLSX(ctx context.Context, query *repository.ListQuery) ([]byte, string, error) {
	payments, _, err := s.paymentRepo.List(ctx, query)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Payments"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	headers := []string{"ID", "Date", "Client", "Invoice ID", "Receipt ID", "Amount", "Currency", "Method", "Status"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(sheet, "A1", lastHeader, headerStyle)

	for row, p := range payments {
		values := []interface{}{
			p.ID,
			p.PaymentDate.Format("2006-01-02"),
			p.Client.CompanyName,
			deref(p.InvoiceID),
			deref(p.ReceiptID),
			p.AmountPaid,
			p.Currency,
			p.PaymentMethod,
			p.Status,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("payments_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// PaymentsCSV exports a filtered payment listing as CSV
func (s *ExportService) PaymentsCSV(ctx context.Context, query *repository.ListQuery) (*bytes.Buffer, error) {
	payments, _, err := s.paymentRepo.List(ctx, query)
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)

	if err := w.Write([]string{"id", "payment_date", "client", "invoice_id", "receipt_id", "amount_paid", "currency", "payment_method", "status"}); err != nil {
		return nil, err
	}

	for _, p := range payments {
		record := []string{
			fmt.Sprintf("%d", p.ID),
			p.PaymentDate.Format("2006-01-02"),
			p.Client.CompanyName,
			formatID(p.InvoiceID),
			formatID(p.ReceiptID),
			fmt.Sprintf("%.2f", p.AmountPaid),
			p.Currency,
			p.PaymentMethod,
			p.Status,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf, nil
}

func deref(id *uint) interface{} {
	if id == nil {
		return ""
	}
	return *id
}

func formatID(id *uint) string {
	if id == nil {
		return ""
	}
	return fmt.Sprintf("%d", *id)
}
