package dashboard

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Cash Report"

// ExportXLSX renders the detailed session-cash report as a spreadsheet:
// a summary block followed by one row per payment/allocation.
func (s *Service) ExportXLSX(ctx context.Context, q ReportQuery) (*excelize.File, error) {
	report, err := s.SessionCashDetailed(ctx, q)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", exportSheet)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	f.SetCellValue(exportSheet, "A1", "Session Cash Report")
	f.SetCellStyle(exportSheet, "A1", "A1", bold)
	f.SetCellValue(exportSheet, "A2", "Period")
	f.SetCellValue(exportSheet, "B2", report.PeriodLabel)
	f.SetCellValue(exportSheet, "A3", "Total Collected")
	f.SetCellValue(exportSheet, "B3", report.TotalCollected.InexactFloat64())
	f.SetCellValue(exportSheet, "A4", "Total Refunded")
	f.SetCellValue(exportSheet, "B4", report.TotalRefunded.InexactFloat64())
	f.SetCellValue(exportSheet, "A5", "Net Cash")
	f.SetCellValue(exportSheet, "B5", report.NetCash.InexactFloat64())
	f.SetCellValue(exportSheet, "A6", "Transactions")
	f.SetCellValue(exportSheet, "B6", report.TransactionCount)
	f.SetCellValue(exportSheet, "A7", "Shifts")
	f.SetCellValue(exportSheet, "B7", report.ShiftsCount)

	headers := []string{"Registration ID", "Patient", "Department", "Amount", "Method", "Paid At", "Staff"}
	headerRow := 9
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		f.SetCellValue(exportSheet, cell, h)
	}
	first, _ := excelize.CoordinatesToCellName(1, headerRow)
	last, _ := excelize.CoordinatesToCellName(len(headers), headerRow)
	f.SetCellStyle(exportSheet, first, last, bold)

	for i, row := range report.Payments {
		r := headerRow + 1 + i
		f.SetCellValue(exportSheet, fmt.Sprintf("A%d", r), row.RegistrationID)
		f.SetCellValue(exportSheet, fmt.Sprintf("B%d", r), row.PatientName)
		f.SetCellValue(exportSheet, fmt.Sprintf("C%d", r), row.DepartmentName)
		f.SetCellValue(exportSheet, fmt.Sprintf("D%d", r), row.Amount.InexactFloat64())
		f.SetCellValue(exportSheet, fmt.Sprintf("E%d", r), row.Method)
		f.SetCellValue(exportSheet, fmt.Sprintf("F%d", r), row.PaidAt)
		f.SetCellValue(exportSheet, fmt.Sprintf("G%d", r), row.StaffName)
	}

	f.SetColWidth(exportSheet, "A", "C", 20)
	f.SetColWidth(exportSheet, "D", "G", 15)
	return f, nil
}
