package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bronlock/internal/domain"
	"bronlock/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// ExcelExporter renders the confirmed schedule for a date range as an
// xlsx file, one row per appointment. Operations teams pull these for
// provider reconciliation.
type ExcelExporter struct {
	bookings domain.BookingService
	path     string
	logger   *zerolog.Logger
}

func NewExcelExporter(bookings domain.BookingService, path string, logger *zerolog.Logger) *ExcelExporter {
	if path == "" {
		path = "exports"
	}
	return &ExcelExporter{bookings: bookings, path: path, logger: logger}
}

var columns = []string{"Appointment", "Provider", "Resources", "Date", "Start", "End", "Status", "Payment", "Amount"}

// ExportRange writes the schedule between startDate and endDate
// (inclusive, YYYY-MM-DD) and returns the file path.
func (e *ExcelExporter) ExportRange(ctx context.Context, startDate, endDate string) (string, error) {
	appointments, err := e.bookings.GetAppointmentsByDateRange(ctx, startDate, endDate)
	if err != nil {
		return "", fmt.Errorf("error getting appointments: %w", err)
	}

	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Schedule"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Period: %s - %s", startDate, endDate))
	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	e.writeHeader(f, sheetName)
	e.writeRows(f, sheetName, appointments)

	_ = f.SetColWidth(sheetName, "A", "C", 30)
	_ = f.SetColWidth(sheetName, "D", lastCol, 14)
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("schedule_%s_to_%s_%s.xlsx", startDate, endDate, time.Now().Format("150405"))
	filePath := filepath.Join(e.path, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("appointments", len(appointments)).Msg("schedule export created")
	return filePath, nil
}

func (e *ExcelExporter) writeHeader(f *excelize.File, sheetName string) {
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, col)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}
}

func (e *ExcelExporter) writeRows(f *excelize.File, sheetName string, appointments []*models.Appointment) {
	row := 3
	for _, appt := range appointments {
		values := []interface{}{
			appt.ID,
			appt.ProviderID,
			joinResources(appt.ResourceIDs),
			appt.Date,
			appt.StartTime,
			appt.EndTime,
			appt.Status,
			appt.PaymentStatus,
			appt.AmountPaid,
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
		row++
	}
}

func joinResources(resources []string) string {
	out := ""
	for i, r := range resources {
		if i > 0 {
			out += ", "
		}
		out += r
	}
	return out
}
