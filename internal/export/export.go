package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"slotbook/internal/domain"
	"slotbook/internal/models"
	"slotbook/internal/service"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	gridSheet = "Schedule"
	listSheet = "Bookings"
)

var listHeaders = []string{"ID", "Date", "Time", "Duration", "Staff", "Service", "Customer", "Status", "Payment", "Price", "Notes"}

// Exporter renders a client's bookings for a date range into an XLSX workbook.
type Exporter struct {
	repo    domain.ExportRepository
	dir     string
	maxDays int
	logger  *zerolog.Logger
}

func NewExporter(repo domain.ExportRepository, dir string, maxDays int, logger *zerolog.Logger) *Exporter {
	if maxDays <= 0 {
		maxDays = models.DefaultMaxExportDays
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Exporter{repo: repo, dir: dir, maxDays: maxDays, logger: logger}
}

// Export writes the workbook under the export directory and returns its path.
// The caller owns the file.
func (e *Exporter) Export(ctx context.Context, clientID int64, from, to string) (string, error) {
	f, err := e.Build(ctx, clientID, from, to)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	filePath := filepath.Join(e.dir, FileName(clientID, from, to))
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Int64("client_id", clientID).Msg("Excel file created")
	return filePath, nil
}

// FileName is the download name of an export.
func FileName(clientID int64, from, to string) string {
	return fmt.Sprintf("bookings_%d_%s_to_%s.xlsx", clientID, from, to)
}

// Build assembles the workbook in memory: a staff by date grid of active bookings and a
// flat list of every booking in the range.
func (e *Exporter) Build(ctx context.Context, clientID int64, from, to string) (*excelize.File, error) {
	start, end, err := e.parseRange(from, to)
	if err != nil {
		return nil, err
	}

	bookings, err := e.repo.ListBookings(ctx, clientID, models.BookingFilter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	staff, err := e.repo.ListActiveStaff(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(gridSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if _, err := f.NewSheet(listSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	writeGrid(f, start, end, staff, bookings)
	writeList(f, bookings)

	_ = f.DeleteSheet("Sheet1")
	return f, nil
}

func (e *Exporter) parseRange(from, to string) (time.Time, time.Time, error) {
	var errs service.ValidationErrors
	start, err := time.Parse(models.DateLayout, from)
	if err != nil {
		errs = append(errs, &service.ValidationError{Field: "from", Message: "must be YYYY-MM-DD"})
	}
	end, err := time.Parse(models.DateLayout, to)
	if err != nil {
		errs = append(errs, &service.ValidationError{Field: "to", Message: "must be YYYY-MM-DD"})
	}
	if len(errs) > 0 {
		return time.Time{}, time.Time{}, errs
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, &service.ValidationError{Field: "to", Message: "must not be before from"}
	}
	if days := int(end.Sub(start).Hours()/24) + 1; days > e.maxDays {
		return time.Time{}, time.Time{}, &service.ValidationError{
			Field:   "to",
			Message: fmt.Sprintf("range is limited to %d days, got %d", e.maxDays, days),
		}
	}
	return start, end, nil
}

// writeGrid: row 1 period title, row 2 dates, column A staff names. Bookings without a
// staff member or with an inactive one land in the last row.
func writeGrid(f *excelize.File, start, end time.Time, staff []*models.Staff, bookings []*models.Booking) {
	_ = f.SetCellValue(gridSheet, "A1", fmt.Sprintf("Period: %s - %s", start.Format(models.DateLayout), end.Format(models.DateLayout)))

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	nameStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	busyStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFEB9C"}, Pattern: 1},
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})

	columns := make(map[string]int)
	col := 2
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(models.DateLayout)
		columns[key] = col
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(gridSheet, cell, key)
		_ = f.SetCellStyle(gridSheet, cell, cell, headerStyle)
		col++
	}
	lastCol, _ := excelize.ColumnNumberToName(col - 1)
	_ = f.MergeCell(gridSheet, "A1", lastCol+"1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(gridSheet, "A1", "A1", titleStyle)

	rows := make(map[int64]int, len(staff))
	row := 3
	for _, s := range staff {
		rows[s.ID] = row
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(gridSheet, cell, s.Name)
		_ = f.SetCellStyle(gridSheet, cell, cell, nameStyle)
		row++
	}
	unassigned := row
	cell, _ := excelize.CoordinatesToCellName(1, unassigned)
	_ = f.SetCellValue(gridSheet, cell, "Unassigned")
	_ = f.SetCellStyle(gridSheet, cell, cell, nameStyle)

	cells := make(map[string][]string)
	for _, b := range bookings {
		if !models.IsActiveStatus(b.Status) {
			continue
		}
		c, ok := columns[b.BookingDate]
		if !ok {
			continue
		}
		r := unassigned
		if b.StaffID != nil {
			if staffRow, ok := rows[*b.StaffID]; ok {
				r = staffRow
			}
		}
		name, _ := excelize.CoordinatesToCellName(c, r)
		cells[name] = append(cells[name], gridLine(b))
	}
	for name, lines := range cells {
		sort.Strings(lines)
		_ = f.SetCellValue(gridSheet, name, strings.Join(lines, "\n"))
		_ = f.SetCellStyle(gridSheet, name, name, busyStyle)
	}

	_ = f.SetColWidth(gridSheet, "A", "A", 25)
	if col > 2 {
		_ = f.SetColWidth(gridSheet, "B", lastCol, 22)
	}
}

func gridLine(b *models.Booking) string {
	line := b.BookingTime + " " + b.ServiceName
	if b.CustomerName != "" {
		line += " (" + b.CustomerName + ")"
	}
	return line
}

func writeList(f *excelize.File, bookings []*models.Booking) {
	for i, h := range listHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(listSheet, cell, h)
	}
	boldStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellStyle(listSheet, "A1", "K1", boldStyle)

	for i, b := range bookings {
		row := i + 2
		values := []interface{}{
			b.ID, b.BookingDate, b.BookingTime, b.Duration, b.StaffName, b.ServiceName,
			b.CustomerName, b.Status, b.PaymentStatus, b.Price, b.Notes,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			_ = f.SetCellValue(listSheet, cell, v)
		}
	}
	_ = f.SetColWidth(listSheet, "B", "I", 16)
	_ = f.SetColWidth(listSheet, "K", "K", 30)
}
