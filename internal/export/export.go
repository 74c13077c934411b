package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"careercraft/internal/models"

	"github.com/xuri/excelize/v2"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// column describes one spreadsheet column.
type column struct {
	title string
	width float64
}

var (
	consultationColumns = []column{
		{"ID", 8}, {"Full name", 25}, {"Email", 30}, {"Phone", 15},
		{"Meeting date", 14}, {"Meeting time", 14}, {"Status", 12}, {"Created", 20}, {"Updated", 20},
	}
	registrationColumns = []column{
		{"ID", 8}, {"Full name", 25}, {"Email", 30}, {"Phone", 15}, {"Roles", 25},
		{"CV file", 30}, {"CV storage", 12}, {"Registered", 20},
	}
)

// Consultations writes the consultations as a single-sheet workbook.
// Timestamps are rendered in loc.
func Consultations(w io.Writer, list []*models.Consultation, loc *time.Location) error {
	rows := make([][]interface{}, 0, len(list))
	for _, c := range list {
		rows = append(rows, []interface{}{
			c.ID, c.FullName, c.Email, c.Phone,
			c.MeetingDate.Format(models.DateLayout), c.MeetingTime, c.Status,
			stamp(c.CreatedAt, loc), stamp(c.UpdatedAt, loc),
		})
	}
	return write(w, "Consultations", consultationColumns, rows)
}

// Registrations writes the registrations without CV contents.
func Registrations(w io.Writer, list []*models.Registration, loc *time.Location) error {
	rows := make([][]interface{}, 0, len(list))
	for _, r := range list {
		cvName, cvKind := "", ""
		if r.CV != nil {
			cvName, cvKind = r.CV.Filename, string(r.CV.Kind)
		}
		rows = append(rows, []interface{}{
			r.ID, r.FullName, r.Email, r.Phone, r.Roles, cvName, cvKind, stamp(r.CreatedAt, loc),
		})
	}
	return write(w, "Registrations", registrationColumns, rows)
}

// SaveFile writes a workbook produced by fn into dir and returns its path.
func SaveFile(dir, prefix string, now time.Time, fn func(io.Writer) error) (string, error) {
	// Создаем папку для экспорта, если не существует
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.xlsx", prefix, now.Format("20060102_150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error creating export file: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("error closing export file: %w", err)
	}
	return path, nil
}

func write(w io.Writer, sheet string, cols []column, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	header, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for i, c := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, c.title); err != nil {
			return fmt.Errorf("error writing header: %w", err)
		}
		_ = f.SetCellStyle(sheet, cell, cell, header)

		name, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, name, name, c.width)
	}

	for r, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("error writing row %d: %w", r+2, err)
		}
	}

	// шапка остается видимой при прокрутке
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	// Удаляем стандартный лист
	_ = f.DeleteSheet("Sheet1")

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

func stamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("2006-01-02 15:04:05")
}
