package etl

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"backend/internal/app/ds"
)

// колонки листа импорта: ФИО | Email | Дата начала | Дата окончания
const importSheetColumns = 4

type RowError struct {
	Row     int
	Message string
}

func (e RowError) Error() string {
	return fmt.Sprintf("строка %d: %s", e.Row, e.Message)
}

// ParseEmployeeLicenses читает xlsx с лицензиями сотрудников.
// Первая строка — заголовок, пропускается. Пустые строки игнорируются
func ParseEmployeeLicenses(r io.Reader, tenantID, subscriptionID uint) ([]ds.EmployeeLicense, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, nil, fmt.Errorf("xlsx has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}

	var licenses []ds.EmployeeLicense
	var rowErrs []RowError

	for i, row := range rows {
		if i == 0 {
			continue // заголовок
		}
		rowNum := i + 1

		if isEmptyRow(row) {
			continue
		}

		name := cellAt(row, 0)
		if name == "" {
			rowErrs = append(rowErrs, RowError{Row: rowNum, Message: "не заполнено ФИО сотрудника"})
			continue
		}

		license := ds.EmployeeLicense{
			TenantID:       tenantID,
			SubscriptionID: subscriptionID,
			EmployeeName:   name,
			EmployeeEmail:  cellAt(row, 1),
		}

		start, err := parseDateCell(cellAt(row, 2))
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: rowNum, Message: "неверный формат даты начала"})
			continue
		}
		end, err := parseDateCell(cellAt(row, 3))
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: rowNum, Message: "неверный формат даты окончания"})
			continue
		}
		if start != nil && end != nil && end.Before(*start) {
			rowErrs = append(rowErrs, RowError{Row: rowNum, Message: "дата окончания раньше даты начала"})
			continue
		}
		license.StartDate = start
		license.EndDate = end

		licenses = append(licenses, license)
	}

	return licenses, rowErrs, nil
}

func cellAt(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isEmptyRow(row []string) bool {
	for i := 0; i < importSheetColumns && i < len(row); i++ {
		if strings.TrimSpace(row[i]) != "" {
			return false
		}
	}
	return true
}

// parseDateCell принимает YYYY-MM-DD или DD.MM.YYYY, пустая ячейка — nil
func parseDateCell(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	// "1/2/06" — формат, в котором excelize отдаёт датированные ячейки по умолчанию
	for _, layout := range []string{"2006-01-02", "02.01.2006", "1/2/06", "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unsupported date format: %s", s)
}
