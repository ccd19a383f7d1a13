package etl

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"backend/internal/app/ds"
)

func buildImportFile(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := []interface{}{"ФИО", "Email", "Дата начала", "Дата окончания"}
	for i, v := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		require.NoError(t, f.SetCellValue(sheet, cell, v))
	}
	for r, row := range rows {
		for i, v := range row {
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseEmployeeLicenses(t *testing.T) {
	buf := buildImportFile(t, [][]interface{}{
		{"Иванов Иван", "ivanov@example.com", "2023-01-01", "2023-12-31"},
		{"Петров Пётр", "", "2023-06-01", ""},
	})

	licenses, rowErrs, err := ParseEmployeeLicenses(buf, 1, 42)
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, licenses, 2)

	assert.Equal(t, "Иванов Иван", licenses[0].EmployeeName)
	assert.Equal(t, "ivanov@example.com", licenses[0].EmployeeEmail)
	assert.Equal(t, uint(42), licenses[0].SubscriptionID)
	require.NotNil(t, licenses[0].EndDate)
	assert.Equal(t, 2023, licenses[0].EndDate.Year())

	assert.Nil(t, licenses[1].EndDate)
}

func TestParseEmployeeLicensesRowErrors(t *testing.T) {
	buf := buildImportFile(t, [][]interface{}{
		{"", "noname@example.com", "2023-01-01", ""},
		{"Сидоров", "", "не дата", ""},
		{"Кузнецов", "", "2023-12-31", "2023-01-01"}, // окончание раньше начала
		{"Смирнова Анна", "", "2023-01-01", ""},
	})

	licenses, rowErrs, err := ParseEmployeeLicenses(buf, 1, 7)
	require.NoError(t, err)
	require.Len(t, rowErrs, 3)
	assert.Equal(t, 2, rowErrs[0].Row)
	assert.Equal(t, 3, rowErrs[1].Row)
	assert.Equal(t, 4, rowErrs[2].Row)

	// валидные строки всё равно распарсены
	require.Len(t, licenses, 1)
	assert.Equal(t, "Смирнова Анна", licenses[0].EmployeeName)
}

func TestParseEmployeeLicensesSkipsEmptyRows(t *testing.T) {
	buf := buildImportFile(t, [][]interface{}{
		{"Иванов", "", "2023-01-01", ""},
		{"", "", "", ""},
		{"Петров", "", "", ""},
	})

	licenses, rowErrs, err := ParseEmployeeLicenses(buf, 1, 1)
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	assert.Len(t, licenses, 2)
}

func mustDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExportContracts(t *testing.T) {
	start := mustDate(2023, 1, 1)
	end := mustDate(2023, 12, 31)

	contracts := []ds.Contract{
		{ID: 1, VendorName: "Acme", Number: "C-100", StartDate: &start, EndDate: &end,
			TotalAmount: decimal.NewFromInt(300), TotalCurrency: "USD"},
	}
	subs := map[uint][]ds.Subscription{
		1: {
			{ID: 10, Name: "Acme Suite", StartDate: &start, EndDate: &end,
				TotalAmount: decimal.NewFromInt(300), TotalCurrency: "USD"},
		},
	}

	buf, err := ExportContracts(contracts, subs)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Поставщик", rows[0][0])
	assert.Equal(t, "Acme", rows[1][0])
	assert.Equal(t, "300.00", rows[1][5])
	assert.Equal(t, "Acme Suite", rows[2][2])
	assert.Equal(t, "2023-01-01", rows[2][3])
}
