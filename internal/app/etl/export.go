package etl

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"backend/internal/app/ds"
)

const exportSheet = "Контракты"

// ExportContracts формирует xlsx-отчёт по контрактам с их подписками
func ExportContracts(contracts []ds.Contract, subsByContract map[uint][]ds.Subscription) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{"Поставщик", "Номер", "Подписка", "Дата начала", "Дата окончания", "Сумма", "Валюта"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return nil, err
		}
	}

	row := 2
	for _, c := range contracts {
		if err := writeRow(f, row, c.VendorName, c.Number, "", c.StartDate, c.EndDate, c.TotalAmount.StringFixed(2), c.TotalCurrency); err != nil {
			return nil, err
		}
		row++

		for _, s := range subsByContract[c.ID] {
			if err := writeRow(f, row, "", "", s.Name, s.StartDate, s.EndDate, s.TotalAmount.StringFixed(2), s.TotalCurrency); err != nil {
				return nil, err
			}
			row++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write xlsx: %w", err)
	}
	return buf, nil
}

func writeRow(f *excelize.File, row int, vendor, number, sub string, start, end *time.Time, amount, currency string) error {
	values := []interface{}{vendor, number, sub, formatDate(start), formatDate(end), amount, currency}
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if err := f.SetCellValue(exportSheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
