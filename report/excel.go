// Package report renders already-fetched transaction data into an xlsx
// workbook for download.
package report

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/nguyensondev/epass-web/epass"
	"github.com/nguyensondev/epass-web/internal/utils"
)

const sheetName = "Transactions"

var columns = []struct {
	header string
	width  float64
}{
	{"Ngày giờ qua Trạm", 25},
	{"Tên Trạm", 25},
	{"Loại vé", 20},
	{"Phí", 20},
}

// TransactionsWorkbook builds an xlsx workbook with one row per
// transaction, newest first, and a bold total row at the bottom. The
// input slice is not modified.
func TransactionsWorkbook(transactions []epass.Transaction) (*bytes.Buffer, error) {
	sorted := append([]epass.Transaction(nil), transactions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, erri := epass.ParseTimestamp(sorted[i].TimestampIn)
		tj, errj := epass.ParseTimestamp(sorted[j].TimestampIn)
		if erri != nil || errj != nil {
			// Unparseable timestamps sink to the bottom.
			return errj != nil && erri == nil
		}
		return ti.After(tj)
	})

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, col.header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, name, name, col.width); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	var total float64
	row := 2
	for _, tx := range sorted {
		total += tx.Price
		values := []any{tx.TimestampIn, tx.StationInName, tx.TicketTypeName, utils.FormatVND(tx.Price)}
		for i, value := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row, err)
			}
		}
		row++
	}

	// Empty spacer row, then the total.
	row++
	totalLabelCell, _ := excelize.CoordinatesToCellName(3, row)
	totalValueCell, _ := excelize.CoordinatesToCellName(4, row)
	if err := f.SetCellValue(sheetName, totalLabelCell, "TỔNG TIỀN"); err != nil {
		return nil, fmt.Errorf("write total label: %w", err)
	}
	if err := f.SetCellValue(sheetName, totalValueCell, utils.FormatVND(total)); err != nil {
		return nil, fmt.Errorf("write total: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create bold style: %w", err)
	}
	if err := f.SetCellStyle(sheetName, totalLabelCell, totalValueCell, bold); err != nil {
		return nil, fmt.Errorf("style total row: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}
