package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

const itemCSV = `row_type,product_desc,category,division,branch,qty,total_price,total_cost,total_profit
item,LATTE,BEVERAGES,HOT BAR SECTION,Stories - Hamra,1000,100000,50000,50000
item,MUFFIN,FOOD,BAKERY,Stories - Zalka,100,10000,3000,7000
category,,BEVERAGES,,Stories - Hamra,1000,100000,50000,50000
branch_total,,,,Stories - Hamra,1100,110000,53000,57000
`

func TestGetLoadsCSV(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "profit_by_item.csv", itemCSV)
	svc := NewDatasetService(dir)

	rows, err := svc.Get("profit_by_item")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "LATTE", rows[0]["product_desc"])
	assert.Equal(t, "branch_total", rows[3]["row_type"])
}

func TestGetMissingDataset(t *testing.T) {
	svc := NewDatasetService(t.TempDir())

	_, err := svc.Get("profit_by_item")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "profit_by_item")
}

func TestGetCachesAndReloads(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "profit_by_item.csv", itemCSV)
	svc := NewDatasetService(dir)

	first, err := svc.Get("profit_by_item")
	require.NoError(t, err)
	require.Len(t, first, 4)

	// Replace the file; the cache still serves the old rows.
	writeCSV(t, dir, "profit_by_item.csv", "row_type,product_desc\nitem,ONLY ONE\n")
	cached, err := svc.Get("profit_by_item")
	require.NoError(t, err)
	assert.Len(t, cached, 4)

	svc.Reload()
	fresh, err := svc.Get("profit_by_item")
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "ONLY ONE", fresh[0]["product_desc"])
}

func TestGetLoadsXLSX(t *testing.T) {
	dir := t.TempDir()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"row_type", "product_desc", "qty"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"item", "LATTE", 1000}))
	require.NoError(t, f.SaveAs(filepath.Join(dir, "profit_by_item.xlsx")))
	svc := NewDatasetService(dir)

	rows, err := svc.Get("profit_by_item")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "LATTE", rows[0]["product_desc"])
	assert.InDelta(t, 1000, rows[0].Float("qty"), 1e-9)
}

func TestCSVTakesPrecedenceOverXLSX(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "profit_by_item.csv", "row_type,product_desc\nitem,FROM CSV\n")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"row_type", "product_desc"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"item", "FROM XLSX"}))
	require.NoError(t, f.SaveAs(filepath.Join(dir, "profit_by_item.xlsx")))
	svc := NewDatasetService(dir)

	rows, err := svc.Get("profit_by_item")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "FROM CSV", rows[0]["product_desc"])
}

func TestRaggedRowsAreTolerated(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "profit_by_item.csv", "row_type,product_desc,qty\nitem,LATTE\n")
	svc := NewDatasetService(dir)

	rows, err := svc.Get("profit_by_item")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "LATTE", rows[0]["product_desc"])
	assert.Zero(t, rows[0].Float("qty"))
}

func TestRowFloat(t *testing.T) {
	row := Row{"a": "12.5", "b": "", "c": "nan", "d": "NaN", "e": "abc", "f": "-3"}

	assert.InDelta(t, 12.5, row.Float("a"), 1e-9)
	assert.Zero(t, row.Float("b"))
	assert.Zero(t, row.Float("c"))
	assert.Zero(t, row.Float("d"))
	assert.Zero(t, row.Float("e"))
	assert.InDelta(t, -3, row.Float("f"), 1e-9)
	assert.Zero(t, row.Float("missing"))
	assert.Equal(t, 12, Row{"n": "12.9"}.Int("n"))
}

func TestSaleItemsAndItemRows(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "profit_by_item.csv", itemCSV)
	svc := NewDatasetService(dir)

	all, err := svc.SaleItems()
	require.NoError(t, err)
	assert.Len(t, all, 4)

	items, err := svc.ItemRows()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "LATTE", items[0].ProductDesc)
	assert.InDelta(t, 50000, items[0].TotalProfit, 1e-9)
	assert.Equal(t, "MUFFIN", items[1].ProductDesc)
}

func TestMonthlyWideRows(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "monthly_sales_wide.csv",
		"row_type,branch,year,january,february,total_by_year\n"+
			"branch,Stories - Hamra,2024,1000,2000,3000\n")
	svc := NewDatasetService(dir)

	rows, err := svc.MonthlyWideRows()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2024, rows[0].Year)
	assert.InDelta(t, 1000, rows[0].Months["january"], 1e-9)
	assert.InDelta(t, 2000, rows[0].Months["february"], 1e-9)
	assert.Zero(t, rows[0].Months["march"])
	assert.InDelta(t, 3000, rows[0].TotalByYear, 1e-9)
}

func TestMonthOrder(t *testing.T) {
	require.Len(t, MonthOrder, 12)
	assert.Equal(t, "january", MonthOrder[0])
	assert.Equal(t, "december", MonthOrder[11])
}
