package services

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"stories-profit-api/pkg/models"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/singleflight"
)

// Row is one record of an extract, keyed by header name.
type Row map[string]string

// DatasetService loads the flat tabular extracts (CSV or XLSX) from a data
// directory and caches the parsed rows for the process lifetime. Datasets are
// loaded lazily on first access; concurrent first loads of the same dataset are
// deduplicated. Reload clears the cache (administrative operation only).
type DatasetService struct {
	baseDir string
	group   singleflight.Group
	cache   syncCache
}

// NewDatasetService creates a new DatasetService rooted at baseDir.
func NewDatasetService(baseDir string) *DatasetService {
	return &DatasetService{
		baseDir: baseDir,
		cache:   newSyncCache(),
	}
}

// Get returns the rows of the named dataset (logical name without extension,
// e.g. "profit_by_item"). It looks for <name>.csv first, then <name>.xlsx.
func (s *DatasetService) Get(name string) ([]Row, error) {
	if rows, ok := s.cache.get(name); ok {
		return rows, nil
	}
	v, err, _ := s.group.Do(name, func() (interface{}, error) {
		if rows, ok := s.cache.get(name); ok {
			return rows, nil
		}
		rows, err := s.load(name)
		if err != nil {
			return nil, err
		}
		s.cache.put(name, rows)
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Row), nil
}

// Reload clears the dataset cache so the next access re-reads the extracts.
func (s *DatasetService) Reload() {
	s.cache.clear()
}

func (s *DatasetService) load(name string) ([]Row, error) {
	csvPath := filepath.Join(s.baseDir, name+".csv")
	if _, err := os.Stat(csvPath); err == nil {
		return s.loadCSV(csvPath)
	}
	xlsxPath := filepath.Join(s.baseDir, name+".xlsx")
	if _, err := os.Stat(xlsxPath); err == nil {
		return s.loadXLSX(xlsxPath)
	}
	return nil, fmt.Errorf("dataset %q not found in %s (.csv or .xlsx)", name, s.baseDir)
}

func (s *DatasetService) loadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return rowsFromRecords(records), nil
}

func (s *DatasetService) loadXLSX(path string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rowsFromRecords(records), nil
}

func rowsFromRecords(records [][]string) []Row {
	if len(records) == 0 {
		return nil
	}
	header := records[0]
	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) == 0 {
			continue
		}
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return rows
}

type syncCache struct {
	mu   sync.RWMutex
	data map[string][]Row
}

func newSyncCache() syncCache {
	return syncCache{data: make(map[string][]Row)}
}

func (c *syncCache) get(name string) ([]Row, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rows, ok := c.data[name]
	return rows, ok
}

func (c *syncCache) put(name string, rows []Row) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[name] = rows
}

func (c *syncCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]Row)
}

// Float returns the numeric value of a column, defaulting to 0 for missing,
// empty, or non-numeric values ("nan" included). Missing numerics must never
// propagate as NaN into the aggregates.
func (r Row) Float(key string) float64 {
	v := r[key]
	if v == "" || strings.EqualFold(v, "nan") {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

// Int returns the integer value of a column, 0 when absent or malformed.
func (r Row) Int(key string) int {
	return int(r.Float(key))
}

// SaleItems returns the typed rows of the item-level profit extract.
func (s *DatasetService) SaleItems() ([]models.SaleItemRecord, error) {
	rows, err := s.Get("profit_by_item")
	if err != nil {
		return nil, err
	}
	out := make([]models.SaleItemRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.SaleItemRecord{
			RowType:     r["row_type"],
			ProductDesc: r["product_desc"],
			Category:    r["category"],
			Division:    r["division"],
			Branch:      r["branch"],
			Qty:         r.Float("qty"),
			TotalPrice:  r.Float("total_price"),
			TotalCost:   r.Float("total_cost"),
			TotalProfit: r.Float("total_profit"),
		})
	}
	return out, nil
}

// ItemRows returns only the item rows of the profit extract, excluding
// subtotal and branch_total rows.
func (s *DatasetService) ItemRows() ([]models.SaleItemRecord, error) {
	all, err := s.SaleItems()
	if err != nil {
		return nil, err
	}
	items := make([]models.SaleItemRecord, 0, len(all))
	for _, r := range all {
		if r.RowType == models.RowTypeItem {
			items = append(items, r)
		}
	}
	return items, nil
}

// CategoryRows returns the typed rows of the category-level profit extract.
func (s *DatasetService) CategoryRows() ([]models.CategoryRecord, error) {
	rows, err := s.Get("profit_by_category")
	if err != nil {
		return nil, err
	}
	out := make([]models.CategoryRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.CategoryRecord{
			RowType:     r["row_type"],
			Branch:      r["branch"],
			Category:    r["category"],
			Qty:         r.Float("qty"),
			TotalPrice:  r.Float("total_price"),
			TotalCost:   r.Float("total_cost"),
			TotalProfit: r.Float("total_profit"),
		})
	}
	return out, nil
}

// MonthlyRows returns the typed rows of the long-format monthly sales extract.
func (s *DatasetService) MonthlyRows() ([]models.MonthlyRecord, error) {
	rows, err := s.Get("monthly_sales_long")
	if err != nil {
		return nil, err
	}
	out := make([]models.MonthlyRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.MonthlyRecord{
			RowType:     r["row_type"],
			Branch:      r["branch"],
			Period:      r["period"],
			PeriodType:  r["period_type"],
			Year:        r.Int("year"),
			MonthNumber: r.Int("month_number"),
			SalesAmount: r.Float("sales_amount"),
		})
	}
	return out, nil
}

// MonthOrder lists the month column names of the wide extract in calendar order.
var MonthOrder = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// MonthlyWideRows returns the typed rows of the wide-format monthly extract.
func (s *DatasetService) MonthlyWideRows() ([]models.MonthlyWideRecord, error) {
	rows, err := s.Get("monthly_sales_wide")
	if err != nil {
		return nil, err
	}
	out := make([]models.MonthlyWideRecord, 0, len(rows))
	for _, r := range rows {
		months := make(map[string]float64, len(MonthOrder))
		for _, m := range MonthOrder {
			months[m] = r.Float(m)
		}
		out = append(out, models.MonthlyWideRecord{
			RowType:     r["row_type"],
			Branch:      r["branch"],
			Year:        r.Int("year"),
			Months:      months,
			TotalByYear: r.Float("total_by_year"),
		})
	}
	return out, nil
}

// GroupRows returns the typed rows of the product-group sales extract.
func (s *DatasetService) GroupRows() ([]models.GroupRecord, error) {
	rows, err := s.Get("sales_by_group")
	if err != nil {
		return nil, err
	}
	out := make([]models.GroupRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.GroupRecord{
			RowType:     r["row_type"],
			Branch:      r["branch"],
			Group:       r["group"],
			Division:    r["division"],
			Description: r["description"],
			Qty:         r.Float("qty"),
			TotalAmount: r.Float("total_amount"),
		})
	}
	return out, nil
}
