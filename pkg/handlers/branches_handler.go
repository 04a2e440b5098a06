package handlers

import (
	"log"
	"net/http"
	"sort"

	"stories-profit-api/pkg/models"
	"stories-profit-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// BranchesHandler serves branch-level read endpoints.
type BranchesHandler struct {
	data *services.DatasetService
}

// NewBranchesHandler creates a new BranchesHandler.
func NewBranchesHandler(data *services.DatasetService) *BranchesHandler {
	return &BranchesHandler{data: data}
}

// List handles GET /api/branches: per-branch totals, beverage/food profit mix,
// and sales for the latest year present in the monthly extract.
func (h *BranchesHandler) List(c *gin.Context) {
	cats, err := h.data.CategoryRows()
	if err != nil {
		log.Printf("branches: dataset error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load branches"})
		return
	}
	monthly, err := h.data.MonthlyRows()
	if err != nil {
		log.Printf("branches: dataset error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load branches"})
		return
	}

	type branchView struct {
		Branch          string  `json:"branch"`
		TotalProfit     float64 `json:"total_profit"`
		TotalRevenue    float64 `json:"total_revenue"`
		TotalQty        float64 `json:"total_qty"`
		SalesLatest     float64 `json:"sales_latest"`
		SalesLatestYear int     `json:"sales_latest_year"`
		BevProfitPct    float64 `json:"bev_profit_pct"`
		FoodProfitPct   float64 `json:"food_profit_pct"`
		ProfitMarginPct float64 `json:"profit_margin_pct"`
	}
	type mix struct{ beverages, food, other float64 }

	byBranch := make(map[string]*branchView)
	mixes := make(map[string]*mix)
	order := make([]string, 0)

	for _, r := range cats {
		switch r.RowType {
		case models.RowTypeBranchTotal:
			b, ok := byBranch[r.Branch]
			if !ok {
				b = &branchView{Branch: r.Branch}
				byBranch[r.Branch] = b
				order = append(order, r.Branch)
			}
			b.TotalProfit += r.TotalProfit
			b.TotalRevenue += r.TotalCost + r.TotalProfit
			b.TotalQty += r.Qty
		case models.RowTypeCategory:
			m, ok := mixes[r.Branch]
			if !ok {
				m = &mix{}
				mixes[r.Branch] = m
			}
			switch r.Category {
			case "BEVERAGES":
				m.beverages += r.TotalProfit
			case "FOOD":
				m.food += r.TotalProfit
			default:
				m.other += r.TotalProfit
			}
		}
	}

	months := filterMonths(monthly)
	latestYear, _, _ := resolveYears(months)
	salesByBranch := make(map[string]float64)
	for _, r := range months {
		if r.Year == latestYear {
			salesByBranch[r.Branch] += r.SalesAmount
		}
	}

	out := make([]branchView, 0, len(order))
	for _, k := range order {
		b := byBranch[k]
		b.SalesLatest = salesByBranch[k]
		b.SalesLatestYear = latestYear
		if m, ok := mixes[k]; ok {
			total := m.beverages + m.food + m.other
			if total > 0 {
				b.BevProfitPct = m.beverages / total * 100
				b.FoodProfitPct = m.food / total * 100
			}
		}
		if b.TotalRevenue > 0 {
			b.ProfitMarginPct = b.TotalProfit / b.TotalRevenue * 100
		}
		out = append(out, *b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalProfit > out[j].TotalProfit })
	c.JSON(http.StatusOK, out)
}

// GetCategories handles GET /api/branches/:branch/categories.
func (h *BranchesHandler) GetCategories(c *gin.Context) {
	branch := c.Param("branch")

	rows, err := h.data.CategoryRows()
	if err != nil {
		log.Printf("branch categories: dataset error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load branch categories"})
		return
	}

	out := make([]models.CategoryRecord, 0)
	for _, r := range rows {
		if r.RowType == models.RowTypeCategory && r.Branch == branch {
			out = append(out, r)
		}
	}
	c.JSON(http.StatusOK, out)
}

// GetItems handles GET /api/branches/:branch/items?limit=50&sort=profit.
func (h *BranchesHandler) GetItems(c *gin.Context) {
	branch := c.Param("branch")
	limit := limitParam(c, 50)
	sortKey := c.DefaultQuery("sort", "profit")

	rows, err := h.data.ItemRows()
	if err != nil {
		log.Printf("branch items: dataset error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load branch items"})
		return
	}

	items := make([]models.SaleItemRecord, 0)
	for _, r := range rows {
		if r.Branch == branch {
			items = append(items, r)
		}
	}

	rowMargin := func(r models.SaleItemRecord) float64 {
		if r.TotalPrice <= 0 {
			return 0
		}
		return r.TotalProfit / r.TotalPrice * 100
	}
	switch sortKey {
	case "qty":
		sort.SliceStable(items, func(i, j int) bool { return items[i].Qty > items[j].Qty })
	case "margin":
		sort.SliceStable(items, func(i, j int) bool { return rowMargin(items[i]) > rowMargin(items[j]) })
	default:
		sort.SliceStable(items, func(i, j int) bool { return items[i].TotalProfit > items[j].TotalProfit })
	}
	if len(items) > limit {
		items = items[:limit]
	}
	c.JSON(http.StatusOK, items)
}

// filterMonths keeps only proper month rows of the long monthly extract.
func filterMonths(rows []models.MonthlyRecord) []models.MonthlyRecord {
	out := make([]models.MonthlyRecord, 0, len(rows))
	for _, r := range rows {
		if r.PeriodType == "month" {
			out = append(out, r)
		}
	}
	return out
}

// resolveYears returns the latest and previous years present in the rows,
// plus the full ascending year list. Years are resolved from the data, never
// hardcoded.
func resolveYears(rows []models.MonthlyRecord) (latest, previous int, years []int) {
	seen := make(map[int]struct{})
	for _, r := range rows {
		if r.Year > 0 {
			seen[r.Year] = struct{}{}
		}
	}
	years = make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	if len(years) > 0 {
		latest = years[len(years)-1]
	}
	if len(years) > 1 {
		previous = years[len(years)-2]
	}
	return latest, previous, years
}
