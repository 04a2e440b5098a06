package handlers

import (
	"log"
	"math"
	"net/http"
	"sort"

	"stories-profit-api/pkg/models"
	"stories-profit-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// KPIHandler serves the top-level KPI summary cards.
type KPIHandler struct {
	data *services.DatasetService
}

// NewKPIHandler creates a new KPIHandler.
func NewKPIHandler(data *services.DatasetService) *KPIHandler {
	return &KPIHandler{data: data}
}

// GetSummary handles GET /api/kpi/summary.
func (h *KPIHandler) GetSummary(c *gin.Context) {
	items, err := h.data.ItemRows()
	if err != nil {
		log.Printf("kpi/summary: dataset error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load KPI summary"})
		return
	}
	cats, err := h.data.CategoryRows()
	if err != nil {
		log.Printf("kpi/summary: dataset error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load KPI summary"})
		return
	}
	monthly, err := h.data.MonthlyRows()
	if err != nil {
		log.Printf("kpi/summary: dataset error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load KPI summary"})
		return
	}

	var totalProfit, totalCost, lossLeaders float64
	branches := make(map[string]struct{})
	products := make(map[string]struct{})
	for _, r := range items {
		totalProfit += r.TotalProfit
		totalCost += r.TotalCost
		if r.TotalProfit < 0 {
			lossLeaders += math.Abs(r.TotalProfit)
		}
		if r.Branch != "" {
			branches[r.Branch] = struct{}{}
		}
		if r.ProductDesc != "" {
			products[r.ProductDesc] = struct{}{}
		}
	}
	// Revenue proxy used by the executive brief: revenue = cost + profit.
	totalRevenue := totalCost + totalProfit
	avgMargin := 0.0
	if totalRevenue > 0 {
		avgMargin = totalProfit / totalRevenue * 100
	}

	catTotals := make(map[string]float64)
	catOrder := make([]string, 0)
	for _, r := range cats {
		if r.RowType != models.RowTypeCategory || r.Category == "" {
			continue
		}
		if _, ok := catTotals[r.Category]; !ok {
			catOrder = append(catOrder, r.Category)
		}
		catTotals[r.Category] += r.TotalProfit
	}
	sort.SliceStable(catOrder, func(i, j int) bool { return catTotals[catOrder[i]] > catTotals[catOrder[j]] })
	topCategory := ""
	if len(catOrder) > 0 {
		topCategory = catOrder[0]
	}

	months := filterMonths(monthly)
	latestYear, previousYear, years := resolveYears(months)

	monthTotals := make(map[string]float64)
	var totalLatest, totalPrev float64
	for _, r := range months {
		switch r.Year {
		case latestYear:
			monthTotals[r.Period] += r.SalesAmount
			totalLatest += r.SalesAmount
		case previousYear:
			totalPrev += r.SalesAmount
		}
	}
	bestMonth := ""
	bestMonthSales := math.Inf(-1)
	for period, sales := range monthTotals {
		if sales > bestMonthSales || (sales == bestMonthSales && period < bestMonth) {
			bestMonth = period
			bestMonthSales = sales
		}
	}
	yoyChange := 0.0
	if totalPrev > 0 {
		yoyChange = (totalLatest - totalPrev) / totalPrev * 100
	}

	c.JSON(http.StatusOK, gin.H{
		"totalProfit":             totalProfit,
		"totalRevenue":            totalRevenue,
		"totalCost":               totalCost,
		"avgMarginPct":            avgMargin,
		"topCategory":             topCategory,
		"optimizationOpportunity": lossLeaders,
		"bestMonth":               bestMonth,
		"bestMonthYear":           latestYear,
		"yoyChangePct":            yoyChange,
		"yoyBaseYear":             previousYear,
		"yoyCompareYear":          latestYear,
		"availableYears":          years,
		"totalBranches":           len(branches),
		"totalProducts":           len(products),
	})
}
