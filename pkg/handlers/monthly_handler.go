package handlers

import (
	"log"
	"net/http"
	"sort"
	"strconv"

	"stories-profit-api/pkg/models"
	"stories-profit-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// MonthlyHandler serves the monthly sales trend endpoints.
type MonthlyHandler struct {
	data *services.DatasetService
}

// NewMonthlyHandler creates a new MonthlyHandler.
func NewMonthlyHandler(data *services.DatasetService) *MonthlyHandler {
	return &MonthlyHandler{data: data}
}

func monthIndex(period string) int {
	for i, m := range services.MonthOrder {
		if m == period {
			return i
		}
	}
	return len(services.MonthOrder)
}

// branchRows keeps the per-branch month rows of the long extract.
func branchRows(rows []models.MonthlyRecord) []models.MonthlyRecord {
	out := make([]models.MonthlyRecord, 0, len(rows))
	for _, r := range rows {
		if r.RowType == models.RowTypeBranch && r.Period != "total_by_year" {
			out = append(out, r)
		}
	}
	return out
}

// GetTrend handles GET /api/monthly/trend?year=&branch=.
func (h *MonthlyHandler) GetTrend(c *gin.Context) {
	yearStr := c.Query("year")
	branch := c.DefaultQuery("branch", "all")

	rows, err := h.data.MonthlyRows()
	if err != nil {
		log.Printf("monthly/trend: dataset error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load monthly trend"})
		return
	}
	data := branchRows(rows)

	if yearStr != "" {
		year, convErr := strconv.Atoi(yearStr)
		if convErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
			return
		}
		filtered := data[:0:0]
		for _, r := range data {
			if r.Year == year {
				filtered = append(filtered, r)
			}
		}
		data = filtered
	}
	if branch != "" && branch != "all" {
		filtered := data[:0:0]
		for _, r := range data {
			if r.Branch == branch {
				filtered = append(filtered, r)
			}
		}
		data = filtered
	}

	type monthPoint struct {
		Period      string  `json:"period"`
		SalesAmount float64 `json:"sales_amount"`
		MonthNumber int     `json:"month_number"`
	}
	byMonth := make(map[string]*monthPoint)
	for _, r := range data {
		p, ok := byMonth[r.Period]
		if !ok {
			p = &monthPoint{Period: r.Period, MonthNumber: r.MonthNumber}
			byMonth[r.Period] = p
		}
		p.SalesAmount += r.SalesAmount
	}

	out := make([]monthPoint, 0, len(byMonth))
	for _, m := range services.MonthOrder {
		if p, ok := byMonth[m]; ok {
			out = append(out, *p)
		}
	}
	c.JSON(http.StatusOK, out)
}

// GetYoY handles GET /api/monthly/yoy?branch=: every year/month pair, ordered.
func (h *MonthlyHandler) GetYoY(c *gin.Context) {
	branch := c.DefaultQuery("branch", "all")

	rows, err := h.data.MonthlyRows()
	if err != nil {
		log.Printf("monthly/yoy: dataset error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load year-over-year data"})
		return
	}
	data := branchRows(rows)
	if branch != "" && branch != "all" {
		filtered := data[:0:0]
		for _, r := range data {
			if r.Branch == branch {
				filtered = append(filtered, r)
			}
		}
		data = filtered
	}

	type yoyPoint struct {
		Year        int     `json:"year"`
		Period      string  `json:"period"`
		MonthNumber int     `json:"month_number"`
		SalesAmount float64 `json:"sales_amount"`
	}
	type ymKey struct {
		year   int
		period string
	}
	byKey := make(map[ymKey]*yoyPoint)
	order := make([]ymKey, 0)
	for _, r := range data {
		key := ymKey{r.Year, r.Period}
		p, ok := byKey[key]
		if !ok {
			p = &yoyPoint{Year: r.Year, Period: r.Period, MonthNumber: r.MonthNumber}
			byKey[key] = p
			order = append(order, key)
		}
		p.SalesAmount += r.SalesAmount
	}

	out := make([]yoyPoint, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return monthIndex(out[i].Period) < monthIndex(out[j].Period)
	})
	c.JSON(http.StatusOK, out)
}

// resolveWideYear picks the requested year, or the latest year present in the
// wide extract when none is given.
func resolveWideYear(c *gin.Context, rows []models.MonthlyWideRecord) (int, bool) {
	if yearStr := c.Query("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
			return 0, false
		}
		return year, true
	}
	latest := 0
	for _, r := range rows {
		if r.RowType == models.RowTypeBranch && r.Year > latest {
			latest = r.Year
		}
	}
	return latest, true
}

// GetHeatmap handles GET /api/monthly/heatmap?year=.
func (h *MonthlyHandler) GetHeatmap(c *gin.Context) {
	rows, err := h.data.MonthlyWideRows()
	if err != nil {
		log.Printf("monthly/heatmap: dataset error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load heatmap"})
		return
	}
	year, ok := resolveWideYear(c, rows)
	if !ok {
		return
	}

	out := make([]gin.H, 0)
	for _, r := range rows {
		if r.RowType != models.RowTypeBranch || r.Year != year {
			continue
		}
		entry := gin.H{"branch": r.Branch, "total_by_year": r.TotalByYear}
		for _, m := range services.MonthOrder {
			entry[m] = r.Months[m]
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i]["total_by_year"].(float64) > out[j]["total_by_year"].(float64)
	})
	c.JSON(http.StatusOK, out)
}

// GetBranches handles GET /api/monthly/branches?year=: compact per-branch
// month columns for the given (or latest) year.
func (h *MonthlyHandler) GetBranches(c *gin.Context) {
	rows, err := h.data.MonthlyWideRows()
	if err != nil {
		log.Printf("monthly/branches: dataset error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load monthly branches"})
		return
	}
	year, ok := resolveWideYear(c, rows)
	if !ok {
		return
	}

	type branchMonths struct {
		Branch string  `json:"branch"`
		Total  float64 `json:"total"`
		Jan    float64 `json:"jan"`
		Feb    float64 `json:"feb"`
		Mar    float64 `json:"mar"`
		Apr    float64 `json:"apr"`
		May    float64 `json:"may"`
		Jun    float64 `json:"jun"`
		Jul    float64 `json:"jul"`
		Aug    float64 `json:"aug"`
		Sep    float64 `json:"sep"`
		Oct    float64 `json:"oct"`
		Nov    float64 `json:"nov"`
		Dec    float64 `json:"dec"`
	}

	out := make([]branchMonths, 0)
	for _, r := range rows {
		if r.RowType != models.RowTypeBranch || r.Year != year {
			continue
		}
		out = append(out, branchMonths{
			Branch: r.Branch,
			Total:  r.TotalByYear,
			Jan:    r.Months["january"],
			Feb:    r.Months["february"],
			Mar:    r.Months["march"],
			Apr:    r.Months["april"],
			May:    r.Months["may"],
			Jun:    r.Months["june"],
			Jul:    r.Months["july"],
			Aug:    r.Months["august"],
			Sep:    r.Months["september"],
			Oct:    r.Months["october"],
			Nov:    r.Months["november"],
			Dec:    r.Months["december"],
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	c.JSON(http.StatusOK, out)
}
