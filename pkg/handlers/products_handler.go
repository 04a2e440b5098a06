package handlers

import (
	"log"
	"net/http"
	"sort"

	"stories-profit-api/pkg/models"
	"stories-profit-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// ProductsHandler serves product-level read endpoints.
type ProductsHandler struct {
	data *services.DatasetService
	agg  *services.AggregationService
}

// NewProductsHandler creates a new ProductsHandler.
func NewProductsHandler(data *services.DatasetService, agg *services.AggregationService) *ProductsHandler {
	return &ProductsHandler{data: data, agg: agg}
}

// productView is a ProductAggregate extended with the true-revenue proxy
// (cost + profit) used by the product report pages.
type productView struct {
	models.ProductAggregate
	TrueRevenue     float64 `json:"true_revenue"`
	ProfitMarginPct float64 `json:"profit_margin_pct"`
}

func toProductViews(products []models.ProductAggregate) []productView {
	out := make([]productView, 0, len(products))
	for _, p := range products {
		trueRevenue := p.TotalCost + p.TotalProfit
		margin := 0.0
		if trueRevenue > 0 {
			margin = p.TotalProfit / trueRevenue * 100
		}
		out = append(out, productView{
			ProductAggregate: p,
			TrueRevenue:      trueRevenue,
			ProfitMarginPct:  margin,
		})
	}
	return out
}

// GetTop handles GET /api/products/top?limit=15&sort=profit&category=&branch=.
func (h *ProductsHandler) GetTop(c *gin.Context) {
	limit := limitParam(c, 15)
	sortKey := c.DefaultQuery("sort", "profit")
	category := c.Query("category")
	branch := c.DefaultQuery("branch", "all")

	items, err := h.data.ItemRows()
	if err != nil {
		log.Printf("products/top: dataset error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load products"})
		return
	}
	items = h.agg.FilterBranch(items, branch)
	if category != "" {
		filtered := make([]models.SaleItemRecord, 0, len(items))
		for _, r := range items {
			if r.Category == category {
				filtered = append(filtered, r)
			}
		}
		items = filtered
	}

	products := toProductViews(h.agg.AggregateProducts(items))
	switch sortKey {
	case "qty":
		sort.SliceStable(products, func(i, j int) bool { return products[i].Qty > products[j].Qty })
	case "margin":
		sort.SliceStable(products, func(i, j int) bool { return products[i].ProfitMarginPct > products[j].ProfitMarginPct })
	case "loss":
		sort.SliceStable(products, func(i, j int) bool { return products[i].TotalProfit < products[j].TotalProfit })
	default:
		sort.SliceStable(products, func(i, j int) bool { return products[i].TotalProfit > products[j].TotalProfit })
	}
	if len(products) > limit {
		products = products[:limit]
	}
	c.JSON(http.StatusOK, products)
}

// GetLossLeaders handles GET /api/products/loss-leaders?limit=15&branch=.
func (h *ProductsHandler) GetLossLeaders(c *gin.Context) {
	limit := limitParam(c, 15)
	branch := c.DefaultQuery("branch", "all")

	items, err := h.data.ItemRows()
	if err != nil {
		log.Printf("products/loss-leaders: dataset error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load loss leaders"})
		return
	}
	items = h.agg.FilterBranch(items, branch)

	losing := make([]models.SaleItemRecord, 0, len(items))
	for _, r := range items {
		if r.TotalProfit < 0 {
			losing = append(losing, r)
		}
	}

	products := h.agg.AggregateProducts(losing)
	filtered := make([]models.ProductAggregate, 0, len(products))
	for _, p := range products {
		if p.TotalProfit < 0 {
			filtered = append(filtered, p)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].TotalProfit < filtered[j].TotalProfit })
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	c.JSON(http.StatusOK, filtered)
}

// GetCategories handles GET /api/products/categories?branch=.
func (h *ProductsHandler) GetCategories(c *gin.Context) {
	branch := c.DefaultQuery("branch", "all")

	rows, err := h.data.CategoryRows()
	if err != nil {
		log.Printf("products/categories: dataset error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load categories"})
		return
	}

	type catAcc struct {
		Category        string  `json:"category"`
		Qty             float64 `json:"qty"`
		TotalPrice      float64 `json:"total_price"`
		TotalCost       float64 `json:"total_cost"`
		TotalProfit     float64 `json:"total_profit"`
		TrueRevenue     float64 `json:"true_revenue"`
		BranchCount     int     `json:"branch_count"`
		AvgMarginPct    float64 `json:"avg_margin_pct"`
		ProfitMarginPct float64 `json:"profit_margin_pct"`
	}
	byCat := make(map[string]*catAcc)
	branchSets := make(map[string]map[string]struct{})
	order := make([]string, 0)

	for _, r := range rows {
		if r.RowType != models.RowTypeCategory {
			continue
		}
		if branch != "" && branch != "all" && r.Branch != branch {
			continue
		}
		k := r.Category
		if k == "" {
			continue
		}
		a, ok := byCat[k]
		if !ok {
			a = &catAcc{Category: k}
			byCat[k] = a
			branchSets[k] = make(map[string]struct{})
			order = append(order, k)
		}
		a.Qty += r.Qty
		a.TotalPrice += r.TotalPrice
		a.TotalCost += r.TotalCost
		a.TotalProfit += r.TotalProfit
		a.TrueRevenue += r.TotalCost + r.TotalProfit
		if r.Branch != "" {
			branchSets[k][r.Branch] = struct{}{}
		}
	}

	out := make([]catAcc, 0, len(order))
	for _, k := range order {
		a := byCat[k]
		a.BranchCount = len(branchSets[k])
		if a.TrueRevenue > 0 {
			a.AvgMarginPct = a.TotalProfit / a.TrueRevenue * 100
			a.ProfitMarginPct = a.AvgMarginPct
		}
		out = append(out, *a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalProfit > out[j].TotalProfit })
	c.JSON(http.StatusOK, out)
}

// GetGroups handles GET /api/products/groups?limit=20&branch=.
func (h *ProductsHandler) GetGroups(c *gin.Context) {
	limit := limitParam(c, 20)
	branch := c.DefaultQuery("branch", "all")

	rows, err := h.data.GroupRows()
	if err != nil {
		log.Printf("products/groups: dataset error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load product groups"})
		return
	}

	type groupAcc struct {
		Group        string  `json:"group"`
		Division     string  `json:"division"`
		Qty          float64 `json:"qty"`
		TotalAmount  float64 `json:"total_amount"`
		ProductCount int     `json:"product_count"`
		// Mirror of TotalAmount kept for chart components expecting a
		// profit-style field.
		TotalProfit float64 `json:"total_profit"`
	}
	byGroup := make(map[string]*groupAcc)
	productSets := make(map[string]map[string]struct{})
	order := make([]string, 0)

	for _, r := range rows {
		if r.RowType != models.RowTypeItem {
			continue
		}
		if branch != "" && branch != "all" && r.Branch != branch {
			continue
		}
		k := r.Group
		if k == "" {
			continue
		}
		g, ok := byGroup[k]
		if !ok {
			g = &groupAcc{Group: k, Division: r.Division}
			byGroup[k] = g
			productSets[k] = make(map[string]struct{})
			order = append(order, k)
		}
		g.Qty += r.Qty
		g.TotalAmount += r.TotalAmount
		if r.Description != "" {
			productSets[k][r.Description] = struct{}{}
		}
	}

	out := make([]groupAcc, 0, len(order))
	for _, k := range order {
		g := byGroup[k]
		g.ProductCount = len(productSets[k])
		g.TotalProfit = g.TotalAmount
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalAmount > out[j].TotalAmount })
	if len(out) > limit {
		out = out[:limit]
	}
	c.JSON(http.StatusOK, out)
}
