package services

import (
	"sort"

	"stories-profit-api/pkg/models"
)

// AggregationService folds raw item rows into per-product, per-branch and
// per-category summaries and classifies products on the menu engineering
// matrix. All methods are pure: aggregates are request-scoped and never shared.
type AggregationService struct{}

// NewAggregationService creates a new AggregationService.
func NewAggregationService() *AggregationService {
	return &AggregationService{}
}

// marginPct returns profit as a percentage of price, 0 when price is not
// positive. A single zero-denominator policy is applied everywhere.
func marginPct(profit, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return profit / price * 100
}

// FilterBranch returns the rows of one branch, or all rows for ""/"all".
func (s *AggregationService) FilterBranch(items []models.SaleItemRecord, branch string) []models.SaleItemRecord {
	if branch == "" || branch == "all" {
		return items
	}
	out := make([]models.SaleItemRecord, 0, len(items))
	for _, r := range items {
		if r.Branch == branch {
			out = append(out, r)
		}
	}
	return out
}

// AggregateProducts folds item rows into one ProductAggregate per distinct
// product description. Rows with an empty product key are skipped. Branch
// count uses set semantics over distinct branch identifiers.
func (s *AggregationService) AggregateProducts(items []models.SaleItemRecord) []models.ProductAggregate {
	type acc struct {
		agg      models.ProductAggregate
		branches map[string]struct{}
	}
	byProduct := make(map[string]*acc)
	order := make([]string, 0)

	for _, r := range items {
		k := r.ProductDesc
		if k == "" {
			continue
		}
		a, ok := byProduct[k]
		if !ok {
			a = &acc{
				agg: models.ProductAggregate{
					ProductDesc: k,
					Category:    r.Category,
					Division:    r.Division,
				},
				branches: make(map[string]struct{}),
			}
			byProduct[k] = a
			order = append(order, k)
		}
		a.agg.Qty += r.Qty
		a.agg.TotalPrice += r.TotalPrice
		a.agg.TotalCost += r.TotalCost
		a.agg.TotalProfit += r.TotalProfit
		if r.Branch != "" {
			a.branches[r.Branch] = struct{}{}
		}
	}

	out := make([]models.ProductAggregate, 0, len(order))
	for _, k := range order {
		a := byProduct[k]
		a.agg.BranchCount = len(a.branches)
		a.agg.ProfitPct = marginPct(a.agg.TotalProfit, a.agg.TotalPrice)
		out = append(out, a.agg)
	}
	return out
}

// AggregateBranches folds item rows into one BranchAggregate per branch.
func (s *AggregationService) AggregateBranches(items []models.SaleItemRecord) []models.BranchAggregate {
	byBranch := make(map[string]*models.BranchAggregate)
	order := make([]string, 0)
	for _, r := range items {
		k := r.Branch
		if k == "" {
			continue
		}
		b, ok := byBranch[k]
		if !ok {
			b = &models.BranchAggregate{Branch: k}
			byBranch[k] = b
			order = append(order, k)
		}
		b.TotalProfit += r.TotalProfit
		b.TotalPrice += r.TotalPrice
	}
	out := make([]models.BranchAggregate, 0, len(order))
	for _, k := range order {
		b := byBranch[k]
		b.MarginPct = marginPct(b.TotalProfit, b.TotalPrice)
		out = append(out, *b)
	}
	return out
}

// AggregateCategories folds item rows into one CategoryAggregate per category.
func (s *AggregationService) AggregateCategories(items []models.SaleItemRecord) []models.CategoryAggregate {
	byCat := make(map[string]*models.CategoryAggregate)
	order := make([]string, 0)
	for _, r := range items {
		k := r.Category
		if k == "" {
			continue
		}
		c, ok := byCat[k]
		if !ok {
			c = &models.CategoryAggregate{Category: k}
			byCat[k] = c
			order = append(order, k)
		}
		c.TotalProfit += r.TotalProfit
		c.TotalPrice += r.TotalPrice
	}
	out := make([]models.CategoryAggregate, 0, len(order))
	for _, k := range order {
		c := byCat[k]
		c.MarginPct = marginPct(c.TotalProfit, c.TotalPrice)
		out = append(out, *c)
	}
	return out
}

// Median returns the order-statistic median: the middle value for odd-length
// input, the average of the two central values for even length, 0 for empty.
func (s *AggregationService) Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	m := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[m]
	}
	return (sorted[m-1] + sorted[m]) / 2
}

// MenuClass assigns the menu engineering quadrant for one product relative to
// the median profit and quantity of its aggregate set.
func (s *AggregationService) MenuClass(p models.ProductAggregate, profitMedian, qtyMedian float64) string {
	hiProfit := p.TotalProfit > profitMedian
	hiQty := p.Qty > qtyMedian
	switch {
	case hiProfit && hiQty:
		return models.MenuClassStar
	case hiProfit:
		return models.MenuClassPuzzle
	case hiQty:
		return models.MenuClassPlowhorse
	default:
		return models.MenuClassDog
	}
}

// Classify computes the profit and quantity medians over the aggregate set and
// assigns every product its quadrant. The medians are relative to the given
// set, so branch-scoped classifications differ from network-wide ones.
func (s *AggregationService) Classify(products []models.ProductAggregate) ([]models.ClassifiedProduct, float64, float64) {
	profits := make([]float64, len(products))
	qtys := make([]float64, len(products))
	for i, p := range products {
		profits[i] = p.TotalProfit
		qtys[i] = p.Qty
	}
	profitMedian := s.Median(profits)
	qtyMedian := s.Median(qtys)

	out := make([]models.ClassifiedProduct, len(products))
	for i, p := range products {
		out[i] = models.ClassifiedProduct{
			ProductAggregate: p,
			MenuClass:        s.MenuClass(p, profitMedian, qtyMedian),
		}
	}
	return out, profitMedian, qtyMedian
}
