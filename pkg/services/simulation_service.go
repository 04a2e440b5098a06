package services

import (
	"fmt"
	"math"
	"sort"

	config "stories-profit-api/configs"
	"stories-profit-api/pkg/models"
)

// ValidationError marks a client-input problem (unknown scenario type, unknown
// product, empty bundle). Handlers map it to a 400 response.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// SimulationService hosts the two what-if calculators: the lever simulator
// over fixed dataset segments, and the product-level scenario simulator
// (price_change, bundle, sale) over a catalog derived from the item extract.
type SimulationService struct {
	agg    *AggregationService
	tuning *config.Tuning
}

// NewSimulationService creates a new SimulationService.
func NewSimulationService(agg *AggregationService, tuning *config.Tuning) *SimulationService {
	return &SimulationService{agg: agg, tuning: tuning}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

// Simulate projects the profit uplift of the four named levers. Each lever
// applies its percentage against a fixed segment pool with an empirically
// chosen conversion factor.
func (s *SimulationService) Simulate(items []models.SaleItemRecord, req models.SimulationRequest) models.SimulationResult {
	var hotBarProfit, cinnamonProfit, grabGoProfit, toppingCost, totalProfit float64

	toppings := make(map[string]struct{}, len(s.tuning.ToppingProducts))
	for _, name := range s.tuning.ToppingProducts {
		toppings[name] = struct{}{}
	}

	for _, r := range items {
		totalProfit += r.TotalProfit
		switch {
		case r.Division == s.tuning.HotBarDivision && r.TotalProfit > 0 && r.TotalPrice > 0:
			hotBarProfit += r.TotalProfit
		case r.Division == s.tuning.CinnamonDivision && r.TotalProfit > 0 && r.TotalPrice > 0:
			cinnamonProfit += r.TotalProfit
		case r.Division == s.tuning.GrabGoDivision && r.TotalProfit > 0 && r.TotalPrice > 0:
			grabGoProfit += r.TotalProfit
		}
		// Toppings are given away: zero revenue, pure cost pool.
		if _, ok := toppings[r.ProductDesc]; ok && r.TotalPrice == 0 {
			toppingCost += r.TotalProfit
		}
	}
	toppingCostPool := math.Abs(toppingCost)

	hotBarImpact := hotBarProfit * (req.HotBarUpsell / 100) * s.tuning.HotBarConversion
	cinnamonImpact := cinnamonProfit * (req.CinnamonRollPush / 100) * s.tuning.CinnamonConversion
	grabGoImpact := grabGoProfit * (req.GrabGoAttach / 100) * s.tuning.GrabGoConversion
	toppingImpact := toppingCostPool * (req.ToppingCostReduce / 100) * s.tuning.ToppingConversion

	totalUplift := hotBarImpact + cinnamonImpact + grabGoImpact + toppingImpact
	upliftPct := 0.0
	if totalProfit > 0 {
		upliftPct = totalUplift / totalProfit * 100
	}
	maxImpact := math.Max(math.Max(hotBarImpact, cinnamonImpact), math.Max(grabGoImpact, toppingImpact))
	maxImpact = math.Max(maxImpact, 1)

	levers := []float64{req.HotBarUpsell, req.CinnamonRollPush, req.GrabGoAttach, req.ToppingCostReduce}
	activeLevers := 0
	totalMagnitude := 0.0
	for _, v := range levers {
		if v > 0 {
			activeLevers++
		}
		totalMagnitude += v
	}

	confidence := s.tuning.ConfidenceBase
	if req.ToppingCostReduce > 0 {
		confidence += 5
	}
	switch {
	case activeLevers >= 3:
		confidence += 8
	case activeLevers == 2:
		confidence += 4
	}
	switch {
	case totalMagnitude > 80:
		confidence -= 8
	case totalMagnitude > 50:
		confidence -= 4
	}
	if confidence > 95 {
		confidence = 95
	}
	if confidence < 50 {
		confidence = 50
	}

	return models.SimulationResult{
		EstimatedUplift: roundImpact(totalUplift),
		UpliftPct:       round2(upliftPct),
		CurrentProfit:   roundImpact(totalProfit),
		ProjectedProfit: roundImpact(totalProfit + totalUplift),
		Confidence:      confidence,
		MaxImpact:       roundImpact(maxImpact),
		Breakdown: []models.LeverImpact{
			{Lever: "Hot Bar Upsell", Impact: roundImpact(hotBarImpact), Pct: req.HotBarUpsell},
			{Lever: "Cinnamon Roll Attach", Impact: roundImpact(cinnamonImpact), Pct: req.CinnamonRollPush},
			{Lever: "Grab&Go Attach", Impact: roundImpact(grabGoImpact), Pct: req.GrabGoAttach},
			{Lever: "Topping COGS Reduction", Impact: roundImpact(toppingImpact), Pct: req.ToppingCostReduce},
		},
		Segments: models.SegmentPools{
			HotBarProfit:       roundImpact(hotBarProfit),
			CinnamonRollProfit: roundImpact(cinnamonProfit),
			GrabGoProfit:       roundImpact(grabGoProfit),
			ToppingCostPool:    roundImpact(toppingCostPool),
		},
	}
}

// BuildCatalog derives the scenario catalog from the item extract: unit price,
// cost percentage, network-wide quantity, and average margin per product.
func (s *SimulationService) BuildCatalog(items []models.SaleItemRecord) []models.CatalogProduct {
	products := s.agg.AggregateProducts(items)
	catalog := make([]models.CatalogProduct, 0, len(products))
	for _, p := range products {
		unitPrice := 0.0
		if p.Qty > 0 {
			unitPrice = p.TotalPrice / p.Qty
		}
		costPct := 0.0
		if p.TotalPrice > 0 {
			costPct = p.TotalCost / p.TotalPrice * 100
		}
		catalog = append(catalog, models.CatalogProduct{
			ProductDesc: p.ProductDesc,
			Category:    p.Category,
			Division:    p.Division,
			UnitPrice:   unitPrice,
			CostPct:     costPct,
			TotalQty:    p.Qty,
			AvgMargin:   round1(p.ProfitPct),
		})
	}
	sort.SliceStable(catalog, func(i, j int) bool {
		return catalog[i].ProductDesc < catalog[j].ProductDesc
	})
	return catalog
}

// NetworkBranchCount returns the number of distinct branches in the item set.
func (s *SimulationService) NetworkBranchCount(items []models.SaleItemRecord) int {
	branches := make(map[string]struct{})
	for _, r := range items {
		if r.Branch != "" {
			branches[r.Branch] = struct{}{}
		}
	}
	if len(branches) == 0 {
		return 1
	}
	return len(branches)
}

func findCatalogProduct(catalog []models.CatalogProduct, name string) *models.CatalogProduct {
	for i := range catalog {
		if catalog[i].ProductDesc == name {
			return &catalog[i]
		}
	}
	return nil
}

// SimulateScenario dispatches a product-level what-if calculation. items must
// be the full (unfiltered) item row set; branch scoping inside a scenario
// divides network quantity evenly by branch count, a stated approximation.
func (s *SimulationService) SimulateScenario(items []models.SaleItemRecord, req models.ScenarioRequest) (interface{}, error) {
	catalog := s.BuildCatalog(items)
	branchCount := s.NetworkBranchCount(items)

	var baselineProfit, baselineRevenue float64
	for _, r := range items {
		baselineProfit += r.TotalProfit
		baselineRevenue += r.TotalPrice
	}

	switch req.Type {
	case "price_change":
		return s.simulatePriceChange(catalog, branchCount, baselineProfit, baselineRevenue, req)
	case "bundle":
		return s.simulateBundle(catalog, req)
	case "sale":
		return s.simulateSale(catalog, branchCount, baselineProfit, req)
	default:
		return nil, validationErrorf("Unknown scenario type. Use price_change, bundle, or sale.")
	}
}

func branchLabel(branch string) (string, bool) {
	if branch != "" && branch != "all" {
		return branch, true
	}
	return "All branches", false
}

func (s *SimulationService) simulatePriceChange(catalog []models.CatalogProduct, branchCount int, baselineProfit, baselineRevenue float64, req models.ScenarioRequest) (interface{}, error) {
	p := findCatalogProduct(catalog, req.Product)
	if p == nil {
		return nil, validationErrorf("Product not found")
	}

	unitCost := p.UnitPrice * (p.CostPct / 100)
	qty := p.TotalQty
	label, scoped := branchLabel(req.Branch)
	if scoped {
		qty = qty / float64(branchCount)
	}

	oldProfit := qty * (p.UnitPrice - unitCost)
	newProfit := qty * (req.NewPrice - unitCost)
	delta := newProfit - oldProfit
	newMarginPct := 0.0
	if req.NewPrice != 0 {
		newMarginPct = (req.NewPrice - unitCost) / req.NewPrice * 100
	}
	belowCost := req.NewPrice < unitCost

	result := models.PriceChangeResult{
		Scenario:        "Price Change",
		Product:         req.Product,
		Branch:          label,
		CurrentPrice:    p.UnitPrice,
		NewPrice:        req.NewPrice,
		CurrentMargin:   p.AvgMargin,
		NewMargin:       round1(newMarginPct),
		UnitCost:        math.Round(unitCost),
		Qty:             roundImpact(qty),
		OldProfit:       roundImpact(oldProfit),
		NewProfit:       roundImpact(newProfit),
		DeltaProfit:     roundImpact(delta),
		DeltaDirection:  direction(delta),
		AnnualisedDelta: roundImpact(delta * 12),
		BaselineProfit:  roundImpact(baselineProfit),
		NewTotalProfit:  roundImpact(baselineProfit + delta),
		BelowCost:       belowCost,
	}
	if baselineRevenue > 0 {
		result.NewTotalMarginPct = round2((baselineProfit + delta) / baselineRevenue * 100)
	}
	if belowCost {
		result.Warning = "New price is below unit cost: this item will sell at a loss."
	}
	return result, nil
}

func (s *SimulationService) simulateBundle(catalog []models.CatalogProduct, req models.ScenarioRequest) (interface{}, error) {
	if len(req.Items) == 0 {
		return nil, validationErrorf("No items provided")
	}

	enriched := make([]models.BundleItem, 0, len(req.Items))
	for _, item := range req.Items {
		p := findCatalogProduct(catalog, item.Product)
		if p == nil {
			continue
		}
		qty := item.Qty
		if qty <= 0 {
			qty = 1
		}
		unitCost := p.UnitPrice * (p.CostPct / 100)
		enriched = append(enriched, models.BundleItem{
			Product:   item.Product,
			Qty:       qty,
			UnitPrice: p.UnitPrice,
			UnitCost:  math.Round(unitCost),
			Division:  p.Division,
			Category:  p.Category,
		})
	}
	if len(enriched) == 0 {
		return nil, validationErrorf("No valid products found")
	}

	var totalBundleCost, totalIndividualRRP float64
	for _, i := range enriched {
		totalBundleCost += i.UnitCost * i.Qty
		totalIndividualRRP += i.UnitPrice * i.Qty
	}

	dailySales := req.ExpectedDailySales
	if dailySales <= 0 {
		dailySales = 10
	}
	bundleMarginPct := 0.0
	if req.BundlePrice > 0 {
		bundleMarginPct = (req.BundlePrice - totalBundleCost) / req.BundlePrice * 100
	}
	monthlyBundleProfit := req.BundlePrice * dailySales * 30 * (bundleMarginPct / 100)

	var monthlyIndividualProfit float64
	for _, i := range enriched {
		monthlyIndividualProfit += (i.UnitPrice - i.UnitCost) * i.Qty * dailySales * 30
	}

	delta := monthlyBundleProfit - monthlyIndividualProfit
	discount := 0.0
	if totalIndividualRRP > 0 {
		discount = (totalIndividualRRP - req.BundlePrice) / totalIndividualRRP * 100
	}
	belowCost := req.BundlePrice < totalBundleCost

	label, _ := branchLabel(req.Branch)
	result := models.BundleResult{
		Scenario:                "Bundle",
		Branch:                  label,
		Items:                   enriched,
		BundlePrice:             req.BundlePrice,
		TotalIndividualRRP:      math.Round(totalIndividualRRP),
		TotalBundleCost:         math.Round(totalBundleCost),
		BundleMarginPct:         round1(bundleMarginPct),
		DiscountOffRRP:          round1(discount),
		DailySales:              dailySales,
		MonthlyBundleProfit:     roundImpact(monthlyBundleProfit),
		MonthlyIndividualProfit: roundImpact(monthlyIndividualProfit),
		DeltaMonthlyProfit:      roundImpact(delta),
		DeltaDirection:          direction(delta),
		AnnualisedDelta:         roundImpact(delta * 12),
		BelowCost:               belowCost,
	}
	if belowCost {
		result.Warning = "Bundle price is below total ingredient cost: this bundle loses money."
	}
	return result, nil
}

func (s *SimulationService) simulateSale(catalog []models.CatalogProduct, branchCount int, baselineProfit float64, req models.ScenarioRequest) (interface{}, error) {
	p := findCatalogProduct(catalog, req.Product)
	if p == nil {
		return nil, validationErrorf("Product not found")
	}

	unitCost := p.UnitPrice * (p.CostPct / 100)
	baseQty := p.TotalQty
	label, scoped := branchLabel(req.Branch)
	if scoped {
		baseQty = baseQty / float64(branchCount)
	}

	salePrice := p.UnitPrice * (1 - req.DiscountPct/100)
	boostedQty := baseQty * (1 + req.VolumeBoost/100)

	oldProfit := baseQty * (p.UnitPrice - unitCost)
	newMarginLBP := salePrice - unitCost
	newProfit := boostedQty * newMarginLBP
	delta := newProfit - oldProfit

	newMarginPct := 0.0
	if salePrice > 0 {
		newMarginPct = newMarginLBP / salePrice * 100
	}
	breakEvenBoost := 0.0
	if p.UnitPrice > salePrice && baseQty > 0 {
		m := newMarginLBP
		if m <= 0 {
			m = 1
		}
		breakEvenBoost = (oldProfit/m/baseQty - 1) * 100
	}
	belowCost := salePrice < unitCost

	result := models.SaleResult{
		Scenario:                   "Sale / Discount",
		Product:                    req.Product,
		Branch:                     label,
		CurrentPrice:               p.UnitPrice,
		SalePrice:                  math.Round(salePrice),
		DiscountPct:                req.DiscountPct,
		UnitCost:                   math.Round(unitCost),
		CurrentMarginPct:           p.AvgMargin,
		NewMarginPct:               round1(newMarginPct),
		BaseQty:                    roundImpact(baseQty),
		BoostedQty:                 roundImpact(boostedQty),
		VolumeBoostPct:             req.VolumeBoost,
		OldProfit:                  roundImpact(oldProfit),
		NewProfit:                  roundImpact(newProfit),
		DeltaProfit:                roundImpact(delta),
		DeltaDirection:             direction(delta),
		AnnualisedDelta:            roundImpact(delta * 12),
		BreakEvenVolumeBoostNeeded: round1(breakEvenBoost),
		BaselineProfit:             roundImpact(baselineProfit),
		NewTotalProfit:             roundImpact(baselineProfit + delta),
		BelowCost:                  belowCost,
	}
	switch {
	case belowCost:
		result.Warning = "Sale price is below unit cost: every unit sold loses money."
	case newMarginLBP < 0.3*(p.UnitPrice-unitCost):
		result.Warning = fmt.Sprintf("Margin drops to %.1f%%: you need a %.0f%% volume increase just to break even.", round1(newMarginPct), breakEvenBoost)
	}
	return result, nil
}

func direction(delta float64) string {
	if delta >= 0 {
		return "gain"
	}
	return "loss"
}
