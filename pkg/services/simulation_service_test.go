package services

import (
	"testing"

	config "stories-profit-api/configs"
	"stories-profit-api/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSimService() *SimulationService {
	return NewSimulationService(NewAggregationService(), config.DefaultTuning())
}

func leverItems() []models.SaleItemRecord {
	topping := config.DefaultTuning().ToppingProducts[0]
	return []models.SaleItemRecord{
		{ProductDesc: "BEEF SHAWARMA", Division: "HOT BAR SECTION", Branch: "B1", Qty: 500, TotalPrice: 800000, TotalCost: 700000, TotalProfit: 100000},
		{ProductDesc: "CINNAMON ROLL CLASSIC", Division: "CINNAMON ROLLS", Branch: "B1", Qty: 300, TotalPrice: 300000, TotalCost: 250000, TotalProfit: 50000},
		{ProductDesc: "ICED MATCHA", Division: "GRAB&GO BEVERAGES", Branch: "B2", Qty: 200, TotalPrice: 150000, TotalCost: 130000, TotalProfit: 20000},
		{ProductDesc: topping, Division: "TOPPINGS", Branch: "B1", Qty: 100, TotalPrice: 0, TotalCost: 5000, TotalProfit: -5000},
	}
}

func TestSimulateLeverVector(t *testing.T) {
	svc := newSimService()
	req := models.SimulationRequest{
		HotBarUpsell:      10,
		CinnamonRollPush:  10,
		GrabGoAttach:      10,
		ToppingCostReduce: 10,
	}

	res := svc.Simulate(leverItems(), req)

	assert.Equal(t, int64(100000), res.Segments.HotBarProfit)
	assert.Equal(t, int64(50000), res.Segments.CinnamonRollProfit)
	assert.Equal(t, int64(20000), res.Segments.GrabGoProfit)
	assert.Equal(t, int64(5000), res.Segments.ToppingCostPool)

	require.Len(t, res.Breakdown, 4)
	assert.Equal(t, int64(1800), res.Breakdown[0].Impact)
	assert.Equal(t, int64(1500), res.Breakdown[1].Impact)
	assert.Equal(t, int64(440), res.Breakdown[2].Impact)
	assert.Equal(t, int64(500), res.Breakdown[3].Impact)

	assert.Equal(t, int64(4240), res.EstimatedUplift)
	assert.Equal(t, int64(165000), res.CurrentProfit)
	assert.Equal(t, int64(169240), res.ProjectedProfit)
	assert.InDelta(t, 2.57, res.UpliftPct, 1e-9)
	assert.Equal(t, int64(1800), res.MaxImpact)
	// base 76, +5 topping lever, +8 all four levers active
	assert.Equal(t, 89, res.Confidence)
}

func TestSimulateZeroLevers(t *testing.T) {
	svc := newSimService()

	res := svc.Simulate(leverItems(), models.SimulationRequest{})
	assert.Equal(t, int64(0), res.EstimatedUplift)
	assert.Equal(t, res.CurrentProfit, res.ProjectedProfit)
	assert.Equal(t, int64(1), res.MaxImpact)
	assert.Equal(t, 76, res.Confidence)
}

func TestSimulateConfidenceStaysInBounds(t *testing.T) {
	svc := newSimService()
	requests := []models.SimulationRequest{
		{},
		{HotBarUpsell: 100},
		{HotBarUpsell: 100, CinnamonRollPush: 100, GrabGoAttach: 100, ToppingCostReduce: 100},
		{ToppingCostReduce: 5},
		{HotBarUpsell: 30, CinnamonRollPush: 30},
	}
	for _, req := range requests {
		res := svc.Simulate(leverItems(), req)
		assert.GreaterOrEqual(t, res.Confidence, 50)
		assert.LessOrEqual(t, res.Confidence, 95)
	}
}

func TestSimulateLargeMagnitudeLowersConfidence(t *testing.T) {
	svc := newSimService()

	mild := svc.Simulate(leverItems(), models.SimulationRequest{HotBarUpsell: 10})
	aggressive := svc.Simulate(leverItems(), models.SimulationRequest{HotBarUpsell: 90})
	assert.Greater(t, mild.Confidence, aggressive.Confidence)
}

func scenarioItems() []models.SaleItemRecord {
	return []models.SaleItemRecord{
		{RowType: "item", ProductDesc: "LATTE", Category: "BEVERAGES", Division: "HOT BAR SECTION", Branch: "B1", Qty: 1000, TotalPrice: 100000, TotalCost: 50000, TotalProfit: 50000},
		{RowType: "item", ProductDesc: "MUFFIN", Category: "FOOD", Division: "BAKERY", Branch: "B2", Qty: 100, TotalPrice: 10000, TotalCost: 3000, TotalProfit: 7000},
		{RowType: "item", ProductDesc: "BAGEL", Category: "FOOD", Division: "BAKERY", Branch: "B2", Qty: 100, TotalPrice: 10000, TotalCost: 5000, TotalProfit: 5000},
	}
}

func TestBuildCatalog(t *testing.T) {
	svc := newSimService()

	catalog := svc.BuildCatalog(scenarioItems())
	require.Len(t, catalog, 3)
	// Sorted by product name.
	assert.Equal(t, "BAGEL", catalog[0].ProductDesc)
	assert.Equal(t, "LATTE", catalog[1].ProductDesc)
	assert.Equal(t, "MUFFIN", catalog[2].ProductDesc)

	latte := catalog[1]
	assert.InDelta(t, 100, latte.UnitPrice, 1e-9)
	assert.InDelta(t, 50, latte.CostPct, 1e-9)
	assert.InDelta(t, 1000, latte.TotalQty, 1e-9)
	assert.InDelta(t, 50, latte.AvgMargin, 1e-9)
}

func TestNetworkBranchCount(t *testing.T) {
	svc := newSimService()

	assert.Equal(t, 2, svc.NetworkBranchCount(scenarioItems()))
	assert.Equal(t, 1, svc.NetworkBranchCount(nil))
}

func TestSimulatePriceChange(t *testing.T) {
	svc := newSimService()
	req := models.ScenarioRequest{Type: "price_change", Product: "LATTE", NewPrice: 120, Branch: "all"}

	out, err := svc.SimulateScenario(scenarioItems(), req)
	require.NoError(t, err)
	res, ok := out.(models.PriceChangeResult)
	require.True(t, ok)

	assert.Equal(t, "All branches", res.Branch)
	assert.InDelta(t, 100, res.CurrentPrice, 1e-9)
	assert.InDelta(t, 50, res.UnitCost, 1e-9)
	assert.Equal(t, int64(1000), res.Qty)
	assert.Equal(t, int64(50000), res.OldProfit)
	assert.Equal(t, int64(70000), res.NewProfit)
	assert.Equal(t, int64(20000), res.DeltaProfit)
	assert.Equal(t, "gain", res.DeltaDirection)
	assert.Equal(t, int64(240000), res.AnnualisedDelta)
	assert.InDelta(t, 58.3, res.NewMargin, 1e-9)
	assert.Equal(t, int64(62000), res.BaselineProfit)
	assert.Equal(t, int64(82000), res.NewTotalProfit)
	assert.False(t, res.BelowCost)
	assert.Empty(t, res.Warning)
}

func TestSimulatePriceChangeBranchScoped(t *testing.T) {
	svc := newSimService()
	req := models.ScenarioRequest{Type: "price_change", Product: "LATTE", NewPrice: 120, Branch: "B1"}

	out, err := svc.SimulateScenario(scenarioItems(), req)
	require.NoError(t, err)
	res := out.(models.PriceChangeResult)

	// Network qty split evenly across the 2 branches.
	assert.Equal(t, "B1", res.Branch)
	assert.Equal(t, int64(500), res.Qty)
	assert.Equal(t, int64(10000), res.DeltaProfit)
}

func TestSimulatePriceChangeBelowCost(t *testing.T) {
	svc := newSimService()
	req := models.ScenarioRequest{Type: "price_change", Product: "LATTE", NewPrice: 40, Branch: "all"}

	out, err := svc.SimulateScenario(scenarioItems(), req)
	require.NoError(t, err)
	res := out.(models.PriceChangeResult)

	assert.True(t, res.BelowCost)
	assert.NotEmpty(t, res.Warning)
	assert.Equal(t, "loss", res.DeltaDirection)
}

func TestSimulatePriceChangeUnknownProduct(t *testing.T) {
	svc := newSimService()
	req := models.ScenarioRequest{Type: "price_change", Product: "NOPE", NewPrice: 100}

	_, err := svc.SimulateScenario(scenarioItems(), req)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Product not found", verr.Message)
}

func TestSimulateBundle(t *testing.T) {
	svc := newSimService()
	req := models.ScenarioRequest{
		Type: "bundle",
		Items: []models.BundleItemInput{
			{Product: "MUFFIN", Qty: 1},
			{Product: "BAGEL", Qty: 1},
		},
		BundlePrice: 150,
	}

	out, err := svc.SimulateScenario(scenarioItems(), req)
	require.NoError(t, err)
	res, ok := out.(models.BundleResult)
	require.True(t, ok)

	require.Len(t, res.Items, 2)
	// MUFFIN unit 100 cost 30, BAGEL unit 100 cost 50.
	assert.InDelta(t, 200, res.TotalIndividualRRP, 1e-9)
	assert.InDelta(t, 80, res.TotalBundleCost, 1e-9)
	assert.InDelta(t, 25, res.DiscountOffRRP, 1e-9)
	assert.InDelta(t, 10, res.DailySales, 1e-9)
	assert.False(t, res.BelowCost)
}

func TestSimulateBundleBelowCost(t *testing.T) {
	svc := newSimService()
	req := models.ScenarioRequest{
		Type: "bundle",
		Items: []models.BundleItemInput{
			{Product: "MUFFIN", Qty: 1},
			{Product: "BAGEL", Qty: 1},
		},
		BundlePrice: 60,
	}

	out, err := svc.SimulateScenario(scenarioItems(), req)
	require.NoError(t, err)
	res := out.(models.BundleResult)

	assert.True(t, res.BelowCost)
	assert.NotEmpty(t, res.Warning)
	assert.Equal(t, "loss", res.DeltaDirection)
}

func TestSimulateBundleSkipsUnknownItems(t *testing.T) {
	svc := newSimService()
	req := models.ScenarioRequest{
		Type: "bundle",
		Items: []models.BundleItemInput{
			{Product: "MUFFIN", Qty: 1},
			{Product: "UNKNOWN", Qty: 1},
		},
		BundlePrice: 120,
	}

	out, err := svc.SimulateScenario(scenarioItems(), req)
	require.NoError(t, err)
	res := out.(models.BundleResult)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "MUFFIN", res.Items[0].Product)
}

func TestSimulateBundleValidation(t *testing.T) {
	svc := newSimService()

	_, err := svc.SimulateScenario(scenarioItems(), models.ScenarioRequest{Type: "bundle"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "No items provided", verr.Message)

	req := models.ScenarioRequest{
		Type:        "bundle",
		Items:       []models.BundleItemInput{{Product: "NOPE", Qty: 1}},
		BundlePrice: 100,
	}
	_, err = svc.SimulateScenario(scenarioItems(), req)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "No valid products found", verr.Message)
}

func TestSimulateSale(t *testing.T) {
	svc := newSimService()
	req := models.ScenarioRequest{Type: "sale", Product: "LATTE", DiscountPct: 20, VolumeBoost: 30, Branch: "all"}

	out, err := svc.SimulateScenario(scenarioItems(), req)
	require.NoError(t, err)
	res, ok := out.(models.SaleResult)
	require.True(t, ok)

	assert.InDelta(t, 80, res.SalePrice, 1e-9)
	assert.Equal(t, int64(1000), res.BaseQty)
	assert.Equal(t, int64(1300), res.BoostedQty)
	assert.Equal(t, int64(50000), res.OldProfit)
	assert.Equal(t, int64(39000), res.NewProfit)
	assert.Equal(t, int64(-11000), res.DeltaProfit)
	assert.Equal(t, "loss", res.DeltaDirection)
	assert.InDelta(t, 37.5, res.NewMarginPct, 1e-9)
	assert.InDelta(t, 66.7, res.BreakEvenVolumeBoostNeeded, 1e-9)
	assert.False(t, res.BelowCost)
}

func TestSimulateSaleBelowCost(t *testing.T) {
	svc := newSimService()
	req := models.ScenarioRequest{Type: "sale", Product: "LATTE", DiscountPct: 80, Branch: "all"}

	out, err := svc.SimulateScenario(scenarioItems(), req)
	require.NoError(t, err)
	res := out.(models.SaleResult)

	assert.InDelta(t, 20, res.SalePrice, 1e-9)
	assert.True(t, res.BelowCost)
	assert.NotEmpty(t, res.Warning)
}

func TestSimulateSaleDeepDiscountWarnsOnMarginDrop(t *testing.T) {
	svc := newSimService()
	// Sale price 60, margin 10 LBP vs full-price margin 50: under the 30% floor.
	req := models.ScenarioRequest{Type: "sale", Product: "LATTE", DiscountPct: 40, Branch: "all"}

	out, err := svc.SimulateScenario(scenarioItems(), req)
	require.NoError(t, err)
	res := out.(models.SaleResult)

	assert.False(t, res.BelowCost)
	assert.NotEmpty(t, res.Warning)
}

func TestSimulateScenarioUnknownType(t *testing.T) {
	svc := newSimService()

	_, err := svc.SimulateScenario(scenarioItems(), models.ScenarioRequest{Type: "merger"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Unknown scenario type. Use price_change, bundle, or sale.", verr.Message)
}
