package models

// Row type discriminators used by the flat extracts. Only item rows take part in
// product aggregation; branch_total and category rows are pre-rolled subtotals.
const (
	RowTypeItem        = "item"
	RowTypeCategory    = "category"
	RowTypeBranchTotal = "branch_total"
	RowTypeBranch      = "branch"
)

// Menu engineering quadrants (profit x volume, relative to medians).
const (
	MenuClassStar      = "star"
	MenuClassPuzzle    = "puzzle"
	MenuClassPlowhorse = "plowhorse"
	MenuClassDog       = "dog"
)

// Recommendation types produced by the assembler.
const (
	RecTypePromote   = "promote"
	RecTypeExpand    = "expand"
	RecTypeBundle    = "bundle"
	RecTypeReprice   = "reprice"
	RecTypeEliminate = "eliminate"
)

// SaleItemRecord is one row of the item-level profit extract.
type SaleItemRecord struct {
	RowType     string  `json:"row_type"`
	ProductDesc string  `json:"product_desc"`
	Category    string  `json:"category"`
	Division    string  `json:"division"`
	Branch      string  `json:"branch"`
	Qty         float64 `json:"qty"`
	TotalPrice  float64 `json:"total_price"`
	TotalCost   float64 `json:"total_cost"`
	TotalProfit float64 `json:"total_profit"`
}

// CategoryRecord is one row of the category-level profit extract.
type CategoryRecord struct {
	RowType     string  `json:"row_type"`
	Branch      string  `json:"branch"`
	Category    string  `json:"category"`
	Qty         float64 `json:"qty"`
	TotalPrice  float64 `json:"total_price"`
	TotalCost   float64 `json:"total_cost"`
	TotalProfit float64 `json:"total_profit"`
}

// MonthlyRecord is one row of the long-format monthly sales extract.
type MonthlyRecord struct {
	RowType     string  `json:"row_type"`
	Branch      string  `json:"branch"`
	Period      string  `json:"period"`
	PeriodType  string  `json:"period_type"`
	Year        int     `json:"year"`
	MonthNumber int     `json:"month_number"`
	SalesAmount float64 `json:"sales_amount"`
}

// MonthlyWideRecord is one row of the wide-format monthly sales extract:
// one row per branch/year with a column per month.
type MonthlyWideRecord struct {
	RowType     string             `json:"row_type"`
	Branch      string             `json:"branch"`
	Year        int                `json:"year"`
	Months      map[string]float64 `json:"months"`
	TotalByYear float64            `json:"total_by_year"`
}

// GroupRecord is one row of the product-group sales extract.
type GroupRecord struct {
	RowType     string  `json:"row_type"`
	Branch      string  `json:"branch"`
	Group       string  `json:"group"`
	Division    string  `json:"division"`
	Description string  `json:"description"`
	Qty         float64 `json:"qty"`
	TotalAmount float64 `json:"total_amount"`
}

// ProductAggregate folds all contributing item rows of one product.
// BranchCount is the number of distinct branches the product appears in,
// not the number of rows.
type ProductAggregate struct {
	ProductDesc string  `json:"product_desc"`
	Category    string  `json:"category"`
	Division    string  `json:"division"`
	Qty         float64 `json:"qty"`
	TotalPrice  float64 `json:"total_price"`
	TotalCost   float64 `json:"total_cost"`
	TotalProfit float64 `json:"total_profit"`
	BranchCount int     `json:"n_branches"`
	ProfitPct   float64 `json:"total_profit_pct"`
}

// ClassifiedProduct is a ProductAggregate with its menu-matrix quadrant.
type ClassifiedProduct struct {
	ProductAggregate
	MenuClass string `json:"menu_class"`
}

// BranchAggregate folds all rows of one branch.
type BranchAggregate struct {
	Branch      string  `json:"branch"`
	TotalProfit float64 `json:"total_profit"`
	TotalPrice  float64 `json:"total_price"`
	MarginPct   float64 `json:"margin_pct"`
}

// CategoryAggregate folds all rows of one category.
type CategoryAggregate struct {
	Category    string  `json:"category"`
	TotalProfit float64 `json:"total_profit"`
	TotalPrice  float64 `json:"total_price"`
	MarginPct   float64 `json:"margin_pct"`
}

// Recommendation is one ranked, actionable insight. Data carries the structured
// numeric facts used for display and as grounding for description generation;
// Fallback is the deterministic description that is always computable. Neither
// is serialized in API responses.
type Recommendation struct {
	ID              string            `json:"id"`
	Type            string            `json:"type"`
	Icon            string            `json:"icon"`
	Title           string            `json:"title"`
	Category        string            `json:"category,omitempty"`
	Division        string            `json:"division,omitempty"`
	EstimatedImpact int64             `json:"estimated_impact"`
	Items           []string          `json:"items"`
	Data            map[string]string `json:"-"`
	Fallback        string            `json:"-"`
	Description     string            `json:"description"`
}

// CatalogProduct is one entry of the scenario simulator's product catalog,
// derived from the item extract across all branches.
type CatalogProduct struct {
	ProductDesc string  `json:"product_desc"`
	Category    string  `json:"category"`
	Division    string  `json:"division"`
	UnitPrice   float64 `json:"unit_price"`
	CostPct     float64 `json:"cost_pct"`
	TotalQty    float64 `json:"total_qty"`
	AvgMargin   float64 `json:"avg_margin"`
}

// SimulationRequest carries the four lever percentages (each 0-100).
type SimulationRequest struct {
	HotBarUpsell      float64 `json:"hotBarUpsell"`
	CinnamonRollPush  float64 `json:"cinnamonRollPush"`
	GrabGoAttach      float64 `json:"grabGoAttach"`
	ToppingCostReduce float64 `json:"toppingCostReduce"`
}

// LeverImpact is one line of the lever simulator breakdown.
type LeverImpact struct {
	Lever  string  `json:"lever"`
	Impact int64   `json:"impact"`
	Pct    float64 `json:"pct"`
}

// SegmentPools reports the profit/cost pools backing each lever.
type SegmentPools struct {
	HotBarProfit       int64 `json:"hotBarProfit"`
	CinnamonRollProfit int64 `json:"cinnamonRollProfit"`
	GrabGoProfit       int64 `json:"grabGoProfit"`
	ToppingCostPool    int64 `json:"toppingCostPool"`
}

// SimulationResult is the lever simulator response.
type SimulationResult struct {
	EstimatedUplift int64         `json:"estimatedUplift"`
	UpliftPct       float64       `json:"upliftPct"`
	CurrentProfit   int64         `json:"currentProfit"`
	ProjectedProfit int64         `json:"projectedProfit"`
	Confidence      int           `json:"confidence"`
	MaxImpact       int64         `json:"maxImpact"`
	Breakdown       []LeverImpact `json:"breakdown"`
	Segments        SegmentPools  `json:"segments"`
}

// BundleItemInput is one entry of a bundle scenario request.
type BundleItemInput struct {
	Product string  `json:"product"`
	Qty     float64 `json:"qty"`
}

// PriceChangeResult is the price_change scenario response.
type PriceChangeResult struct {
	Scenario          string  `json:"scenario"`
	Product           string  `json:"product"`
	Branch            string  `json:"branch"`
	CurrentPrice      float64 `json:"currentPrice"`
	NewPrice          float64 `json:"newPrice"`
	CurrentMargin     float64 `json:"currentMargin"`
	NewMargin         float64 `json:"newMargin"`
	UnitCost          float64 `json:"unitCost"`
	Qty               int64   `json:"qty"`
	OldProfit         int64   `json:"oldProfit"`
	NewProfit         int64   `json:"newProfit"`
	DeltaProfit       int64   `json:"deltaProfit"`
	DeltaDirection    string  `json:"deltaDirection"`
	AnnualisedDelta   int64   `json:"annualisedDelta"`
	BaselineProfit    int64   `json:"baselineProfit"`
	NewTotalProfit    int64   `json:"newTotalProfit"`
	NewTotalMarginPct float64 `json:"newTotalMarginPct"`
	BelowCost         bool    `json:"belowCost"`
	Warning           string  `json:"warning,omitempty"`
}

// BundleItem is one priced-out entry of a bundle scenario response.
type BundleItem struct {
	Product   string  `json:"product"`
	Qty       float64 `json:"qty"`
	UnitPrice float64 `json:"unitPrice"`
	UnitCost  float64 `json:"unitCost"`
	Division  string  `json:"division"`
	Category  string  `json:"category"`
}

// BundleResult is the bundle scenario response.
type BundleResult struct {
	Scenario                string       `json:"scenario"`
	Branch                  string       `json:"branch"`
	Items                   []BundleItem `json:"items"`
	BundlePrice             float64      `json:"bundlePrice"`
	TotalIndividualRRP      float64      `json:"totalIndividualRRP"`
	TotalBundleCost         float64      `json:"totalBundleCost"`
	BundleMarginPct         float64      `json:"bundleMarginPct"`
	DiscountOffRRP          float64      `json:"discountOffRRP"`
	DailySales              float64      `json:"dailySales"`
	MonthlyBundleProfit     int64        `json:"monthlyBundleProfit"`
	MonthlyIndividualProfit int64        `json:"monthlyIndividualProfit"`
	DeltaMonthlyProfit      int64        `json:"deltaMonthlyProfit"`
	DeltaDirection          string       `json:"deltaDirection"`
	AnnualisedDelta         int64        `json:"annualisedDelta"`
	BelowCost               bool         `json:"belowCost"`
	Warning                 string       `json:"warning,omitempty"`
}

// SaleResult is the sale/discount scenario response.
type SaleResult struct {
	Scenario                   string  `json:"scenario"`
	Product                    string  `json:"product"`
	Branch                     string  `json:"branch"`
	CurrentPrice               float64 `json:"currentPrice"`
	SalePrice                  float64 `json:"salePrice"`
	DiscountPct                float64 `json:"discountPct"`
	UnitCost                   float64 `json:"unitCost"`
	CurrentMarginPct           float64 `json:"currentMarginPct"`
	NewMarginPct               float64 `json:"newMarginPct"`
	BaseQty                    int64   `json:"baseQty"`
	BoostedQty                 int64   `json:"boostedQty"`
	VolumeBoostPct             float64 `json:"volumeBoostPct"`
	OldProfit                  int64   `json:"oldProfit"`
	NewProfit                  int64   `json:"newProfit"`
	DeltaProfit                int64   `json:"deltaProfit"`
	DeltaDirection             string  `json:"deltaDirection"`
	AnnualisedDelta            int64   `json:"annualisedDelta"`
	BreakEvenVolumeBoostNeeded float64 `json:"breakEvenVolumeBoostNeeded"`
	BaselineProfit             int64   `json:"baselineProfit"`
	NewTotalProfit             int64   `json:"newTotalProfit"`
	BelowCost                  bool    `json:"belowCost"`
	Warning                    string  `json:"warning,omitempty"`
}

// ScenarioRequest is the polymorphic what-if request body.
type ScenarioRequest struct {
	Type               string            `json:"type"`
	Product            string            `json:"product"`
	Branch             string            `json:"branch"`
	NewPrice           float64           `json:"newPrice"`
	Items              []BundleItemInput `json:"items"`
	BundlePrice        float64           `json:"bundlePrice"`
	ExpectedDailySales float64           `json:"expectedDailySales"`
	DiscountPct        float64           `json:"discountPct"`
	VolumeBoost        float64           `json:"volumeBoost"`
}
