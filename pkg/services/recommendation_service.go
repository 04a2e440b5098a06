package services

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	config "stories-profit-api/configs"
	"stories-profit-api/pkg/models"

	"github.com/google/uuid"
)

// RecommendationService applies the fixed set of business rules over classified
// and aggregated sales data to produce a ranked list of actionable records.
// Every rule is evaluated against the input item set it is given, so branch
// scoping has to happen before assembly: branch-scoped recommendations use
// branch-local medians and rollups.
type RecommendationService struct {
	agg    *AggregationService
	tuning *config.Tuning
}

// NewRecommendationService creates a new RecommendationService.
func NewRecommendationService(agg *AggregationService, tuning *config.Tuning) *RecommendationService {
	return &RecommendationService{agg: agg, tuning: tuning}
}

// fmtLBP renders an LBP amount compactly (1.2M LBP, 340K LBP, 512 LBP).
func fmtLBP(n float64) string {
	abs := math.Abs(n)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM LBP", n/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.0fK LBP", n/1_000)
	default:
		return fmt.Sprintf("%d LBP", int64(math.Round(n)))
	}
}

// fmtQty renders a quantity with thousands separators.
func fmtQty(n float64) string {
	v := int64(math.Round(n))
	s := strconv.FormatInt(v, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}

// shortBranch trims the chain prefix off a branch name for display.
func shortBranch(b string) string {
	b = strings.ReplaceAll(b, "Stories - ", "")
	b = strings.ReplaceAll(b, "Stories ", "")
	b = strings.ReplaceAll(b, "Stories.", "HQ")
	return strings.TrimSpace(b)
}

func roundImpact(v float64) int64 {
	return int64(math.Round(v))
}

// Build produces the ordered recommendation list for the given item rows.
// networkBranches is the branch count of the whole network (not of the
// possibly branch-filtered input), used for rollout projections.
func (s *RecommendationService) Build(items []models.SaleItemRecord, networkBranches int) []models.Recommendation {
	products := s.agg.AggregateProducts(items)
	classified, _, _ := s.agg.Classify(products)

	var totalProfit float64
	for _, p := range products {
		totalProfit += p.TotalProfit
	}

	recs := make([]models.Recommendation, 0, 12)
	recs = append(recs, s.promoteStars(classified, totalProfit)...)
	recs = append(recs, s.expandPuzzles(classified, networkBranches)...)
	recs = append(recs, s.bundleCategories(items, totalProfit)...)
	recs = append(recs, s.repricePlowhorses(classified)...)
	recs = append(recs, s.eliminateDogs(classified)...)
	recs = append(recs, s.branchGap(items)...)

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].EstimatedImpact > recs[j].EstimatedImpact
	})
	return recs
}

// promoteStars: high-profit high-volume products worth pushing harder.
func (s *RecommendationService) promoteStars(classified []models.ClassifiedProduct, totalProfit float64) []models.Recommendation {
	picks := filterSort(classified,
		func(p models.ClassifiedProduct) bool {
			return p.MenuClass == models.MenuClassStar && p.TotalProfit > 0
		},
		func(a, b models.ClassifiedProduct) bool { return a.TotalProfit > b.TotalProfit },
		s.tuning.PromoteTopN)

	out := make([]models.Recommendation, 0, len(picks))
	for _, p := range picks {
		profitShare := 0.0
		if totalProfit > 0 {
			profitShare = p.TotalProfit / totalProfit * 100
		}
		unitProfit := 0.0
		if p.Qty > 0 {
			unitProfit = p.TotalProfit / p.Qty
		}
		out = append(out, models.Recommendation{
			ID:              uuid.NewString(),
			Type:            models.RecTypePromote,
			Icon:            "🚀",
			Title:           fmt.Sprintf("Promote %s", p.ProductDesc),
			Category:        p.Category,
			Division:        p.Division,
			EstimatedImpact: roundImpact(p.TotalProfit * s.tuning.PromoteCaptureRate),
			Items:           []string{p.ProductDesc},
			Data: map[string]string{
				"product":          p.ProductDesc,
				"division":         p.Division,
				"category":         p.Category,
				"qty":              strconv.Itoa(int(math.Round(p.Qty))),
				"margin_pct":       fmt.Sprintf("%.1f", p.ProfitPct),
				"total_profit":     fmtLBP(p.TotalProfit),
				"profit_share_pct": fmt.Sprintf("%.1f", profitShare),
				"unit_profit":      fmtLBP(unitProfit),
				"n_branches":       strconv.Itoa(p.BranchCount),
			},
			Fallback: fmt.Sprintf(
				"%s is your top earner in %s: %s units sold, %.1f%% margin, %s profit (%.1f%% of total). Each unit generates %s. Feature it in daily specials and upsell at checkout.",
				p.ProductDesc, p.Division, fmtQty(p.Qty), p.ProfitPct, fmtLBP(p.TotalProfit), profitShare, fmtLBP(unitProfit)),
		})
	}
	return out
}

// expandPuzzles: high-margin products active in few branches; size the rollout.
func (s *RecommendationService) expandPuzzles(classified []models.ClassifiedProduct, networkBranches int) []models.Recommendation {
	picks := filterSort(classified,
		func(p models.ClassifiedProduct) bool {
			return p.MenuClass == models.MenuClassPuzzle && p.TotalProfit > 0 && p.ProfitPct > s.tuning.ExpandMarginCutoff
		},
		func(a, b models.ClassifiedProduct) bool { return a.ProfitPct > b.ProfitPct },
		s.tuning.ExpandTopN)

	out := make([]models.Recommendation, 0, len(picks))
	for _, p := range picks {
		potentialBranches := networkBranches - p.BranchCount
		if potentialBranches < 0 {
			potentialBranches = 0
		}
		perBranchProfit := 0.0
		if p.BranchCount > 0 {
			perBranchProfit = p.TotalProfit / float64(p.BranchCount)
		}
		rolloutEstimate := perBranchProfit * float64(potentialBranches) * s.tuning.ExpandRolloutFactor
		out = append(out, models.Recommendation{
			ID:              uuid.NewString(),
			Type:            models.RecTypeExpand,
			Icon:            "📈",
			Title:           fmt.Sprintf("Roll out %s to more branches", p.ProductDesc),
			Category:        p.Category,
			Division:        p.Division,
			EstimatedImpact: roundImpact(rolloutEstimate),
			Items:           []string{p.ProductDesc},
			Data: map[string]string{
				"product":            p.ProductDesc,
				"division":           p.Division,
				"category":           p.Category,
				"margin_pct":         fmt.Sprintf("%.1f", p.ProfitPct),
				"n_branches":         strconv.Itoa(p.BranchCount),
				"per_branch_profit":  fmtLBP(perBranchProfit),
				"potential_branches": strconv.Itoa(potentialBranches),
				"rollout_estimate":   fmtLBP(rolloutEstimate),
			},
			Fallback: fmt.Sprintf(
				"%s earns %.1f%% margin but is only active in %d/%d branches. It generates %s per active branch. Adding it to %d more branches could add %s in profit.",
				p.ProductDesc, p.ProfitPct, p.BranchCount, networkBranches, fmtLBP(perBranchProfit), potentialBranches, fmtLBP(rolloutEstimate)),
		})
	}
	return out
}

// eliminateDogs: high-volume money losers; price up or phase out.
func (s *RecommendationService) eliminateDogs(classified []models.ClassifiedProduct) []models.Recommendation {
	picks := filterSort(classified,
		func(p models.ClassifiedProduct) bool {
			return p.MenuClass == models.MenuClassDog && p.TotalProfit < 0 && p.Qty > s.tuning.EliminateMinQty
		},
		func(a, b models.ClassifiedProduct) bool { return a.TotalProfit < b.TotalProfit },
		s.tuning.EliminateTopN)

	out := make([]models.Recommendation, 0, len(picks))
	for _, p := range picks {
		lossPerUnit := 0.0
		if p.Qty > 0 {
			lossPerUnit = math.Abs(p.TotalProfit) / p.Qty
		}
		costPct := 0.0
		if p.TotalPrice > 0 {
			costPct = p.TotalCost / p.TotalPrice * 100
		}
		out = append(out, models.Recommendation{
			ID:              uuid.NewString(),
			Type:            models.RecTypeEliminate,
			Icon:            "⚠️",
			Title:           fmt.Sprintf("Address loss on %s", p.ProductDesc),
			Category:        p.Category,
			Division:        p.Division,
			EstimatedImpact: roundImpact(math.Abs(p.TotalProfit) * s.tuning.EliminateRecoverRate),
			Items:           []string{p.ProductDesc},
			Data: map[string]string{
				"product":       p.ProductDesc,
				"division":      p.Division,
				"category":      p.Category,
				"qty":           strconv.Itoa(int(math.Round(p.Qty))),
				"total_loss":    fmtLBP(math.Abs(p.TotalProfit)),
				"loss_per_unit": fmtLBP(lossPerUnit),
				"cost_pct":      fmt.Sprintf("%.0f", costPct),
			},
			Fallback: fmt.Sprintf(
				"%s is losing money: %s units sold but %s lost in total, %s per unit. Cost is %.0f%% of revenue. Raise the price or phase it out.",
				p.ProductDesc, fmtQty(p.Qty), fmtLBP(math.Abs(p.TotalProfit)), fmtLBP(lossPerUnit), costPct),
		})
	}
	return out
}

// repricePlowhorses: high-volume low-margin products that absorb a small raise.
func (s *RecommendationService) repricePlowhorses(classified []models.ClassifiedProduct) []models.Recommendation {
	picks := filterSort(classified,
		func(p models.ClassifiedProduct) bool {
			return p.MenuClass == models.MenuClassPlowhorse && p.TotalProfit > 0 && p.ProfitPct < s.tuning.RepriceMarginCutoff
		},
		func(a, b models.ClassifiedProduct) bool { return a.Qty > b.Qty },
		s.tuning.RepriceTopN)

	out := make([]models.Recommendation, 0, len(picks))
	for _, p := range picks {
		unitPrice := 0.0
		if p.Qty > 0 {
			unitPrice = p.TotalPrice / p.Qty
		}
		raisePct := s.tuning.RepriceIncreasePct
		priceGain := p.TotalPrice * raisePct * (p.ProfitPct/100 + raisePct)
		out = append(out, models.Recommendation{
			ID:              uuid.NewString(),
			Type:            models.RecTypeReprice,
			Icon:            "💰",
			Title:           fmt.Sprintf("Raise price of %s", p.ProductDesc),
			Category:        p.Category,
			Division:        p.Division,
			EstimatedImpact: roundImpact(p.TotalPrice * raisePct),
			Items:           []string{p.ProductDesc},
			Data: map[string]string{
				"product":         p.ProductDesc,
				"division":        p.Division,
				"category":        p.Category,
				"qty":             strconv.Itoa(int(math.Round(p.Qty))),
				"margin_pct":      fmt.Sprintf("%.1f", p.ProfitPct),
				"unit_price":      fmtLBP(unitPrice),
				"price_3pct_gain": fmtLBP(priceGain),
			},
			Fallback: fmt.Sprintf(
				"%s sells %s units at %s each but earns only %.1f%% margin. A %.0f%% price increase would recover %s with minimal customer impact.",
				p.ProductDesc, fmtQty(p.Qty), fmtLBP(unitPrice), p.ProfitPct, raisePct*100, fmtLBP(priceGain)),
		})
	}
	return out
}

// bundleCategories: pair the most profitable category with the least profitable
// one in combo deals.
func (s *RecommendationService) bundleCategories(items []models.SaleItemRecord, totalProfit float64) []models.Recommendation {
	cats := s.agg.AggregateCategories(items)
	profitable := cats[:0:0]
	for _, c := range cats {
		if c.TotalProfit > 0 {
			profitable = append(profitable, c)
		}
	}
	if len(profitable) < 2 {
		return nil
	}
	sort.SliceStable(profitable, func(i, j int) bool {
		return profitable[i].TotalProfit > profitable[j].TotalProfit
	})
	top := profitable[0]
	bot := profitable[len(profitable)-1]

	topShare := 0.0
	if totalProfit > 0 {
		topShare = top.TotalProfit / totalProfit * 100
	}
	return []models.Recommendation{{
		ID:              uuid.NewString(),
		Type:            models.RecTypeBundle,
		Icon:            "📦",
		Title:           fmt.Sprintf("Bundle %s with low-margin items", top.Category),
		Category:        top.Category,
		EstimatedImpact: roundImpact(top.TotalProfit * s.tuning.BundleCaptureRate),
		Items:           []string{},
		Data: map[string]string{
			"top_category":   top.Category,
			"top_profit":     fmtLBP(top.TotalProfit),
			"top_margin_pct": fmt.Sprintf("%.1f", top.MarginPct),
			"top_share_pct":  fmt.Sprintf("%.1f", topShare),
			"low_category":   bot.Category,
			"low_margin_pct": fmt.Sprintf("%.1f", bot.MarginPct),
		},
		Fallback: fmt.Sprintf(
			"%s accounts for %.1f%% of total profit (%s, %.1f%% margin). Pairing it in combo deals with %s (%.1f%% margin) lifts average ticket while keeping bundle margins healthy.",
			top.Category, topShare, fmtLBP(top.TotalProfit), top.MarginPct, bot.Category, bot.MarginPct),
	}}
}

// branchGap: if the best and worst branch margins diverge enough, sizing the
// remediation on the worst branch's revenue.
func (s *RecommendationService) branchGap(items []models.SaleItemRecord) []models.Recommendation {
	branches := s.agg.AggregateBranches(items)
	profitable := branches[:0:0]
	for _, b := range branches {
		if b.TotalProfit > 0 {
			profitable = append(profitable, b)
		}
	}
	if len(profitable) < 3 {
		return nil
	}
	sort.SliceStable(profitable, func(i, j int) bool {
		return profitable[i].MarginPct > profitable[j].MarginPct
	})
	best := profitable[0]
	worst := profitable[len(profitable)-1]
	gap := best.MarginPct - worst.MarginPct
	if gap <= s.tuning.BranchGapMinPP {
		return nil
	}
	gapValueLBP := worst.TotalPrice * (gap / 100)
	return []models.Recommendation{{
		ID:              uuid.NewString(),
		Type:            models.RecTypeExpand,
		Icon:            "🏪",
		Title:           fmt.Sprintf("Close margin gap: %s vs %s", shortBranch(worst.Branch), shortBranch(best.Branch)),
		Category:        "Branch Performance",
		EstimatedImpact: roundImpact(gapValueLBP * s.tuning.BranchGapCloseRate),
		Items:           []string{worst.Branch},
		Data: map[string]string{
			"best_branch":   shortBranch(best.Branch),
			"best_margin":   fmt.Sprintf("%.1f", best.MarginPct),
			"worst_branch":  shortBranch(worst.Branch),
			"worst_margin":  fmt.Sprintf("%.1f", worst.MarginPct),
			"gap_pp":        fmt.Sprintf("%.1f", gap),
			"worst_revenue": fmtLBP(worst.TotalPrice),
			"gap_value":     fmtLBP(gapValueLBP),
		},
		Fallback: fmt.Sprintf(
			"%s runs at %.1f%% margin vs %s at %.1f%%, a %.1fpp gap. Closing half that gap on %s's revenue would recover %s. Review product mix, pricing, and waste.",
			shortBranch(best.Branch), best.MarginPct, shortBranch(worst.Branch), worst.MarginPct, gap, shortBranch(worst.Branch), fmtLBP(gapValueLBP*0.5)),
	}}
}

// PromoteOpportunities returns the read-only view of high-margin profitable
// products, classified against the medians of the filtered set.
func (s *RecommendationService) PromoteOpportunities(items []models.SaleItemRecord, limit int) []models.ClassifiedProduct {
	rows := make([]models.SaleItemRecord, 0, len(items))
	for _, r := range items {
		if r.TotalProfit > 0 {
			rows = append(rows, r)
		}
	}
	products := s.agg.AggregateProducts(rows)
	classified, _, _ := s.agg.Classify(products)

	picked := make([]models.ClassifiedProduct, 0, len(classified))
	for _, p := range classified {
		if p.ProfitPct > s.tuning.OpportunityMarginCutoff {
			picked = append(picked, p)
		}
	}
	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].TotalProfit > picked[j].TotalProfit
	})
	if limit > 0 && len(picked) > limit {
		picked = picked[:limit]
	}
	return picked
}

// ProfitTraps returns the read-only view of money-losing products, worst first.
func (s *RecommendationService) ProfitTraps(items []models.SaleItemRecord, limit int) []models.ProductAggregate {
	rows := make([]models.SaleItemRecord, 0, len(items))
	for _, r := range items {
		if r.TotalProfit < 0 {
			rows = append(rows, r)
		}
	}
	products := s.agg.AggregateProducts(rows)
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].TotalProfit < products[j].TotalProfit
	})
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	return products
}

// filterSort picks the rows matching keep, orders them by less, and caps at n.
func filterSort(classified []models.ClassifiedProduct, keep func(models.ClassifiedProduct) bool, less func(a, b models.ClassifiedProduct) bool, n int) []models.ClassifiedProduct {
	picked := make([]models.ClassifiedProduct, 0, len(classified))
	for _, p := range classified {
		if keep(p) {
			picked = append(picked, p)
		}
	}
	sort.SliceStable(picked, func(i, j int) bool { return less(picked[i], picked[j]) })
	if n > 0 && len(picked) > n {
		picked = picked[:n]
	}
	return picked
}
