package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the business-tuned constants of the recommendation and simulation
// pipelines. The defaults are the empirically chosen values from the operations team;
// a YAML file can override any of them without a rebuild.
type Tuning struct {
	// Recommendation rules
	PromoteCaptureRate   float64 `yaml:"promote_capture_rate"`
	PromoteTopN          int     `yaml:"promote_top_n"`
	ExpandRolloutFactor  float64 `yaml:"expand_rollout_factor"`
	ExpandMarginCutoff   float64 `yaml:"expand_margin_cutoff"`
	ExpandTopN           int     `yaml:"expand_top_n"`
	EliminateRecoverRate float64 `yaml:"eliminate_recover_rate"`
	EliminateMinQty      float64 `yaml:"eliminate_min_qty"`
	EliminateTopN        int     `yaml:"eliminate_top_n"`
	RepriceIncreasePct   float64 `yaml:"reprice_increase_pct"`
	RepriceMarginCutoff  float64 `yaml:"reprice_margin_cutoff"`
	RepriceTopN          int     `yaml:"reprice_top_n"`
	BundleCaptureRate    float64 `yaml:"bundle_capture_rate"`
	BranchGapMinPP       float64 `yaml:"branch_gap_min_pp"`
	BranchGapCloseRate   float64 `yaml:"branch_gap_close_rate"`

	// Read-only opportunity views
	OpportunityMarginCutoff float64 `yaml:"opportunity_margin_cutoff"`

	// Lever simulator: segment definitions and conversion factors
	HotBarDivision     string   `yaml:"hot_bar_division"`
	CinnamonDivision   string   `yaml:"cinnamon_division"`
	GrabGoDivision     string   `yaml:"grab_go_division"`
	ToppingProducts    []string `yaml:"topping_products"`
	HotBarConversion   float64  `yaml:"hot_bar_conversion"`
	CinnamonConversion float64  `yaml:"cinnamon_conversion"`
	GrabGoConversion   float64  `yaml:"grab_go_conversion"`
	ToppingConversion  float64  `yaml:"topping_conversion"`
	ConfidenceBase     int      `yaml:"confidence_base"`
}

// DefaultTuning returns the production defaults.
func DefaultTuning() *Tuning {
	return &Tuning{
		PromoteCaptureRate:   0.12,
		PromoteTopN:          3,
		ExpandRolloutFactor:  0.7,
		ExpandMarginCutoff:   60,
		ExpandTopN:           2,
		EliminateRecoverRate: 0.75,
		EliminateMinQty:      100,
		EliminateTopN:        3,
		RepriceIncreasePct:   0.03,
		RepriceMarginCutoff:  50,
		RepriceTopN:          2,
		BundleCaptureRate:    0.05,
		BranchGapMinPP:       5,
		BranchGapCloseRate:   0.4,

		OpportunityMarginCutoff: 60,

		HotBarDivision:   "HOT BAR SECTION",
		CinnamonDivision: "CINNAMON ROLLS",
		GrabGoDivision:   "GRAB&GO BEVERAGES",
		ToppingProducts: []string{
			"BLUEBERRIES COMBO", "STRAWBERRY COMBO", "MANGO COMBO", "PINEAPPLE COMBO",
			"BROWNIES COMBO", "LOTUS BISCUIT COMBO", "CHOCOLATE CHIPS COMBO", "OREO COMBO",
			"MARSHMALLOW COMBO", "GUMMY BEARS COMBO", "WAFER ROLL COMBO",
		},
		HotBarConversion:   0.18,
		CinnamonConversion: 0.30,
		GrabGoConversion:   0.22,
		ToppingConversion:  1.00,
		ConfidenceBase:     76,
	}
}

// LoadTuning returns the defaults overlaid with the YAML file at path, if given.
func LoadTuning(path string) (*Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("parse tuning file: %w", err)
	}
	return t, nil
}
