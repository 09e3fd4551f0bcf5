package enumerate

import (
	"fmt"
	"time"

	"ytanalyzer/internal/youtube"
)

// Tuning holds the empirically chosen thresholds and ceilings that shape the
// strategies. DefaultTuning returns the values the tool ships with.
type Tuning struct {
	// Declared-count thresholds for Smart.
	SmallChannel  int64 `json:"small_channel" yaml:"small_channel"`
	MediumChannel int64 `json:"medium_channel" yaml:"medium_channel"`

	// Declared counts above which a warning is emitted before the run.
	LargeChannelWarning int64 `json:"large_channel_warning" yaml:"large_channel_warning"`
	HugeChannelWarning  int64 `json:"huge_channel_warning" yaml:"huge_channel_warning"`

	// Listing page ceilings.
	FastListingPages        int `json:"fast_listing_pages" yaml:"fast_listing_pages"`
	SmartSmallListingPages  int `json:"smart_small_listing_pages" yaml:"smart_small_listing_pages"`
	SmartMediumListingPages int `json:"smart_medium_listing_pages" yaml:"smart_medium_listing_pages"`
	SmartLargeListingPages  int `json:"smart_large_listing_pages" yaml:"smart_large_listing_pages"`
	CompleteListingPages    int `json:"complete_listing_pages" yaml:"complete_listing_pages"`

	// Yield ratios below which the search phases run.
	SmartMediumSearchBelow float64 `json:"smart_medium_search_below" yaml:"smart_medium_search_below"`
	SmartLargeSearchBelow  float64 `json:"smart_large_search_below" yaml:"smart_large_search_below"`
	CompleteSearchBelow    float64 `json:"complete_search_below" yaml:"complete_search_below"`

	// Generic search used by Smart on medium channels.
	GenericSearchMaxResults int `json:"generic_search_max_results" yaml:"generic_search_max_results"`

	// Optimized multi-facet search used by Smart on large channels.
	OptimizedYears      int             `json:"optimized_years" yaml:"optimized_years"`
	OptimizedYearFloor  int             `json:"optimized_year_floor" yaml:"optimized_year_floor"`
	OptimizedYearPages  int             `json:"optimized_year_pages" yaml:"optimized_year_pages"`
	OptimizedYearRatio  float64         `json:"optimized_year_ratio" yaml:"optimized_year_ratio"`
	OptimizedYearCap    int             `json:"optimized_year_cap" yaml:"optimized_year_cap"`
	OptimizedOrders     []youtube.Order `json:"optimized_orders" yaml:"optimized_orders"`
	OptimizedOrderPages int             `json:"optimized_order_pages" yaml:"optimized_order_pages"`
	OptimizedOrderRatio float64         `json:"optimized_order_ratio" yaml:"optimized_order_ratio"`
	OptimizedOrderCap   int             `json:"optimized_order_cap" yaml:"optimized_order_cap"`

	// Comprehensive multi-facet search used by Complete.
	ComprehensiveEpoch      int             `json:"comprehensive_epoch" yaml:"comprehensive_epoch"`
	ComprehensiveYearPages  int             `json:"comprehensive_year_pages" yaml:"comprehensive_year_pages"`
	ComprehensiveOrders     []youtube.Order `json:"comprehensive_orders" yaml:"comprehensive_orders"`
	ComprehensiveOrderPages int             `json:"comprehensive_order_pages" yaml:"comprehensive_order_pages"`
	OrderRerunAbove         int             `json:"order_rerun_above" yaml:"order_rerun_above"`
	MonthlyYears            int             `json:"monthly_years" yaml:"monthly_years"`
	MonthlyYearFloor        int             `json:"monthly_year_floor" yaml:"monthly_year_floor"`
	MonthlyPages            int             `json:"monthly_pages" yaml:"monthly_pages"`

	// Cumulative quota-error ceilings that end each comprehensive sweep.
	YearlyQuotaCeiling   int `json:"yearly_quota_ceiling" yaml:"yearly_quota_ceiling"`
	OrderingQuotaCeiling int `json:"ordering_quota_ceiling" yaml:"ordering_quota_ceiling"`
	MonthlyQuotaCeiling  int `json:"monthly_quota_ceiling" yaml:"monthly_quota_ceiling"`

	// Diminishing-returns cutoffs: a window page with fewer new items than
	// this ends the walk. An ordering walk ends after more than
	// OrderEmptyPages consecutive pages without anything new.
	YearMinNew      int `json:"year_min_new" yaml:"year_min_new"`
	MonthMinNew     int `json:"month_min_new" yaml:"month_min_new"`
	OrderEmptyPages int `json:"order_empty_pages" yaml:"order_empty_pages"`

	// DetailAttempts bounds the attempts per details batch.
	DetailAttempts int `json:"detail_attempts" yaml:"detail_attempts"`

	// RotationPause is slept after a successful key rotation.
	RotationPause time.Duration `json:"rotation_pause" yaml:"rotation_pause"`
}

// DefaultTuning returns the shipped thresholds.
func DefaultTuning() Tuning {
	return Tuning{
		SmallChannel:  500,
		MediumChannel: 3000,

		LargeChannelWarning: 10000,
		HugeChannelWarning:  100000,

		FastListingPages:        60,
		SmartSmallListingPages:  20,
		SmartMediumListingPages: 60,
		SmartLargeListingPages:  200,
		CompleteListingPages:    500,

		SmartMediumSearchBelow: 0.8,
		SmartLargeSearchBelow:  0.7,
		CompleteSearchBelow:    0.95,

		GenericSearchMaxResults: 1000,

		OptimizedYears:      10,
		OptimizedYearFloor:  2010,
		OptimizedYearPages:  30,
		OptimizedYearRatio:  0.9,
		OptimizedYearCap:    50000,
		OptimizedOrders:     []youtube.Order{youtube.OrderViewCount, youtube.OrderRelevance, youtube.OrderRating},
		OptimizedOrderPages: 20,
		OptimizedOrderRatio: 0.95,
		OptimizedOrderCap:   60000,

		ComprehensiveEpoch:     2005,
		ComprehensiveYearPages: 100,
		ComprehensiveOrders: []youtube.Order{
			youtube.OrderDate, youtube.OrderViewCount, youtube.OrderRelevance,
			youtube.OrderRating, youtube.OrderTitle,
		},
		ComprehensiveOrderPages: 100,
		OrderRerunAbove:         100,
		MonthlyYears:            15,
		MonthlyYearFloor:        2010,
		MonthlyPages:            20,

		YearlyQuotaCeiling:   5,
		OrderingQuotaCeiling: 10,
		MonthlyQuotaCeiling:  20,

		YearMinNew:      10,
		MonthMinNew:     5,
		OrderEmptyPages: 3,

		DetailAttempts: 3,
		RotationPause:  2 * time.Second,
	}
}

// Validate checks that ceilings and ratios are usable.
func (t Tuning) Validate() error {
	pages := map[string]int{
		"fast_listing_pages":         t.FastListingPages,
		"smart_small_listing_pages":  t.SmartSmallListingPages,
		"smart_medium_listing_pages": t.SmartMediumListingPages,
		"smart_large_listing_pages":  t.SmartLargeListingPages,
		"complete_listing_pages":     t.CompleteListingPages,
		"optimized_year_pages":       t.OptimizedYearPages,
		"optimized_order_pages":      t.OptimizedOrderPages,
		"comprehensive_year_pages":   t.ComprehensiveYearPages,
		"comprehensive_order_pages":  t.ComprehensiveOrderPages,
		"monthly_pages":              t.MonthlyPages,
		"detail_attempts":            t.DetailAttempts,
	}
	for name, v := range pages {
		if v <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	ratios := map[string]float64{
		"smart_medium_search_below": t.SmartMediumSearchBelow,
		"smart_large_search_below":  t.SmartLargeSearchBelow,
		"complete_search_below":     t.CompleteSearchBelow,
		"optimized_year_ratio":      t.OptimizedYearRatio,
		"optimized_order_ratio":     t.OptimizedOrderRatio,
	}
	for name, v := range ratios {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}

	if t.SmallChannel < 0 || t.MediumChannel < t.SmallChannel {
		return fmt.Errorf("medium_channel must be at least small_channel")
	}
	if t.RotationPause < 0 {
		return fmt.Errorf("rotation_pause must be non-negative")
	}
	return nil
}
