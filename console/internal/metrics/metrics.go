// Package metrics derives display figures from raw savings, price and event
// records.
//
// Every function is pure and total: missing or non-finite numeric inputs are
// treated as 0 and no function panics or returns NaN/Inf. Orderings returned
// by the backend are preserved unless a function documents otherwise.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/pilot-net/spot-console/pkg/types"
)

// CumulativePoint is one day of a running savings total.
type CumulativePoint struct {
	Date       string  `json:"date"`
	Savings    float64 `json:"savings"`
	Cumulative float64 `json:"cumulative"`
}

// RunningTotal returns, for each index i, the sum of savings[0..i].
func RunningTotal(series []types.DailySavings) []CumulativePoint {
	out := make([]CumulativePoint, 0, len(series))
	total := 0.0
	for _, day := range series {
		s := day.Savings.Float()
		total += s
		out = append(out, CumulativePoint{
			Date:       day.Date,
			Savings:    s,
			Cumulative: total,
		})
	}
	return out
}

// SumSavings totals a daily series.
func SumSavings(series []types.DailySavings) float64 {
	total := 0.0
	for _, day := range series {
		total += day.Savings.Float()
	}
	return total
}

// AverageDailySavings is the mean savings per day, 0 for an empty series.
func AverageDailySavings(series []types.DailySavings) float64 {
	if len(series) == 0 {
		return 0
	}
	return SumSavings(series) / float64(len(series))
}

// SavingsPercent is the discount of spot against on-demand, in percent.
// It is 0 whenever the on-demand price is not positive.
func SavingsPercent(onDemandPrice, spotPrice float64) float64 {
	onDemandPrice = finite(onDemandPrice)
	spotPrice = finite(spotPrice)
	if onDemandPrice <= 0 {
		return 0
	}
	return (onDemandPrice - spotPrice) / onDemandPrice * 100
}

// InstanceSavingsPercent applies SavingsPercent to an instance running on
// spot. On-demand instances save nothing.
func InstanceSavingsPercent(inst types.Instance) float64 {
	if inst.CurrentMode != types.ModeSpot {
		return 0
	}
	return SavingsPercent(inst.OnDemandPrice.Float(), inst.SpotPrice.Float())
}

// HourlySavings is the per-hour saving of an instance running on spot.
func HourlySavings(inst types.Instance) float64 {
	if inst.CurrentMode != types.ModeSpot {
		return 0
	}
	return inst.OnDemandPrice.Float() - inst.SpotPrice.Float()
}

// RankedPool is a pool with its display rank.
type RankedPool struct {
	types.Pool
	Rank      int  `json:"rank"` // 1-based
	BestPrice bool `json:"best_price"`
}

// RankPools orders pools by ascending price. Equal prices keep the server
// order. Only the first pool is flagged as best price.
func RankPools(pools []types.Pool) []RankedPool {
	ranked := make([]RankedPool, len(pools))
	for i, p := range pools {
		ranked[i] = RankedPool{Pool: p}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Price.Float() < ranked[j].Price.Float()
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
		ranked[i].BestPrice = i == 0
	}
	return ranked
}

// PeriodBucket is a labelled monthly savings figure.
type PeriodBucket struct {
	Label   string  `json:"label"`
	Year    int     `json:"year"`
	Month   int     `json:"month"`
	Savings float64 `json:"savings"`
}

// MonthlyBuckets labels monthly records as "{Month} {year}" in server order.
// Records with an out-of-range month are labelled with the year alone.
func MonthlyBuckets(records []types.MonthlySavings) []PeriodBucket {
	out := make([]PeriodBucket, 0, len(records))
	for _, r := range records {
		label := fmt.Sprintf("%d", r.Year)
		if r.Month >= 1 && r.Month <= 12 {
			label = fmt.Sprintf("%s %d", time.Month(r.Month).String(), r.Year)
		}
		out = append(out, PeriodBucket{
			Label:   label,
			Year:    int(r.Year),
			Month:   int(r.Month),
			Savings: r.Savings.Float(),
		})
	}
	return out
}

// DefaultCategoryLimit is the number of categories a proportional chart shows.
const DefaultCategoryLimit = 6

// Category is one slice of a proportional chart.
type Category struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	SwitchCount int     `json:"switch_count"`
}

// TopCategories takes the first n categories verbatim. The tail is dropped,
// never folded into an "other" slice.
func TopCategories(records []types.TypeSavings, n int) []Category {
	if n < 0 {
		n = 0
	}
	if n > len(records) {
		n = len(records)
	}
	out := make([]Category, 0, n)
	for _, r := range records[:n] {
		out = append(out, Category{
			Name:        r.InstanceType,
			Value:       r.TotalSavings.Float(),
			SwitchCount: int(r.SwitchCount),
		})
	}
	return out
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
