// Package recurrence infers billing cadences from raw transaction
// history. It groups debits by merchant and tests each group for
// price stability and a consistent charge interval.
package recurrence

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/subzero/subzero/internal/domain"
)

// CycleRange is an inclusive band of average inter-charge days that
// maps onto one billing cycle.
type CycleRange struct {
	Cycle   domain.BillingCycle
	MinDays float64
	MaxDays float64
}

// Config holds the detector's heuristic thresholds. The defaults come
// from observed behavior on real transaction histories; they are
// deliberately overridable rather than baked in.
type Config struct {
	// MinTransactions is the smallest group size worth analyzing.
	MinTransactions int
	// MaxAmountVarianceRatio rejects a group when
	// distinct(amounts)/count(amounts) exceeds it.
	MaxAmountVarianceRatio float64
	// CycleRanges classify the average interval. Any average outside
	// every range rejects the group.
	CycleRanges []CycleRange
	// MinClassifierConfidence is the hard acceptance gate applied to
	// the merchant classifier's score before a group becomes a
	// candidate.
	MinClassifierConfidence float64
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MinTransactions:        2,
		MaxAmountVarianceRatio: 0.3,
		CycleRanges: []CycleRange{
			{Cycle: domain.CycleMonthly, MinDays: 25, MaxDays: 35},
			{Cycle: domain.CycleQuarterly, MinDays: 85, MaxDays: 95},
			{Cycle: domain.CycleAnnual, MinDays: 350, MaxDays: 375},
			{Cycle: domain.CycleWeekly, MinDays: 6, MaxDays: 8},
		},
		MinClassifierConfidence: 0.7,
	}
}

// Pattern is the billing-cycle hypothesis for one merchant group.
type Pattern struct {
	MerchantName        string
	Cycle               domain.BillingCycle
	AverageAmount       decimal.Decimal
	IntervalConsistency float64 // 1 - (max-min)/avg over the observed intervals
	LastDate            time.Time
	TransactionCount    int
}

// Detector groups transactions and emits recurring patterns.
type Detector struct {
	cfg Config
}

// New creates a detector with the given thresholds.
func New(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// Config returns the detector's thresholds.
func (d *Detector) Config() Config {
	return d.cfg
}

// Detect analyzes the transactions of one account and returns a
// pattern per merchant that bills on a stable cadence. Credits and
// transactions without a merchant name are skipped; groups are
// returned sorted by merchant name so output is deterministic.
func (d *Detector) Detect(transactions []domain.RawTransaction) []Pattern {
	groups := make(map[string][]domain.RawTransaction)
	for _, tx := range transactions {
		if !tx.IsDebit() {
			continue
		}
		name := NormalizeMerchant(tx.MerchantName)
		if name == "" {
			continue
		}
		groups[name] = append(groups[name], tx)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var patterns []Pattern
	for _, name := range names {
		if p, ok := d.detectGroup(name, groups[name]); ok {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

// detectGroup tests one merchant group for a recurring pattern.
func (d *Detector) detectGroup(name string, group []domain.RawTransaction) (Pattern, bool) {
	if len(group) < d.cfg.MinTransactions {
		return Pattern{}, false
	}

	sort.Slice(group, func(i, j int) bool {
		return group[i].Date.Before(group[j].Date)
	})

	amounts := make([]decimal.Decimal, len(group))
	total := decimal.Zero
	distinct := make(map[string]struct{}, len(group))
	for i, tx := range group {
		amounts[i] = tx.Amount.Abs()
		total = total.Add(amounts[i])
		distinct[amounts[i].String()] = struct{}{}
	}

	varianceRatio := float64(len(distinct)) / float64(len(amounts))
	if varianceRatio > d.cfg.MaxAmountVarianceRatio {
		return Pattern{}, false
	}

	intervals := make([]float64, 0, len(group)-1)
	for i := 1; i < len(group); i++ {
		days := group[i].Date.Sub(group[i-1].Date).Hours() / 24
		intervals = append(intervals, days)
	}

	var sum, min, max float64
	min = intervals[0]
	max = intervals[0]
	for _, iv := range intervals {
		sum += iv
		if iv < min {
			min = iv
		}
		if iv > max {
			max = iv
		}
	}
	avg := sum / float64(len(intervals))

	cycle, ok := d.classifyInterval(avg)
	if !ok {
		return Pattern{}, false
	}

	return Pattern{
		MerchantName:        name,
		Cycle:               cycle,
		AverageAmount:       total.Div(decimal.NewFromInt(int64(len(amounts)))).Round(2),
		IntervalConsistency: 1 - (max-min)/avg,
		LastDate:            group[len(group)-1].Date,
		TransactionCount:    len(group),
	}, true
}

// classifyInterval maps an average interval in days onto a billing
// cycle, or reports that no cadence band contains it.
func (d *Detector) classifyInterval(avgDays float64) (domain.BillingCycle, bool) {
	for _, r := range d.cfg.CycleRanges {
		if avgDays >= r.MinDays && avgDays <= r.MaxDays {
			return r.Cycle, true
		}
	}
	return "", false
}

// NormalizeMerchant lower-cases and trims a merchant name for grouping
// and comparison.
func NormalizeMerchant(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
