package planner

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/dayplan/core/logger"
	"github.com/kilianp07/dayplan/core/slot"
)

// HoursPerDay is the length of a provider cost vector.
const HoursPerDay = 24

// CostMatrixBuilder expands hourly category profiles into per-slot cost rows.
type CostMatrixBuilder struct {
	provider    CostProvider
	defaultCost float64
	log         logger.Logger
}

// NewCostMatrixBuilder returns a builder backed by provider. A nil provider
// yields flat default rows.
func NewCostMatrixBuilder(provider CostProvider, defaultCost float64, log logger.Logger) *CostMatrixBuilder {
	if defaultCost <= 0 {
		defaultCost = DefaultCost
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &CostMatrixBuilder{provider: provider, defaultCost: defaultCost, log: log}
}

// Build returns a len(categories) x slot.PerDay matrix; row i is the cost
// row of the task whose category is categories[i]. Provider failures never
// abort the build: affected rows fall back to the flat default.
func (b *CostMatrixBuilder) Build(ctx context.Context, categories []string) *mat.Dense {
	distinct := make([]string, 0, len(categories))
	seen := make(map[string]int, len(categories))
	for _, c := range categories {
		if _, ok := seen[c]; !ok {
			seen[c] = len(distinct)
			distinct = append(distinct, c)
		}
	}

	hourly := b.fetch(ctx, distinct)

	// Expanded rows are cached per category for the duration of this build.
	cache := make(map[string][]float64, len(distinct))
	m := mat.NewDense(len(categories), slot.PerDay, nil)
	for i, c := range categories {
		row, ok := cache[c]
		if !ok {
			row = expand(hourly[seen[c]])
			cache[c] = row
		}
		m.SetRow(i, row)
	}
	return m
}

func (b *CostMatrixBuilder) fetch(ctx context.Context, distinct []string) [][]float64 {
	out := make([][]float64, len(distinct))
	var rows [][]float64
	if b.provider != nil && len(distinct) > 0 {
		var err error
		rows, err = b.provider.HourlyCosts(ctx, distinct)
		if err != nil {
			b.log.Warnf("cost provider failed, using default cost %.2f: %v", b.defaultCost, err)
			rows = nil
		}
	}
	for k, c := range distinct {
		if len(rows) == 0 {
			out[k] = b.flat()
			continue
		}
		// Fewer rows than categories: tile in input order.
		row, ok := sanitize(rows[k%len(rows)])
		if !ok {
			b.log.Warnf("malformed cost profile for %q, using default cost %.2f", c, b.defaultCost)
			row = b.flat()
		}
		out[k] = row
	}
	return out
}

func (b *CostMatrixBuilder) flat() []float64 {
	row := make([]float64, HoursPerDay)
	for h := range row {
		row[h] = b.defaultCost
	}
	return row
}

// sanitize pads short rows with their last value and truncates long ones.
// Empty rows and rows holding NaN, infinite or negative values are rejected.
func sanitize(row []float64) ([]float64, bool) {
	if len(row) == 0 {
		return nil, false
	}
	out := make([]float64, HoursPerDay)
	for h := range out {
		v := row[len(row)-1]
		if h < len(row) {
			v = row[h]
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, false
		}
		out[h] = v
	}
	return out, true
}

func expand(hourly []float64) []float64 {
	row := make([]float64, slot.PerDay)
	for s := range row {
		row[s] = hourly[s/slot.PerHour]
	}
	return row
}

// IntervalCost sums a cost row over [start, start+length), wrapping indices
// past the end of the day onto the grid.
func IntervalCost(row []float64, start, length int) float64 {
	var total float64
	for t := 0; t < length; t++ {
		total += row[slot.Wrap(start+t)]
	}
	return total
}
