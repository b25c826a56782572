package costs

import (
	"context"

	"github.com/kilianp07/dayplan/core/planner"
)

// StaticProvider serves profiles held in memory. Unknown categories get a
// flat default row.
type StaticProvider struct {
	profiles    map[string][]float64
	defaultCost float64
}

// NewStaticProvider indexes profiles by canonical category.
func NewStaticProvider(profiles []Profile, defaultCost float64) *StaticProvider {
	m := make(map[string][]float64, len(profiles))
	for _, p := range profiles {
		m[planner.CanonicalCategory(p.Category)] = append([]float64(nil), p.Hourly...)
	}
	return &StaticProvider{profiles: m, defaultCost: orDefault(defaultCost)}
}

func (s *StaticProvider) HourlyCosts(_ context.Context, categories []string) ([][]float64, error) {
	out := make([][]float64, len(categories))
	for i, c := range categories {
		if row, ok := s.profiles[planner.CanonicalCategory(c)]; ok {
			out[i] = append([]float64(nil), row...)
			continue
		}
		out[i] = flatRow(s.defaultCost)
	}
	return out, nil
}
