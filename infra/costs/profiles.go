// Package costs implements planner.CostProvider over static files, SQLite
// and a remote HTTP service.
package costs

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/dayplan/core/planner"
)

// Profile is the hourly fatigue cost of one category.
type Profile struct {
	Category string    `json:"category" yaml:"category"`
	Hourly   []float64 `json:"hourly" yaml:"hourly"`
}

type profileFile struct {
	Profiles []Profile `json:"profiles" yaml:"profiles"`
}

// LoadProfiles reads profiles from a JSON or YAML file.
func LoadProfiles(path string) ([]Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return DecodeProfiles(f, ext)
}

// DecodeProfiles reads profiles in the given format ("yaml", "yml" or
// "json"). Categories are canonicalized.
func DecodeProfiles(r io.Reader, format string) ([]Profile, error) {
	var pf profileFile
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&pf); err != nil {
			return nil, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&pf); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	for i := range pf.Profiles {
		p := &pf.Profiles[i]
		p.Category = planner.CanonicalCategory(p.Category)
		if p.Category == "" {
			return nil, fmt.Errorf("profile %d: missing category", i)
		}
		if len(p.Hourly) == 0 {
			return nil, fmt.Errorf("profile %s: no hourly values", p.Category)
		}
	}
	return pf.Profiles, nil
}

func flatRow(v float64) []float64 {
	row := make([]float64, planner.HoursPerDay)
	for h := range row {
		row[h] = v
	}
	return row
}

func orDefault(v float64) float64 {
	if v <= 0 {
		return planner.DefaultCost
	}
	return v
}
