package salary

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Tables holds the role base-pay and location multiplier lookups.
type Tables struct {
	RoleBase           map[string]float64 `yaml:"roles"`
	LocationMultiplier map[string]float64 `yaml:"locations"`
}

// DefaultTables returns the built-in lookup tables.
func DefaultTables() Tables {
	return Tables{
		RoleBase: map[string]float64{
			"Software Engineer":        120000,
			"Senior Software Engineer": 160000,
			"Staff Engineer":           195000,
			"Principal Engineer":       230000,
			"Product Manager":          135000,
			"Senior PM":                170000,
			"Data Scientist":           145000,
			"ML Engineer":              175000,
			"UX Designer":              110000,
			"Engineering Manager":      185000,
			"Director of Engineering":  235000,
			"CTO / VP Engineering":     285000,
		},
		LocationMultiplier: map[string]float64{
			"San Francisco, CA": 1.25,
			"New York, NY":      1.2,
			"Seattle, WA":       1.18,
			"Austin, TX":        1.04,
			"Boston, MA":        1.12,
			"Chicago, IL":       1.06,
			"Los Angeles, CA":   1.14,
			"Denver, CO":        1.05,
			"Remote (US)":       1.0,
		},
	}
}

// LoadTables reads lookup tables from a YAML file. Entries merge over the
// defaults so an override file only needs to list the rows it changes.
func LoadTables(path string) (Tables, error) {
	tables := DefaultTables()
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Tables{}, fmt.Errorf("read salary tables: %w", err)
	}
	var override Tables
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Tables{}, fmt.Errorf("unmarshal salary tables: %w", err)
	}
	for role, base := range override.RoleBase {
		tables.RoleBase[role] = base
	}
	for loc, mult := range override.LocationMultiplier {
		tables.LocationMultiplier[loc] = mult
	}
	return tables, nil
}
