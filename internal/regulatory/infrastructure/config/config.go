package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	regulatory "gd-invoice/internal/regulatory/domain"
)

const dateLayout = "2006-01-02"

// File is the YAML shape of the regulatory parameters. Fractions are in percent.
type File struct {
	GrandfatherCutoff     string          `yaml:"grandfather_cutoff"`
	GrandfatheredUntil    int             `yaml:"grandfathered_until"`
	NonCompensablePercent map[int]float64 `yaml:"non_compensable_percent"`
}

// Default returns the built-in parameters: protocols filed up to 2023-01-07 keep the
// full regime through 2045, later ones follow the wires-B transition schedule.
func Default() File {
	return File{
		GrandfatherCutoff:  "2023-01-07",
		GrandfatheredUntil: 2045,
		NonCompensablePercent: map[int]float64{
			2023: 15,
			2024: 30,
			2025: 45,
			2026: 60,
			2027: 75,
			2028: 90,
		},
	}
}

// Load reads REGULATORY_CONFIG when set, otherwise returns the built-in rules.
func Load() (regulatory.Rules, error) {
	file := Default()
	if path := os.Getenv("REGULATORY_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return regulatory.Rules{}, err
		}
		parsed, err := Parse(data)
		if err != nil {
			return regulatory.Rules{}, err
		}
		file = mergeFile(file, parsed)
	}
	if until := os.Getenv("REGULATORY_GRANDFATHERED_UNTIL"); until != "" {
		if parsed, err := strconv.Atoi(until); err == nil {
			file.GrandfatheredUntil = parsed
		}
	}
	return file.Rules()
}

// Parse decodes a YAML document.
func Parse(data []byte) (File, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return File{}, err
	}
	return file, nil
}

// Rules converts the file into validated regulatory rules.
func (f File) Rules() (regulatory.Rules, error) {
	var cutoff time.Time
	if f.GrandfatherCutoff != "" {
		parsed, err := time.Parse(dateLayout, f.GrandfatherCutoff)
		if err != nil {
			return regulatory.Rules{}, errors.New("regulatory config: grandfather_cutoff must be YYYY-MM-DD")
		}
		// The cutoff day itself is still grandfathered.
		cutoff = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	fractions := make(map[int]float64, len(f.NonCompensablePercent))
	for year, percent := range f.NonCompensablePercent {
		fractions[year] = percent / 100
	}
	schedule, err := regulatory.NewSchedule(fractions)
	if err != nil {
		return regulatory.Rules{}, err
	}
	return regulatory.Rules{
		GrandfatherCutoff:  cutoff,
		GrandfatheredUntil: f.GrandfatheredUntil,
		Schedule:           schedule,
	}, nil
}

func mergeFile(base, override File) File {
	if override.GrandfatherCutoff != "" {
		base.GrandfatherCutoff = override.GrandfatherCutoff
	}
	if override.GrandfatheredUntil != 0 {
		base.GrandfatheredUntil = override.GrandfatheredUntil
	}
	if len(override.NonCompensablePercent) > 0 {
		base.NonCompensablePercent = override.NonCompensablePercent
	}
	return base
}
