package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fixtureRecord is the YAML shape of a seeded catalog entry. Absent keys
// stay nil so seeded records behave like sparse database rows.
type fixtureRecord struct {
	Name            string   `yaml:"name"`
	Manufacturer    *string  `yaml:"manufacturer"`
	Type            *string  `yaml:"type"`
	TopHousing      *string  `yaml:"top_housing"`
	BottomHousing   *string  `yaml:"bottom_housing"`
	Stem            *string  `yaml:"stem"`
	Mount           *string  `yaml:"mount"`
	Spring          *string  `yaml:"spring"`
	ActuationForceG *float64 `yaml:"actuation_force_g"`
	BottomOutForceG *float64 `yaml:"bottom_out_force_g"`
	PreTravelMm     *float64 `yaml:"pre_travel_mm"`
	TotalTravelMm   *float64 `yaml:"total_travel_mm"`
}

type fixtureFile struct {
	Switches []fixtureRecord `yaml:"switches"`
}

// LoadFixture reads catalog records from a YAML file. Used to seed the
// in-memory store when no database is configured.
func LoadFixture(path string) ([]*SwitchRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}

	records := make([]*SwitchRecord, 0, len(file.Switches))
	for i, fr := range file.Switches {
		if fr.Name == "" {
			return nil, fmt.Errorf("fixture entry %d: name is required", i)
		}
		rec := &SwitchRecord{
			Name:            fr.Name,
			Manufacturer:    fr.Manufacturer,
			TopHousing:      fr.TopHousing,
			BottomHousing:   fr.BottomHousing,
			Stem:            fr.Stem,
			Mount:           fr.Mount,
			Spring:          fr.Spring,
			ActuationForceG: fr.ActuationForceG,
			BottomOutForceG: fr.BottomOutForceG,
			PreTravelMm:     fr.PreTravelMm,
			TotalTravelMm:   fr.TotalTravelMm,
		}
		if fr.Type != nil {
			switch st := SwitchType(*fr.Type); st {
			case SwitchTypeLinear, SwitchTypeTactile, SwitchTypeClicky:
				rec.Type = &st
			default:
				return nil, fmt.Errorf("fixture entry %q: unknown type %q", fr.Name, *fr.Type)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// NewMemoryStoreFromFixture builds a seeded in-memory store.
func NewMemoryStoreFromFixture(path string) (*MemoryStore, error) {
	records, err := LoadFixture(path)
	if err != nil {
		return nil, err
	}
	store := NewMemoryStore()
	store.Add(records...)
	return store, nil
}
