// Package reference holds the lookup tables the pipeline classifies against:
// states and regions, industry blocks, university groups, VC vocabulary and
// deal stages. Defaults are embedded; a YAML file can replace any table.
package reference

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	apperrors "github.com/mkguldan/empirical/internal/errors"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Block is a named set of member values, such as a region and its states.
type Block struct {
	Name   string   `yaml:"name" validate:"required"`
	States []string `yaml:"states" validate:"required,min=1"`
}

// IndustryBlock maps an industry dummy to the vendor industry groups it covers.
type IndustryBlock struct {
	Name   string   `yaml:"name" validate:"required"`
	Groups []string `yaml:"groups" validate:"required,min=1"`
}

// Dummy is a university indicator and the name patterns that set it.
type Dummy struct {
	Name     string   `yaml:"name" validate:"required"`
	Patterns []string `yaml:"patterns" validate:"required,min=1"`
}

// UniversityGroups lists the lower-case name patterns of each pedigree group.
type UniversityGroups struct {
	Ivy  []string `yaml:"ivy" validate:"required,min=1"`
	Top8 []string `yaml:"top8" validate:"required,min=1"`
}

// Stage ties a vendor deal type to its dummy column and ordinal.
type Stage struct {
	DealType string `yaml:"deal_type" validate:"required"`
	Column   string `yaml:"column" validate:"required"`
	Order    int    `yaml:"order" validate:"gte=1"`
}

// Tables is the full set of reference data.
type Tables struct {
	USStates          []string         `yaml:"us_states" validate:"required,min=1"`
	Regions           []Block          `yaml:"regions" validate:"required,min=1,dive"`
	GeoBlocks         []Block          `yaml:"geo_blocks" validate:"required,min=1,dive"`
	TechHubs          []string         `yaml:"tech_hubs" validate:"required,min=1"`
	IndustryBlocks    []IndustryBlock  `yaml:"industry_blocks" validate:"required,min=1,dive"`
	UniversityGroups  UniversityGroups `yaml:"university_groups"`
	UniversityDummies []Dummy          `yaml:"university_dummies" validate:"required,min=1,dive"`
	VCTerms           []string         `yaml:"vc_terms" validate:"required,min=1"`
	ExcludedDealTypes []string         `yaml:"excluded_deal_types" validate:"required,min=1"`
	Stages            []Stage          `yaml:"stages" validate:"required,min=1,dive"`
	TopTierInvestors  []string         `yaml:"top_tier_investors" validate:"required,min=1"`
}

// Default returns the embedded tables.
func Default() *Tables {
	t, err := parse(defaultsYAML, nil)
	if err != nil {
		panic(fmt.Sprintf("embedded reference tables are invalid: %v", err))
	}
	return t
}

// Load reads the embedded defaults and overlays the file at path. An empty
// path returns the defaults. Keys present in the file replace the default
// table as a whole.
func Load(path string) (*Tables, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError("reference file " + path)
		}
		return nil, apperrors.NewConfigError("failed to read reference file", err).WithContext("path", path)
	}
	t, err := parse(defaultsYAML, data)
	if err != nil {
		if appErr, ok := err.(*apperrors.AppError); ok {
			return nil, appErr.WithContext("path", path)
		}
		return nil, err
	}
	return t, nil
}

func parse(base, overlay []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(base, &t); err != nil {
		return nil, apperrors.NewConfigError("failed to parse reference tables", err)
	}
	if overlay != nil {
		if err := yaml.Unmarshal(overlay, &t); err != nil {
			return nil, apperrors.NewConfigError("failed to parse reference tables", err)
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks that every table is populated and stage orders are unique.
func (t *Tables) Validate() error {
	if err := validator.New().Struct(t); err != nil {
		return apperrors.NewConfigError("invalid reference tables", err)
	}
	seen := make(map[int]string, len(t.Stages))
	for _, s := range t.Stages {
		if prev, ok := seen[s.Order]; ok {
			return apperrors.NewConfigError(
				fmt.Sprintf("stages %q and %q share order %d", prev, s.DealType, s.Order), nil)
		}
		seen[s.Order] = s.DealType
	}
	return nil
}

// StateSet returns the US states as a set.
func (t *Tables) StateSet() map[string]bool {
	set := make(map[string]bool, len(t.USStates))
	for _, s := range t.USStates {
		set[s] = true
	}
	return set
}
