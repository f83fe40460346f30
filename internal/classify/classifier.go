// Package classify maps free-text vendor values onto the categories used in
// the panel: degree levels, majors, university pedigree, geography, industry
// blocks and deal stages.
//
// Degree, Major and the education rank helpers use fixed rules. Everything
// that depends on reference tables hangs off a Classifier.
package classify

import (
	"slices"
	"strings"

	"github.com/mkguldan/empirical/internal/reference"
	"github.com/mkguldan/empirical/pkg/contracts/domain"
)

// Flag is one named 0/1 indicator.
type Flag struct {
	Name string
	Set  bool
}

// Classifier answers lookups against a set of reference tables.
type Classifier struct {
	tables     *reference.Tables
	states     map[string]bool
	techHubs   map[string]bool
	regionOf   map[string]string
	stageOrder map[string]int
	ivy        []string
	top8       []string
	vcTerms    []string
	excluded   []string
	topTier    map[string]bool
}

// New builds a classifier. A nil tables argument uses the embedded defaults.
func New(tables *reference.Tables) *Classifier {
	if tables == nil {
		tables = reference.Default()
	}
	c := &Classifier{
		tables:     tables,
		states:     tables.StateSet(),
		techHubs:   make(map[string]bool, len(tables.TechHubs)),
		regionOf:   make(map[string]string),
		stageOrder: make(map[string]int, len(tables.Stages)),
		ivy:        lowerAll(tables.UniversityGroups.Ivy),
		top8:       lowerAll(tables.UniversityGroups.Top8),
		vcTerms:    lowerAll(tables.VCTerms),
		excluded:   lowerAll(tables.ExcludedDealTypes),
		topTier:    make(map[string]bool, len(tables.TopTierInvestors)),
	}
	for _, name := range tables.TopTierInvestors {
		c.topTier[name] = true
	}
	for _, s := range tables.TechHubs {
		c.techHubs[s] = true
	}
	for _, r := range tables.Regions {
		for _, s := range r.States {
			if _, ok := c.regionOf[s]; !ok {
				c.regionOf[s] = r.Name
			}
		}
	}
	for _, s := range tables.Stages {
		c.stageOrder[s.DealType] = s.Order
	}
	return c
}

// Tables returns the reference tables in use.
func (c *Classifier) Tables() *reference.Tables { return c.tables }

// IsUSState reports whether the value is one of the 50 states or DC.
func (c *Classifier) IsUSState(state string) bool {
	return c.states[strings.TrimSpace(state)]
}

// Region returns the census region of a state, or Other.
func (c *Classifier) Region(state string) string {
	if r, ok := c.regionOf[strings.TrimSpace(state)]; ok {
		return r
	}
	return domain.RegionOther
}

// GeoBlocks returns the control geography dummies for a state.
func (c *Classifier) GeoBlocks(state string) []Flag {
	state = strings.TrimSpace(state)
	out := make([]Flag, len(c.tables.GeoBlocks))
	for i, b := range c.tables.GeoBlocks {
		out[i] = Flag{Name: b.Name, Set: slices.Contains(b.States, state)}
	}
	return out
}

// IsTechHub reports whether the state is a tech-hub state.
func (c *Classifier) IsTechHub(state string) bool {
	return c.techHubs[strings.TrimSpace(state)]
}

// ServicesBlock is the industry dummy set when no other block matches.
const ServicesBlock = "Services"

// IndustryBlocks returns the industry dummies for a vendor industry group,
// followed by Services, which is set when none of the others are.
func (c *Classifier) IndustryBlocks(group string) []Flag {
	group = strings.TrimSpace(group)
	out := make([]Flag, 0, len(c.tables.IndustryBlocks)+1)
	matched := false
	for _, b := range c.tables.IndustryBlocks {
		hit := slices.Contains(b.Groups, group)
		matched = matched || hit
		out = append(out, Flag{Name: b.Name, Set: hit})
	}
	return append(out, Flag{Name: ServicesBlock, Set: !matched})
}

// UniversityGroup classifies an institution name as Ivy, Top8 or Other.
// Patterns are matched against the lower-cased name as written, so padded
// patterns such as "mit " only hit when the name has that surrounding space.
func (c *Classifier) UniversityGroup(institute string) domain.UniversityGroup {
	s := strings.ToLower(institute)
	if strings.TrimSpace(s) == "" {
		return domain.GroupOther
	}
	if containsAny(s, c.ivy) {
		return domain.GroupIvy
	}
	if containsAny(s, c.top8) {
		return domain.GroupTop8
	}
	return domain.GroupOther
}

// UniversityDummies returns one indicator per configured school.
func (c *Classifier) UniversityDummies(name string) []Flag {
	s := strings.ToLower(name)
	blank := strings.TrimSpace(s) == ""
	out := make([]Flag, len(c.tables.UniversityDummies))
	for i, d := range c.tables.UniversityDummies {
		out[i] = Flag{Name: d.Name, Set: !blank && containsAny(s, lowerAll(d.Patterns))}
	}
	return out
}

// IsVCTerm reports whether the value mentions venture capital.
func (c *Classifier) IsVCTerm(value string) bool {
	s := strings.ToLower(value)
	return s != "" && containsAny(s, c.vcTerms)
}

// IsExcludedDealType reports whether a deal type is out of scope, such as
// grants and accelerator rounds.
func (c *Classifier) IsExcludedDealType(value string) bool {
	s := strings.ToLower(value)
	return s != "" && containsAny(s, c.excluded)
}

// IsTopTierInvestor reports whether name is on the top-tier investor list.
// Names must match exactly apart from surrounding whitespace.
func (c *Classifier) IsTopTierInvestor(name string) bool {
	return c.topTier[strings.TrimSpace(name)]
}

// StageOrder returns the ordinal of a VC stage deal type.
func (c *Classifier) StageOrder(dealType string) (int, bool) {
	o, ok := c.stageOrder[strings.TrimSpace(dealType)]
	return o, ok
}

// Stages returns the stage definitions in configured order.
func (c *Classifier) Stages() []reference.Stage {
	return c.tables.Stages
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
