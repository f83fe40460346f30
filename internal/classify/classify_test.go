package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkguldan/empirical/pkg/contracts/domain"
)

func TestDegree(t *testing.T) {
	tests := []struct {
		input string
		want  domain.DegreeCategory
	}{
		{"MBA", domain.DegreeMBA},
		{"Executive MBA", domain.DegreeMBA},
		{"Bachelor of Science (BS)", domain.DegreeBSC},
		{"Master of Science (MS)", domain.DegreeMSC},
		{"Doctor of Philosophy (PhD)", domain.DegreePHD},
		{"Juris Doctor (JD)", domain.DegreeJD},
		{"CPA", domain.DegreeCHA},
		{"Chartered Accountant", domain.DegreeCHA},
		{"Associate of Arts", domain.DegreeASC},
		{"  MASTER'S DEGREE  ", domain.DegreeMSC},
		{"degree", domain.DegreeOther},
		{"Undergraduate Studies", domain.DegreeOther},
		{"High School Diploma", domain.DegreeOther},
		{"", domain.DegreeOther},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Degree(tt.input))
		})
	}
}

func TestMajor(t *testing.T) {
	tests := []struct {
		input string
		want  domain.MajorCategory
	}{
		{"Computer Science", domain.MajorCSEngineering},
		{"Physics", domain.MajorNaturalScience},
		{"Public Health", domain.MajorMedicineHealth},
		{"Economics", domain.MajorBusinessEcon},
		{"Psychology", domain.MajorSocialSciences},
		{"History", domain.MajorHumanitiesArts},
		{"Law", domain.MajorLaw},
		{"Underwater Basket Weaving", domain.MajorOther},
		{"", domain.MajorMissing},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Major(tt.input))
		})
	}
}

func TestEducationRank(t *testing.T) {
	tests := []struct {
		input string
		rank  int
		label string
	}{
		{"PHD", 7, "PhD"},
		{"Doctor of Medicine", 6, "MD"},
		{"JD", 5, "JD"},
		{"MBA", 4, "MBA"},
		{"MSC", 3, "MSC"},
		{"BSC", 2, "BSC"},
		{"ASC", 1, "ASC"},
		{"CHA", 0, "Other"},
		{"Other", 0, "Other"},
		{"", 0, "Other"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			rank := EducationRank(tt.input)
			assert.Equal(t, tt.rank, rank)
			assert.Equal(t, tt.label, RankLabel(rank))
		})
	}
}

func TestClassifierGeography(t *testing.T) {
	c := New(nil)

	assert.True(t, c.IsUSState("Texas"))
	assert.True(t, c.IsUSState(" District of Columbia "))
	assert.False(t, c.IsUSState("Ontario"))

	assert.Equal(t, "South", c.Region("Texas"))
	assert.Equal(t, "West", c.Region("Colorado"))
	assert.Equal(t, "Other", c.Region("Ontario"))

	blocks := c.GeoBlocks("Colorado")
	require.Len(t, blocks, 4)
	for _, b := range blocks {
		assert.Equal(t, b.Name == "Midwest", b.Set, b.Name)
	}

	assert.True(t, c.IsTechHub("California"))
	assert.False(t, c.IsTechHub("Texas"))
}

func TestClassifierIndustryBlocks(t *testing.T) {
	c := New(nil)

	tests := []struct {
		group string
		want  string
	}{
		{"Software", "Tech"},
		{"Healthcare Services", "Healthcare"},
		{"Retailing", "Consumer"},
		{"Energy", "Industrial"},
		{"Restaurants, Hotels and Leisure", ServicesBlock},
		{"", ServicesBlock},
	}

	for _, tt := range tests {
		t.Run(tt.group, func(t *testing.T) {
			flags := c.IndustryBlocks(tt.group)
			require.Len(t, flags, 5)
			var set []string
			for _, f := range flags {
				if f.Set {
					set = append(set, f.Name)
				}
			}
			assert.Equal(t, []string{tt.want}, set)
		})
	}
}

func TestClassifierUniversities(t *testing.T) {
	c := New(nil)

	assert.Equal(t, domain.GroupIvy, c.UniversityGroup("Harvard University"))
	assert.Equal(t, domain.GroupIvy, c.UniversityGroup("The Wharton School"))
	assert.Equal(t, domain.GroupTop8, c.UniversityGroup("Stanford University"))
	assert.Equal(t, domain.GroupTop8, c.UniversityGroup("Massachusetts Institute of Technology"))
	assert.Equal(t, domain.GroupOther, c.UniversityGroup("University of Michigan"))
	assert.Equal(t, domain.GroupOther, c.UniversityGroup(""))
	assert.Equal(t, domain.GroupOther, c.UniversityGroup("   "))

	// Padded patterns need the surrounding space in the name itself.
	assert.Equal(t, domain.GroupTop8, c.UniversityGroup("MIT Sloan School of Management"))
	assert.Equal(t, domain.GroupTop8, c.UniversityGroup("Sloan, MIT"))
	assert.Equal(t, domain.GroupOther, c.UniversityGroup("MIT"))
	assert.Equal(t, domain.GroupTop8, c.UniversityGroup(" MIT"))

	dummies := c.UniversityDummies("Massachusetts Institute of Technology")
	require.Len(t, dummies, 11)
	for _, d := range dummies {
		assert.Equal(t, d.Name == "MIT", d.Set, d.Name)
	}
	for _, name := range []string{"", "  ", "MIT", "Brown"} {
		for _, d := range c.UniversityDummies(name) {
			assert.False(t, d.Set, "%q %s", name, d.Name)
		}
	}
	for _, d := range c.UniversityDummies("Brown University") {
		assert.Equal(t, d.Name == "Brown", d.Set, d.Name)
	}
}

func TestClassifierDeals(t *testing.T) {
	c := New(nil)

	assert.True(t, c.IsVCTerm("Early Stage VC"))
	assert.True(t, c.IsVCTerm("series b"))
	assert.False(t, c.IsVCTerm("Angel (individual)"))
	assert.False(t, c.IsVCTerm(""))

	assert.True(t, c.IsExcludedDealType("Grant"))
	assert.True(t, c.IsExcludedDealType("accelerator/incubator"))
	assert.False(t, c.IsExcludedDealType("Seed Round"))

	order, ok := c.StageOrder("Later Stage VC")
	assert.True(t, ok)
	assert.Equal(t, 3, order)
	_, ok = c.StageOrder("Grant")
	assert.False(t, ok)

	assert.True(t, c.IsTopTierInvestor("Sequoia Capital"))
	assert.True(t, c.IsTopTierInvestor(" Accel "))
	assert.False(t, c.IsTopTierInvestor("Sequoia Capital China"))
	assert.False(t, c.IsTopTierInvestor("accel"))
}
