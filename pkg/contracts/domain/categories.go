// Package domain defines the column names and category values shared by the
// pipeline stages and their consumers.
package domain

// DegreeCategory is the normalized level of a founder's degree.
type DegreeCategory string

const (
	DegreeASC   DegreeCategory = "ASC"
	DegreeBSC   DegreeCategory = "BSC"
	DegreeMSC   DegreeCategory = "MSC"
	DegreeJD    DegreeCategory = "JD"
	DegreePHD   DegreeCategory = "PHD"
	DegreeMBA   DegreeCategory = "MBA"
	DegreeCHA   DegreeCategory = "CHA"
	DegreeOther DegreeCategory = "Other"
)

// MajorCategory is the field-of-study bucket of a founder's major.
type MajorCategory string

const (
	MajorCSEngineering  MajorCategory = "CS_Engineering"
	MajorNaturalScience MajorCategory = "Natural_Sciences"
	MajorMedicineHealth MajorCategory = "Medicine_Health"
	MajorBusinessEcon   MajorCategory = "Business_Econ"
	MajorSocialSciences MajorCategory = "Social_Sciences"
	MajorHumanitiesArts MajorCategory = "Humanities_Arts"
	MajorLaw            MajorCategory = "Law"
	MajorOther          MajorCategory = "Other"
	MajorMissing        MajorCategory = "Missing"
)

// IsSTEM reports whether the major counts toward the team STEM share.
func (m MajorCategory) IsSTEM() bool {
	return m == MajorCSEngineering || m == MajorNaturalScience
}

// UniversityGroup is the pedigree tier of a founder's institution.
type UniversityGroup string

const (
	GroupIvy   UniversityGroup = "Ivy"
	GroupTop8  UniversityGroup = "Top8"
	GroupOther UniversityGroup = "Other"
)

// Pedigree returns the ordinal used for Max_Pedigree: Ivy 3, Top8 2, else 1.
func (g UniversityGroup) Pedigree() int {
	switch g {
	case GroupIvy:
		return 3
	case GroupTop8:
		return 2
	default:
		return 1
	}
}

// IsElite reports whether the group is Ivy or Top8.
func (g UniversityGroup) IsElite() bool {
	return g == GroupIvy || g == GroupTop8
}

// TeamGender describes the gender composition of a founding team.
type TeamGender string

const (
	TeamSingleFemale TeamGender = "Single_Female"
	TeamSingleMale   TeamGender = "Single_Male"
	TeamAllFemale    TeamGender = "All_Female"
	TeamAllMale      TeamGender = "All_Male"
	TeamMixed        TeamGender = "Mixed"
)

// Census region used when no region matches.
const RegionOther = "Other"
