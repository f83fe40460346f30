package classify

import (
	"strings"

	"github.com/mkguldan/empirical/pkg/contracts/domain"
)

// Degree entries that say nothing about the level.
var vagueDegrees = map[string]bool{
	"degree":                true,
	"graduate":              true,
	"major":                 true,
	"minor":                 true,
	"undergraduate studies": true,
}

type degreeRule struct {
	category domain.DegreeCategory
	patterns []string
}

// Checked in order; the first rule with a substring hit wins. Some patterns
// carry a leading or trailing space to avoid matching inside longer words.
var degreeRules = []degreeRule{
	{domain.DegreeCHA, []string{
		"cpa", "c.p.a", "certified public accountant",
		"cfa", "c.f.a", "chartered financial analyst",
		"chartered accountant", "ca ", " ca", "c.a",
		"cma", "c.m.a", "certified management accountant",
		"acca", "chartered certified accountant",
	}},
	{domain.DegreeMBA, []string{
		"mba", "m.b.a", "master of business administration",
		"emba", "e.m.b.a", "executive mba",
	}},
	{domain.DegreeJD, []string{
		"jd", "j.d", "juris doctor", "doctor of law", "jd/mba", "mba/jd",
	}},
	{domain.DegreePHD, []string{
		"ph.d", "phd", "ph. d", "doctor of philosophy", "doctorate", "doctoral",
		"dphil", "d.phil", "md/phd", "phd/md",
		"doctor of science", "dsc", "d.sc", "ds (doctor",
		"doctor of medicine", "md (doctor", "m.d (doctor",
		"doctor of dental", "dds", "d.d.s", "dmd", "d.m.d",
		"doctor of pharmacy", "pharm.d", "pharmd",
		"doctor of veterinary", "dvm", "d.v.m",
		"ded (doctor", "ed.d", "doctor of education",
		"psyd", "psy.d", "doctor of psychology",
		"postdoc", "post doc", "post-doc", "postdoctoral", "post doctoral", "post-doctoral",
		"post graduate studies", "honorary doctorate", "mbbs",
	}},
	{domain.DegreeMSC, []string{
		"master", "masters", "master's", "msc", "m.sc",
		"ms (master", "m.s (master", "ma (master", "m.a (master", "me (master",
		"m.eng", "master of engineering", "mem ", "m.e.m", "master of engineering management",
		"mfa", "m.f.a", "master of fine arts",
		"mpa", "m.p.a", "master of public",
		"mpp", "m.p.p", "master of public policy",
		"mph", "m.p.h", "master of public health",
		"mps", "m.p.s", "master of professional studies",
		"msw", "m.s.w", "master of social work",
		"med ", "m.ed", "master of education",
		"mdes", "m.des", "master of design",
		"mas (master", "m.a.s (master", "mj (master", "master of jurisprudence",
		"llm", "ll.m", "master of law",
		"m.phil", "master of philosophy",
		"m.tech", "master of technology",
		"integrated masters", "postgraduate degree", "post graduate diploma", "pgdm",
	}},
	{domain.DegreeBSC, []string{
		"bachelor", "bachelors", "bachelor's",
		"ba (bachelor", "b.a (bachelor", "bs (bachelor", "b.s (bachelor", "bsc ",
		"bba", "b.b.a", "bachelor of business",
		"be (bachelor", "b.e (bachelor", "be/bs",
		"b.tech", "bachelor of technology", "btech",
		"bfa", "b.f.a", "bachelor of fine arts",
		"b.comm", "bachelor of commerce", "bcomm",
		"llb", "ll.b", "bachelor of law",
		"bdes", "b.des", "bachelor of design",
		"bas (bachelor", "b.a.s (bachelor",
		"bsbe", "bsfs", "dual b.s", "dual-degree", "sb & sm",
		"engineering diploma", "business management diploma",
		"honors business administration", "honors degree", "graduated cum laude",
	}},
	{domain.DegreeASC, []string{
		"aa (associate", "a.a (associate", "as (associate", "a.s (associate",
		"aas (associate", "a.a.s (associate", "associate degree", "associate of",
	}},
}

// Degree maps a free-text degree to its category.
func Degree(raw string) domain.DegreeCategory {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || vagueDegrees[s] {
		return domain.DegreeOther
	}
	for _, rule := range degreeRules {
		if containsAny(s, rule.patterns) {
			return rule.category
		}
	}
	return domain.DegreeOther
}

type rankRule struct {
	rank     int
	patterns []string
}

var educationRanks = []rankRule{
	{7, []string{"PHD"}},
	{6, []string{"MD", "DOCTOR OF MEDICINE"}},
	{5, []string{"JD"}},
	{4, []string{"MBA"}},
	{3, []string{"MSC", "MASTER"}},
	{2, []string{"BSC", "BACHELOR"}},
	{1, []string{"ASC", "ASSOCIATE"}},
}

// EducationRank orders a degree category from PhD (7) down to other (0).
func EducationRank(category string) int {
	s := strings.ToUpper(strings.TrimSpace(category))
	if s == "" {
		return 0
	}
	for _, r := range educationRanks {
		if containsAny(s, r.patterns) {
			return r.rank
		}
	}
	return 0
}

var rankLabels = map[int]string{
	7: "PhD",
	6: "MD",
	5: "JD",
	4: "MBA",
	3: "MSC",
	2: "BSC",
	1: "ASC",
}

// RankLabel names an education rank.
func RankLabel(rank int) string {
	if l, ok := rankLabels[rank]; ok {
		return l
	}
	return "Other"
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
