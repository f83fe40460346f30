package classify

import (
	"strings"

	"github.com/mkguldan/empirical/pkg/contracts/domain"
)

type majorRule struct {
	category domain.MajorCategory
	keywords []string
}

var majorRules = []majorRule{
	{domain.MajorCSEngineering, []string{
		"computer", "software", "programming", "information system", "information technology",
		"data science", "artificial intelligence", "machine learning", "electrical engineering",
		"computer engineering", "systems engineering", "engineering", "mechanical", "civil",
		"industrial", "aerospace", "chemical engineering", "bioengineering",
	}},
	{domain.MajorNaturalScience, []string{
		"mathematics", "physics", "chemistry", "biology", "math", "biochemistry", "biophysics",
		"neuroscience", "molecular", "genetics", "applied math", "statistics", "astrophysics",
		"geology", "environmental science",
	}},
	{domain.MajorMedicineHealth, []string{
		"medicine", "medical", "health", "nursing", "pharmacy", "biomedical", "clinical",
		"anatomy", "physiology", "pathology", "immunology", "epidemiology", "public health",
		"dentistry",
	}},
	{domain.MajorBusinessEcon, []string{
		"business", "finance", "economics", "accounting", "marketing", "management", "mba",
		"entrepreneurship", "commerce", "banking", "strategy", "operations", "real estate",
		"investment",
	}},
	{domain.MajorSocialSciences, []string{
		"psychology", "sociology", "anthropology", "political science", "government",
		"international relations", "policy", "geography", "social work", "education",
		"communications",
	}},
	{domain.MajorHumanitiesArts, []string{
		"history", "english", "literature", "philosophy", "art", "music", "theater", "language",
		"linguistics", "creative writing", "film", "design", "architecture", "media studies",
	}},
	{domain.MajorLaw, []string{"law", "legal", "jurisprudence"}},
}

// Major buckets a field of study. Empty input is Missing.
func Major(raw string) domain.MajorCategory {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return domain.MajorMissing
	}
	for _, rule := range majorRules {
		if containsAny(s, rule.keywords) {
			return rule.category
		}
	}
	return domain.MajorOther
}
