package planner

import "strings"

// The eight multiple-intelligence categories that carry fatigue profiles.
var Categories = []string{
	"linguistic",
	"logical",
	"spatial",
	"bodily_kinesthetic",
	"musical",
	"interpersonal",
	"intrapersonal",
	"naturalistic",
}

var chineseCategories = map[string]string{
	"語言智能":   "linguistic",
	"邏輯數理智能": "logical",
	"空間智能":   "spatial",
	"肢體動覺智能": "bodily_kinesthetic",
	"音樂智能":   "musical",
	"人際關係智能": "interpersonal",
	"自省智能":   "intrapersonal",
	"自然辨識智能": "naturalistic",
}

const profilePrefix = "fatigue_"

// CanonicalCategory normalizes a category tag: it trims and lower-cases the
// tag, maps Chinese intelligence names to their English key and strips a
// "fatigue_" profile prefix.
func CanonicalCategory(tag string) string {
	s := strings.ToLower(strings.TrimSpace(tag))
	if en, ok := chineseCategories[s]; ok {
		return en
	}
	s = strings.TrimPrefix(s, profilePrefix)
	return strings.ReplaceAll(s, " ", "_")
}

// KnownCategory reports whether tag canonicalizes to one of Categories.
func KnownCategory(tag string) bool {
	c := CanonicalCategory(tag)
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}
