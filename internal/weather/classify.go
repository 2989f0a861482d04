package weather

import "strings"

type conditionRule struct {
	substr   string
	category ConditionCategory
}

// Evaluated top to bottom, first match wins. "light rain and mist" is Rain.
var conditionRules = []conditionRule{
	{"clear", ConditionClear},
	{"cloud", ConditionClouds},
	{"rain", ConditionRain},
	{"drizzle", ConditionDrizzle},
	{"snow", ConditionSnow},
	{"mist", ConditionMist},
	{"fog", ConditionFog},
	{"haze", ConditionHaze},
	{"thunder", ConditionThunderstorm},
	{"dust", ConditionDust},
	{"smoke", ConditionSmoke},
}

// Classify maps a free-text weather label to a ConditionCategory.
func Classify(label string) ConditionCategory {
	normalized := strings.ToLower(label)
	for _, rule := range conditionRules {
		if strings.Contains(normalized, rule.substr) {
			return rule.category
		}
	}
	return ConditionDefault
}
