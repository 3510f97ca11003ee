package weather

// wmoRanges groups WMO weather interpretation codes, inclusive on both ends.
var wmoRanges = []struct {
	from, to  int
	condition Condition
}{
	{0, 0, ConditionClear},
	{1, 3, ConditionCloudy},
	{45, 48, ConditionFog},
	{51, 67, ConditionRain},
	{71, 77, ConditionSnow},
	{80, 82, ConditionRain},
	{85, 86, ConditionSnow},
	{95, 99, ConditionStorm},
}

// ConditionFromCode normalizes a WMO weather code.
func ConditionFromCode(code int) Condition {
	for _, r := range wmoRanges {
		if code >= r.from && code <= r.to {
			return r.condition
		}
	}
	return ConditionUnknown
}

// AdviceLabel is the short condition wording sent along with advice requests.
func AdviceLabel(code int) string {
	switch {
	case code == 0:
		return "Sunny"
	case code > 0 && code < 4:
		return "Cloudy"
	case (code > 50 && code < 66) || (code > 79 && code < 83):
		return "Rainy"
	default:
		return "Clear"
	}
}
