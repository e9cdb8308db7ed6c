package core

// Category appearance is a closed set resolved by pure lookups; unknown
// values fall back to a default variant instead of failing.

type (
	IconKey    string
	ColorToken string
)

const (
	IconGroceries     IconKey = "groceries"
	IconDining        IconKey = "dining"
	IconTransport     IconKey = "transport"
	IconHousing       IconKey = "housing"
	IconUtilities     IconKey = "utilities"
	IconHealth        IconKey = "health"
	IconEntertainment IconKey = "entertainment"
	IconShopping      IconKey = "shopping"
	IconTravel        IconKey = "travel"
	IconSalary        IconKey = "salary"
	IconInvestment    IconKey = "investment"
	IconGift          IconKey = "gift"
	IconDefault       IconKey = "default"
)

const (
	ColorGreen  ColorToken = "green"
	ColorBlue   ColorToken = "blue"
	ColorRed    ColorToken = "red"
	ColorOrange ColorToken = "orange"
	ColorPurple ColorToken = "purple"
	ColorTeal   ColorToken = "teal"
	ColorYellow ColorToken = "yellow"
	ColorGray   ColorToken = "gray"
)

var knownIcons = map[IconKey]struct{}{
	IconGroceries: {}, IconDining: {}, IconTransport: {}, IconHousing: {},
	IconUtilities: {}, IconHealth: {}, IconEntertainment: {}, IconShopping: {},
	IconTravel: {}, IconSalary: {}, IconInvestment: {}, IconGift: {},
	IconDefault: {},
}

var knownColors = map[ColorToken]struct{}{
	ColorGreen: {}, ColorBlue: {}, ColorRed: {}, ColorOrange: {},
	ColorPurple: {}, ColorTeal: {}, ColorYellow: {}, ColorGray: {},
}

// ResolveIcon maps an arbitrary icon key to a known one, defaulting when
// the key is outside the closed set.
func ResolveIcon(k IconKey) IconKey {
	if _, ok := knownIcons[k]; ok {
		return k
	}
	return IconDefault
}

// ResolveColor maps an arbitrary color token to a known one.
func ResolveColor(c ColorToken) ColorToken {
	if _, ok := knownColors[c]; ok {
		return c
	}
	return ColorGray
}
