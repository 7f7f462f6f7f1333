package entities

import "strings"

// CardScale is a named deck definition. The unknown card is a valid vote that
// never participates in numeric statistics downstream.
type CardScale struct {
	Name    string
	Values  []string
	Unknown string
}

const DefaultScaleName = "fibonacci"

var builtinScales = map[string]CardScale{
	"fibonacci": {
		Name:    "fibonacci",
		Values:  []string{"0", "1", "2", "3", "5", "8", "13", "21", "?"},
		Unknown: "?",
	},
	"tshirt": {
		Name:    "tshirt",
		Values:  []string{"XS", "S", "M", "L", "XL", "XXL", "?"},
		Unknown: "?",
	},
	"powers": {
		Name:    "powers",
		Values:  []string{"0", "1", "2", "4", "8", "16", "32", "64", "?"},
		Unknown: "?",
	},
}

func ScaleByName(name string) (CardScale, bool) {
	scale, ok := builtinScales[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return CardScale{}, false
	}
	return CardScale{
		Name:    scale.Name,
		Values:  append([]string(nil), scale.Values...),
		Unknown: scale.Unknown,
	}, true
}

func SupportedScaleNames() []string {
	return []string{"fibonacci", "tshirt", "powers"}
}
