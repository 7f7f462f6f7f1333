package entities

// CardScale is the ordered set of permitted vote values for a room plus a
// designated non-numeric "unknown" sentinel. It arrives as per-room
// configuration, never as a hardcoded constant in the engine.
type CardScale struct {
	Name    string
	Values  []string
	Unknown string
}

func (s CardScale) Contains(value string) bool {
	for _, v := range s.Values {
		if v == value {
			return true
		}
	}
	return false
}

// Position returns the index of value in the scale order, or len(Values)
// for values outside the scale so they always lose mode tie-breaks.
func (s CardScale) Position(value string) int {
	for i, v := range s.Values {
		if v == value {
			return i
		}
	}
	return len(s.Values)
}

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

const DefaultScaleName = "fibonacci"

func ScaleByName(name string) (CardScale, bool) {
	scale, ok := builtinScales[name]
	return scale, ok
}
