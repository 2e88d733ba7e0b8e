package visual

import (
	"fmt"
	"strconv"
)

// Attribute describes one visual attribute: its feature name, the camelCase
// key used by the extraction tool, a parser and a default value.
type Attribute struct {
	Name    string
	Key     string
	Parse   func(any) (float64, error)
	Default float64
}

// Attributes is the closed registry of supported visual attributes, in a
// fixed order.
var Attributes = []Attribute{
	{Name: "font_size", Key: "fontSize", Parse: parseNumber, Default: 0},
	{Name: "font_weight", Key: "fontWeight", Parse: parseNumber, Default: 400},
	{Name: "opacity", Key: "opacity", Parse: parseNumber, Default: 1},
	{Name: "visibility", Key: "visibility", Parse: parseVisibility, Default: 1},
}

// AttributeDefault returns the default value for a named attribute, or 0.
func AttributeDefault(name string) float64 {
	for _, a := range Attributes {
		if a.Name == name {
			return a.Default
		}
	}
	return 0
}

func parseNumber(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unsupported value %v", v)
	}
}

func parseVisibility(v any) (float64, error) {
	switch x := v.(type) {
	case string:
		if x == "hidden" || x == "collapse" {
			return 0, nil
		}
		return 1, nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	default:
		return parseNumber(v)
	}
}
