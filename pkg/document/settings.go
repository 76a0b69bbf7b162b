package document

import (
	"fmt"
	"math"
	"strings"

	"github.com/plotdeck/plotdeck/pkg/errors"
)

// SettingKind discriminates the value types a setting can hold.
type SettingKind int

const (
	// KindBool holds a bool.
	KindBool SettingKind = iota
	// KindInt holds an int.
	KindInt
	// KindFloat holds a float64.
	KindFloat
	// KindString holds a string, optionally restricted to an enum.
	KindString
	// KindColor holds a color name or #rrggbb string.
	KindColor
	// KindDataset holds a dataset name. The dataset does not have to
	// exist; plotters with dangling references lay out empty.
	KindDataset
	// KindFloatOrAuto holds a float64 or the string "auto".
	KindFloatOrAuto
)

func (k SettingKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindColor:
		return "color"
	case KindDataset:
		return "dataset"
	case KindFloatOrAuto:
		return "float-or-auto"
	default:
		return "unknown"
	}
}

// Auto is the sentinel value of a float-or-auto setting meaning
// "derive from data".
const Auto = "auto"

// SettingDef declares one setting of a widget type.
type SettingDef struct {
	Key     string
	Kind    SettingKind
	Default any
	Enum    []string // allowed values for KindString, empty for free text
	Help    string
}

// Schema is the ordered setting collection of one widget type.
type Schema struct {
	defs  map[string]SettingDef
	order []string
}

func newSchema(defs ...SettingDef) *Schema {
	s := &Schema{defs: make(map[string]SettingDef, len(defs))}
	for _, d := range defs {
		s.defs[d.Key] = d
		s.order = append(s.order, d.Key)
	}
	return s
}

// Lookup returns the definition for key.
func (s *Schema) Lookup(key string) (SettingDef, bool) {
	d, ok := s.defs[key]
	return d, ok
}

// Keys returns the setting keys in declaration order.
func (s *Schema) Keys() []string {
	return append([]string(nil), s.order...)
}

// normalizeValue coerces a raw value to the canonical representation
// of the definition's kind: bool, int, float64 or string. JSON and
// TOML decoding produce float64/int64 for numbers, so numeric kinds
// accept those and convert.
func normalizeValue(def SettingDef, v any) (any, error) {
	bad := func() error {
		return errors.New(errors.ErrCodeInvalidSetting,
			"setting %q wants %s, got %T", def.Key, def.Kind, v)
	}

	switch def.Kind {
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return nil, bad()

	case KindInt:
		switch n := v.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case float64:
			if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
				return nil, bad()
			}
			return int(n), nil
		}
		return nil, bad()

	case KindFloat:
		switch n := v.(type) {
		case float64:
			if math.IsInf(n, 0) || math.IsNaN(n) {
				return nil, bad()
			}
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
		return nil, bad()

	case KindString:
		s, ok := v.(string)
		if !ok {
			return nil, bad()
		}
		if len(def.Enum) > 0 {
			for _, allowed := range def.Enum {
				if s == allowed {
					return s, nil
				}
			}
			return nil, errors.New(errors.ErrCodeInvalidSetting,
				"setting %q must be one of %s, got %q", def.Key, strings.Join(def.Enum, ", "), s)
		}
		return s, nil

	case KindColor:
		s, ok := v.(string)
		if !ok || s == "" {
			return nil, bad()
		}
		return s, nil

	case KindDataset:
		s, ok := v.(string)
		if !ok {
			return nil, bad()
		}
		if s != "" {
			if err := errors.ValidateDatasetName(s); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidSetting, err, "setting %q", def.Key)
			}
		}
		return s, nil

	case KindFloatOrAuto:
		switch n := v.(type) {
		case string:
			if strings.EqualFold(n, Auto) {
				return Auto, nil
			}
			return nil, bad()
		case float64:
			if math.IsInf(n, 0) || math.IsNaN(n) {
				return nil, bad()
			}
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
		return nil, bad()

	default:
		return nil, errors.New(errors.ErrCodeInternal, "unknown setting kind %d", def.Kind)
	}
}

// Settings is a fully resolved view of one widget's settings: every
// schema key is present with its effective value. The typed getters
// assume schema-valid content and return zero values for unknown
// keys.
type Settings map[string]any

// Bool returns a bool setting.
func (s Settings) Bool(key string) bool {
	b, _ := s[key].(bool)
	return b
}

// Int returns an int setting.
func (s Settings) Int(key string) int {
	n, _ := s[key].(int)
	return n
}

// Float returns a float setting.
func (s Settings) Float(key string) float64 {
	f, _ := s[key].(float64)
	return f
}

// Str returns a string, color or dataset setting.
func (s Settings) Str(key string) string {
	str, _ := s[key].(string)
	return str
}

// FloatOrAuto returns a float-or-auto setting. ok is false when the
// value is auto.
func (s Settings) FloatOrAuto(key string) (float64, bool) {
	f, ok := s[key].(float64)
	return f, ok
}

// ===== Widget type schemas =====

// Shared setting definitions. hide appears on every drawable type;
// plotters share their axis bindings.
var (
	defHide = SettingDef{Key: "hide", Kind: KindBool, Default: false,
		Help: "skip this widget and its children when drawing"}
	defXAxis = SettingDef{Key: "xAxis", Kind: KindString, Default: "x",
		Help: "name of the sibling axis providing the x scale"}
	defYAxis = SettingDef{Key: "yAxis", Kind: KindString, Default: "y",
		Help: "name of the sibling axis providing the y scale"}
)

var widgetSchemas = map[Type]*Schema{
	TypeDocument: newSchema(),

	TypePage: newSchema(
		SettingDef{Key: "width", Kind: KindFloat, Default: 566.0,
			Help: "page width in points"},
		SettingDef{Key: "height", Kind: KindFloat, Default: 453.0,
			Help: "page height in points"},
		SettingDef{Key: "rows", Kind: KindInt, Default: 1,
			Help: "grid rows for arranging graphs"},
		SettingDef{Key: "cols", Kind: KindInt, Default: 1,
			Help: "grid columns for arranging graphs"},
		SettingDef{Key: "background", Kind: KindColor, Default: "white"},
		defHide,
	),

	TypeGraph: newSchema(
		SettingDef{Key: "leftMargin", Kind: KindFloat, Default: 60.0,
			Help: "space for the y axis band in points"},
		SettingDef{Key: "rightMargin", Kind: KindFloat, Default: 15.0},
		SettingDef{Key: "topMargin", Kind: KindFloat, Default: 15.0},
		SettingDef{Key: "bottomMargin", Kind: KindFloat, Default: 40.0,
			Help: "space for the x axis band in points"},
		SettingDef{Key: "background", Kind: KindColor, Default: "white"},
		SettingDef{Key: "border", Kind: KindBool, Default: true,
			Help: "draw a frame around the plot area"},
		SettingDef{Key: "borderColor", Kind: KindColor, Default: "black"},
		SettingDef{Key: "borderWidth", Kind: KindFloat, Default: 0.5},
		defHide,
	),

	TypeAxis: newSchema(
		SettingDef{Key: "direction", Kind: KindString, Default: "horizontal",
			Enum: []string{"horizontal", "vertical"}},
		SettingDef{Key: "min", Kind: KindFloatOrAuto, Default: Auto,
			Help: "explicit lower bound, or auto to derive from data"},
		SettingDef{Key: "max", Kind: KindFloatOrAuto, Default: Auto,
			Help: "explicit upper bound, or auto to derive from data"},
		SettingDef{Key: "log", Kind: KindBool, Default: false,
			Help: "logarithmic scale"},
		SettingDef{Key: "label", Kind: KindString, Default: ""},
		SettingDef{Key: "link", Kind: KindString, Default: "",
			Help: "axes sharing a link group resolve a common range"},
		SettingDef{Key: "ticks", Kind: KindInt, Default: 5,
			Help: "target number of major ticks"},
		SettingDef{Key: "grid", Kind: KindBool, Default: false,
			Help: "draw grid lines at major ticks"},
		SettingDef{Key: "otherPosition", Kind: KindFloat, Default: 0.0,
			Help: "fractional position across the plot area (0 bottom/left, 1 top/right)"},
		SettingDef{Key: "color", Kind: KindColor, Default: "black"},
		SettingDef{Key: "width", Kind: KindFloat, Default: 0.5,
			Help: "axis line width in points"},
		SettingDef{Key: "tickLength", Kind: KindFloat, Default: 5.0},
		SettingDef{Key: "labelSize", Kind: KindFloat, Default: 10.0,
			Help: "axis label font size in points"},
		SettingDef{Key: "numberSize", Kind: KindFloat, Default: 8.0,
			Help: "tick number font size in points"},
		defHide,
	),

	TypeXY: newSchema(
		SettingDef{Key: "xData", Kind: KindDataset, Default: "x"},
		SettingDef{Key: "yData", Kind: KindDataset, Default: "y"},
		defXAxis,
		defYAxis,
		SettingDef{Key: "marker", Kind: KindString, Default: "circle",
			Enum: []string{"none", "circle", "square", "diamond", "cross", "plus"}},
		SettingDef{Key: "markerSize", Kind: KindFloat, Default: 3.0,
			Help: "marker radius in points"},
		SettingDef{Key: "color", Kind: KindColor, Default: "black"},
		SettingDef{Key: "lineWidth", Kind: KindFloat, Default: 1.0},
		SettingDef{Key: "lineStyle", Kind: KindString, Default: "solid",
			Enum: []string{"solid", "dashed", "dotted", "none"}},
		SettingDef{Key: "errorStyle", Kind: KindString, Default: "bar",
			Enum: []string{"bar", "none"}},
		defHide,
	),

	TypeFunction: newSchema(
		SettingDef{Key: "function", Kind: KindString, Default: "x",
			Help: "formula in the variable x"},
		SettingDef{Key: "steps", Kind: KindInt, Default: 50,
			Help: "number of sample points across the x range"},
		SettingDef{Key: "min", Kind: KindFloatOrAuto, Default: Auto,
			Help: "lower x bound of the curve, or auto for the axis range"},
		SettingDef{Key: "max", Kind: KindFloatOrAuto, Default: Auto},
		defXAxis,
		defYAxis,
		SettingDef{Key: "color", Kind: KindColor, Default: "black"},
		SettingDef{Key: "lineWidth", Kind: KindFloat, Default: 1.0},
		SettingDef{Key: "lineStyle", Kind: KindString, Default: "solid",
			Enum: []string{"solid", "dashed", "dotted"}},
		defHide,
	),

	TypeHistogram: newSchema(
		SettingDef{Key: "data", Kind: KindDataset, Default: ""},
		SettingDef{Key: "bins", Kind: KindInt, Default: 10},
		defXAxis,
		defYAxis,
		SettingDef{Key: "color", Kind: KindColor, Default: "black"},
		SettingDef{Key: "fillColor", Kind: KindColor, Default: "grey"},
		SettingDef{Key: "lineWidth", Kind: KindFloat, Default: 0.5},
		defHide,
	),

	TypeLabel: newSchema(
		SettingDef{Key: "text", Kind: KindString, Default: "label"},
		SettingDef{Key: "xPos", Kind: KindFloat, Default: 0.5,
			Help: "fractional x position inside the parent"},
		SettingDef{Key: "yPos", Kind: KindFloat, Default: 0.5,
			Help: "fractional y position inside the parent"},
		SettingDef{Key: "size", Kind: KindFloat, Default: 12.0,
			Help: "font size in points"},
		SettingDef{Key: "color", Kind: KindColor, Default: "black"},
		SettingDef{Key: "angle", Kind: KindFloat, Default: 0.0,
			Help: "rotation in degrees, counterclockwise"},
		SettingDef{Key: "alignHorz", Kind: KindString, Default: "left",
			Enum: []string{"left", "centre", "right"}},
		SettingDef{Key: "alignVert", Kind: KindString, Default: "bottom",
			Enum: []string{"top", "centre", "bottom"}},
		defHide,
	),

	TypeRect: newSchema(
		SettingDef{Key: "xPos", Kind: KindFloat, Default: 0.5},
		SettingDef{Key: "yPos", Kind: KindFloat, Default: 0.5},
		SettingDef{Key: "width", Kind: KindFloat, Default: 0.2,
			Help: "fractional width relative to the parent"},
		SettingDef{Key: "height", Kind: KindFloat, Default: 0.2},
		SettingDef{Key: "color", Kind: KindColor, Default: "black"},
		SettingDef{Key: "fillColor", Kind: KindColor, Default: "white"},
		SettingDef{Key: "lineWidth", Kind: KindFloat, Default: 0.5},
		defHide,
	),
}

// SchemaFor returns the setting schema of a widget type.
func SchemaFor(t Type) (*Schema, bool) {
	s, ok := widgetSchemas[t]
	return s, ok
}

// lookupDef resolves a setting key for a type.
func lookupDef(t Type, key string) (SettingDef, error) {
	schema, ok := widgetSchemas[t]
	if !ok {
		return SettingDef{}, errors.New(errors.ErrCodeInternal, "no schema for widget type %q", t)
	}
	def, ok := schema.Lookup(key)
	if !ok {
		return SettingDef{}, errors.New(errors.ErrCodeInvalidSetting,
			"widget type %q has no setting %q", t, key)
	}
	return def, nil
}

// formatValue renders a canonical setting value for fingerprints and
// messages.
func formatValue(v any) string {
	switch n := v.(type) {
	case float64:
		return fmt.Sprintf("%g", n)
	default:
		return fmt.Sprintf("%v", v)
	}
}
