package document

import (
	"os"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/plotdeck/plotdeck/pkg/errors"
)

// Stylesheet holds document-wide setting overrides per widget type.
// Resolution consults it between a node's explicit values and the
// schema defaults, so one stylesheet entry restyles every widget of a
// type at once.
type Stylesheet struct {
	rules map[Type]map[string]any
}

// NewStylesheet creates an empty stylesheet.
func NewStylesheet() *Stylesheet {
	return &Stylesheet{rules: make(map[Type]map[string]any)}
}

// Set stores an override after validating the key and value against
// the type's schema.
func (ss *Stylesheet) Set(t Type, key string, value any) error {
	if !ValidType(t) {
		return errors.New(errors.ErrCodeInvalidSetting, "unknown widget type %q", t)
	}
	def, err := lookupDef(t, key)
	if err != nil {
		return err
	}
	v, err := normalizeValue(def, value)
	if err != nil {
		return err
	}
	if ss.rules[t] == nil {
		ss.rules[t] = make(map[string]any)
	}
	ss.rules[t][key] = v
	return nil
}

// Unset removes an override. Removing an absent entry is not an
// error.
func (ss *Stylesheet) Unset(t Type, key string) {
	delete(ss.rules[t], key)
}

// Get returns the override for a type/key pair.
func (ss *Stylesheet) Get(t Type, key string) (any, bool) {
	v, ok := ss.rules[t][key]
	return v, ok
}

// Types returns the widget types with at least one override, sorted.
func (ss *Stylesheet) Types() []Type {
	out := make([]Type, 0, len(ss.rules))
	for t, rules := range ss.rules {
		if len(rules) > 0 {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return out
}

// Keys returns the overridden keys of a type, sorted.
func (ss *Stylesheet) Keys(t Type) []string {
	out := make([]string, 0, len(ss.rules[t]))
	for k := range ss.rules[t] {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Len returns the total number of overrides.
func (ss *Stylesheet) Len() int {
	n := 0
	for _, rules := range ss.rules {
		n += len(rules)
	}
	return n
}

// ParseStylesheet decodes a TOML stylesheet. Each table names a
// widget type and holds setting overrides:
//
//	[axis]
//	color = "#444444"
//	numberSize = 9.0
//
//	[xy]
//	marker = "square"
//
// Unknown types or keys fail with an INVALID_SETTING error so typos
// do not pass silently.
func ParseStylesheet(data []byte) (*Stylesheet, error) {
	var raw map[string]map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parsing stylesheet")
	}

	ss := NewStylesheet()
	for typ, rules := range raw {
		t := Type(typ)
		if !ValidType(t) {
			return nil, errors.New(errors.ErrCodeInvalidSetting, "stylesheet names unknown widget type %q", typ)
		}
		for key, value := range rules {
			if err := ss.Set(t, key, value); err != nil {
				return nil, errors.Wrap(errors.GetCode(err), err, "stylesheet [%s]", typ)
			}
		}
	}
	return ss, nil
}

// LoadStylesheet reads and parses a TOML stylesheet file.
func LoadStylesheet(path string) (*Stylesheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "stylesheet %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "reading stylesheet %s", path)
	}
	return ParseStylesheet(data)
}
