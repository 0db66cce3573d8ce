package domain

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Optional is a text attribute which may be missing from the source document.
// Missing keys, YAML nulls, non-scalar values and blank strings are all absent.
type Optional struct {
	value string
	set   bool
}

// Some makes a present optional value, blank strings stay absent
func Some(s string) Optional {
	if strings.TrimSpace(s) == "" {
		return Optional{}
	}
	return Optional{value: s, set: true}
}

// Get returns the value and presence flag
func (o Optional) Get() (string, bool) {
	return o.value, o.set
}

// Valid reports whether the value is present
func (o Optional) Valid() bool {
	return o.set
}

// Or returns the value or the given default for an absent one
func (o Optional) Or(def string) string {
	if !o.set {
		return def
	}
	return o.value
}

// UnmarshalYAML implements yaml.Unmarshaler
func (o *Optional) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
		*o = Optional{}
		return nil
	}
	*o = Some(node.Value)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (o Optional) MarshalYAML() (interface{}, error) {
	if !o.set {
		return nil, nil
	}
	return o.value, nil
}
