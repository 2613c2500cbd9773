// File: internal/engine/properties.go

package engine

import (
	"sort"

	"github.com/xkilldash9x/beamline-cli/internal/quantity"
)

type propEntry struct {
	value    any
	readOnly bool
}

// Properties is a typed property bag. Keys must be defined with an initial
// value before they can be set; setting preserves the defined type.
type Properties struct {
	entries map[string]propEntry
}

// NewProperties creates an empty bag.
func NewProperties() *Properties {
	return &Properties{entries: make(map[string]propEntry)}
}

// Define registers a key with its initial value. Redefining a key is a
// parameter error.
func (p *Properties) Define(key string, value any) error {
	return p.define(key, value, false)
}

// DefineReadOnly registers a key whose value can never be changed through
// Set.
func (p *Properties) DefineReadOnly(key string, value any) error {
	return p.define(key, value, true)
}

func (p *Properties) define(key string, value any, readOnly bool) error {
	if key == "" {
		return NewError(ErrCodeInvalidParameters, "property key must not be empty")
	}
	if _, ok := p.entries[key]; ok {
		return NewError(ErrCodeInvalidParameters, "property %q already defined", key)
	}
	p.entries[key] = propEntry{value: value, readOnly: readOnly}
	return nil
}

// Set assigns a new value to a previously defined key. The value must have
// the same dynamic type as the defined one.
func (p *Properties) Set(key string, value any) error {
	entry, ok := p.entries[key]
	if !ok {
		return NewError(ErrCodeUnknownProperty, "property %q is not defined", key)
	}
	if entry.readOnly {
		return NewError(ErrCodeReadOnlyProperty, "property %q is read-only", key)
	}
	if !sameType(entry.value, value) {
		return NewError(ErrCodeWrongPropertyType, "property %q holds %T, cannot assign %T", key, entry.value, value)
	}
	entry.value = value
	p.entries[key] = entry
	return nil
}

func sameType(a, b any) bool {
	switch a.(type) {
	case bool:
		_, ok := b.(bool)
		return ok
	case int:
		_, ok := b.(int)
		return ok
	case float64:
		_, ok := b.(float64)
		return ok
	case string:
		_, ok := b.(string)
		return ok
	case quantity.Length:
		_, ok := b.(quantity.Length)
		return ok
	case quantity.Energy:
		_, ok := b.(quantity.Energy)
		return ok
	case quantity.Angle:
		_, ok := b.(quantity.Angle)
		return ok
	case quantity.Fluence:
		_, ok := b.(quantity.Fluence)
		return ok
	}
	return false
}

// Bool reads a boolean property.
func (p *Properties) Bool(key string) (bool, error) {
	v, err := p.get(key)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, NewError(ErrCodeWrongPropertyType, "property %q holds %T, not bool", key, v)
	}
	return b, nil
}

// Int reads an integer property.
func (p *Properties) Int(key string) (int, error) {
	v, err := p.get(key)
	if err != nil {
		return 0, err
	}
	i, ok := v.(int)
	if !ok {
		return 0, NewError(ErrCodeWrongPropertyType, "property %q holds %T, not int", key, v)
	}
	return i, nil
}

// Float reads a float property.
func (p *Properties) Float(key string) (float64, error) {
	v, err := p.get(key)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, NewError(ErrCodeWrongPropertyType, "property %q holds %T, not float64", key, v)
	}
	return f, nil
}

// String reads a string property.
func (p *Properties) String(key string) (string, error) {
	v, err := p.get(key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", NewError(ErrCodeWrongPropertyType, "property %q holds %T, not string", key, v)
	}
	return s, nil
}

// Length reads a length property.
func (p *Properties) Length(key string) (quantity.Length, error) {
	v, err := p.get(key)
	if err != nil {
		return 0, err
	}
	l, ok := v.(quantity.Length)
	if !ok {
		return 0, NewError(ErrCodeWrongPropertyType, "property %q holds %T, not quantity.Length", key, v)
	}
	return l, nil
}

// Energy reads an energy property.
func (p *Properties) Energy(key string) (quantity.Energy, error) {
	v, err := p.get(key)
	if err != nil {
		return 0, err
	}
	e, ok := v.(quantity.Energy)
	if !ok {
		return 0, NewError(ErrCodeWrongPropertyType, "property %q holds %T, not quantity.Energy", key, v)
	}
	return e, nil
}

func (p *Properties) get(key string) (any, error) {
	entry, ok := p.entries[key]
	if !ok {
		return nil, NewError(ErrCodeUnknownProperty, "property %q is not defined", key)
	}
	return entry.value, nil
}

// Keys returns all defined keys, sorted.
func (p *Properties) Keys() []string {
	keys := make([]string, 0, len(p.entries))
	for k := range p.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Export flattens the bag into a plain map for reports. Quantity types are
// exported as SI floats.
func (p *Properties) Export() map[string]any {
	out := make(map[string]any, len(p.entries))
	for k, entry := range p.entries {
		switch v := entry.value.(type) {
		case quantity.Length:
			out[k] = v.Meters()
		case quantity.Energy:
			out[k] = v.Joules()
		case quantity.Angle:
			out[k] = v.Radians()
		case quantity.Fluence:
			out[k] = v.JoulesPerSquareMeter()
		default:
			out[k] = entry.value
		}
	}
	return out
}
