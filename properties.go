package tileset

import (
	"fmt"
	"strconv"
)

const (
	// Property types
	// see doc.mapeditor.org/en/stable/reference/tmx-map-format/#properties
	PropString = "string"
	PropInt    = "int"
	PropBool   = "bool"
	PropFloat  = "float"
)

// Kind is the primitive type held by a Value.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return PropInt
	case KindBool:
		return PropBool
	case KindFloat:
		return PropFloat
	default:
		return PropString
	}
}

// Value is a single typed property value.
// Accessors for the wrong kind report ok=false rather than converting.
type Value struct {
	kind Kind
	i    int
	b    bool
	f    float64
	s    string
}

// IntValue returns an int Value
func IntValue(v int) Value { return Value{kind: KindInt, i: v} }

// BoolValue returns a bool Value
func BoolValue(v bool) Value { return Value{kind: KindBool, b: v} }

// FloatValue returns a float Value
func FloatValue(v float64) Value { return Value{kind: KindFloat, f: v} }

// StringValue returns a string Value
func StringValue(v string) Value { return Value{kind: KindString, s: v} }

// Kind of the value
func (v Value) Kind() Kind { return v.kind }

func (v Value) Int() (int, bool) { return v.i, v.kind == KindInt }

func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) Float() (float64, bool) { return v.f, v.kind == KindFloat }

// Str returns the value if it is a string.
func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// String formats the value the way it is written in a TSX file.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.Itoa(v.i)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	default:
		return v.s
	}
}

// Properties is a more straight forward []*Property (used by the raw XML)
// that handles types a bit more gracefully.
type Properties struct {
	ints    map[string]int
	strings map[string]string
	bools   map[string]bool
	floats  map[string]float64

	// declared type for string values whose TSX type isn't "string"
	// (color, file, object ...) so they are written back as they came in
	declared map[string]string
}

// NewProperties returns an empty properties
func NewProperties() *Properties {
	return &Properties{
		ints:     map[string]int{},
		strings:  map[string]string{},
		bools:    map[string]bool{},
		floats:   map[string]float64{},
		declared: map[string]string{},
	}
}

// Len returns the number of keys set
func (p *Properties) Len() int {
	return len(p.ints) + len(p.strings) + len(p.bools) + len(p.floats)
}

// Keys returns every key set, in no particular order
func (p *Properties) Keys() []string {
	keys := make([]string, 0, p.Len())
	for k := range p.ints {
		keys = append(keys, k)
	}
	for k := range p.bools {
		keys = append(keys, k)
	}
	for k := range p.floats {
		keys = append(keys, k)
	}
	for k := range p.strings {
		keys = append(keys, k)
	}
	return keys
}

// Get returns the typed value of `key` (if set)
func (p *Properties) Get(key string) (Value, bool) {
	if v, ok := p.ints[key]; ok {
		return IntValue(v), true
	}
	if v, ok := p.bools[key]; ok {
		return BoolValue(v), true
	}
	if v, ok := p.floats[key]; ok {
		return FloatValue(v), true
	}
	if v, ok := p.strings[key]; ok {
		return StringValue(v), true
	}
	return Value{}, false
}

// Set `key` to the given value, replacing whatever was there
func (p *Properties) Set(key string, v Value) {
	switch v.kind {
	case KindInt:
		p.SetInt(key, v.i)
	case KindBool:
		p.SetBool(key, v.b)
	case KindFloat:
		p.SetFloat(key, v.f)
	default:
		p.SetString(key, v.s)
	}
}

// Merge properties `o` into this properties
func (p *Properties) Merge(o *Properties) *Properties {
	if o == nil {
		return p
	}
	for k, v := range o.ints {
		p.SetInt(k, v)
	}
	for k, v := range o.strings {
		p.SetString(k, v)
		if t, ok := o.declared[k]; ok {
			p.declared[k] = t
		}
	}
	for k, v := range o.bools {
		p.SetBool(k, v)
	}
	for k, v := range o.floats {
		p.SetFloat(k, v)
	}
	return p
}

// Copy returns a deep copy
func (p *Properties) Copy() *Properties {
	return NewProperties().Merge(p)
}

// toList mutates our nicer properties wrapper back into []*Property understood
// by the XML encoder
func (p *Properties) toList() []*Property {
	ps := []*Property{}
	for k, v := range p.ints {
		ps = append(ps, &Property{Name: k, Value: strconv.Itoa(v), Type: PropInt})
	}
	for k, v := range p.bools {
		ps = append(ps, &Property{Name: k, Value: strconv.FormatBool(v), Type: PropBool})
	}
	for k, v := range p.floats {
		ps = append(ps, &Property{Name: k, Value: FloatValue(v).String(), Type: PropFloat})
	}
	for k, v := range p.strings {
		prop := &Property{Name: k, Value: v}
		if t, ok := p.declared[k]; ok {
			prop.Type = t
		}
		ps = append(ps, prop)
	}
	return ps
}

// newPropertiesFromList turns the XML []Property into our nicer properties
// wrapper struct. Values that don't parse as their declared type are an error.
func newPropertiesFromList(in []*Property) (*Properties, error) {
	ps := NewProperties()

	for _, i := range in {
		if i.Name == "" {
			return nil, fmt.Errorf("property without a name")
		}

		switch i.Type {
		case PropInt:
			v, err := strconv.Atoi(i.Value)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", i.Name, err)
			}
			ps.SetInt(i.Name, v)
		case PropBool:
			v, err := strconv.ParseBool(i.Value)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", i.Name, err)
			}
			ps.SetBool(i.Name, v)
		case PropFloat:
			v, err := strconv.ParseFloat(i.Value, 64)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", i.Name, err)
			}
			ps.SetFloat(i.Name, v)
		case "", PropString:
			ps.SetString(i.Name, i.Value)
		default:
			// color, file, object, class: kept verbatim
			ps.SetString(i.Name, i.Value)
			ps.declared[i.Name] = i.Type
		}
	}

	return ps, nil
}

func (p *Properties) String(key string) (string, bool) {
	v, ok := p.strings[key]
	return v, ok
}

func (p *Properties) SetString(key, value string) {
	p.strings[key] = value
	delete(p.ints, key)
	delete(p.bools, key)
	delete(p.floats, key)
	delete(p.declared, key)
}

func (p *Properties) Int(key string) (int, bool) {
	v, ok := p.ints[key]
	return v, ok
}

func (p *Properties) SetInt(key string, value int) {
	p.ints[key] = value
	p.clear(key)
	delete(p.bools, key)
	delete(p.floats, key)
}

func (p *Properties) Bool(key string) (bool, bool) {
	v, ok := p.bools[key]
	return v, ok
}

func (p *Properties) SetBool(key string, value bool) {
	p.bools[key] = value
	p.clear(key)
	delete(p.ints, key)
	delete(p.floats, key)
}

func (p *Properties) Float(key string) (float64, bool) {
	v, ok := p.floats[key]
	return v, ok
}

func (p *Properties) SetFloat(key string, value float64) {
	p.floats[key] = value
	p.clear(key)
	delete(p.ints, key)
	delete(p.bools, key)
}

// clear drops any string value (and its declared type) for key
func (p *Properties) clear(key string) {
	delete(p.strings, key)
	delete(p.declared, key)
}
