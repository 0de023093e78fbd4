package models

import (
	"bytes"
	"encoding/json"
	"math"
)

type AssetClass int

const (
	Image AssetClass = iota
	Video
)

func (c AssetClass) String() string {
	if c == Video {
		return "video"
	}
	return "image"
}

// Metadata is what a prober reports for a single asset.
type Metadata struct {
	Width  uint
	Height uint
	// MIME is the full media type, e.g. "image/jpeg" or "image/svg+xml".
	MIME string
}

// ResolvingContext locates a reference: the file that contains it and, when that
// is unknown, the root directory relative references are resolved against.
type ResolvingContext struct {
	Filename string
	Root     string
}

type Reference struct {
	Raw     string
	Context ResolvingContext
}

// Descriptor is the resolved record for one media reference. Hash and Content
// are nil when absent, which is distinct from holding an empty string.
type Descriptor struct {
	Pathname           string
	Src                string
	Hash               *string
	Type               string
	Width              uint
	Height             uint
	AspectRatio        float64
	Content            *string
	HeightToWidthRatio float64
}

// Field is one named descriptor entry, in declaration order.
type Field struct {
	Name  string
	Value interface{}
}

// Fields lists every present field in the order hosts emit them.
func (d Descriptor) Fields() []Field {
	fields := make([]Field, 0, 9)
	fields = append(fields,
		Field{"pathname", d.Pathname},
		Field{"src", d.Src},
	)
	if d.Hash != nil {
		fields = append(fields, Field{"hash", *d.Hash})
	}
	fields = append(fields,
		Field{"type", d.Type},
		Field{"width", d.Width},
		Field{"height", d.Height},
		Field{"aspectRatio", d.AspectRatio},
	)
	if d.Content != nil {
		fields = append(fields, Field{"content", *d.Content})
	}
	fields = append(fields, Field{"heightToWidthRatio", d.HeightToWidthRatio})

	return fields
}

// Lookup returns the value of a present field.
func (d Descriptor) Lookup(name string) (interface{}, bool) {
	for _, f := range d.Fields() {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

func (d Descriptor) MarshalJSON() ([]byte, error) {
	return MarshalFields(d.Fields())
}

// MarshalFields encodes fields as a JSON object, preserving their order.
func MarshalFields(fields []Field) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// Truthy reports whether v would survive a falsy filter: empty strings, zero
// and NaN are falsy.
func Truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case uint:
		return x != 0
	case int:
		return x != 0
	case float64:
		return x != 0 && !math.IsNaN(x)
	case bool:
		return x
	default:
		return true
	}
}
