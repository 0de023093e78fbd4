package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Options is the user-facing configuration shape, as written in a config file
// or assembled from command line flags. Nil slices and unset settings fall back
// to defaults during Normalize; an empty non-nil slice disables a class.
type Options struct {
	BaseDir         string      `json:"baseDir" yaml:"baseDir"`
	PathnamePrefix  string      `json:"pathnamePrefix" yaml:"pathnamePrefix"`
	OutputRoot      string      `json:"outputRoot" yaml:"outputRoot"`
	ImageExtensions []string    `json:"imageExtensions" yaml:"imageExtensions"`
	VideoExtensions []string    `json:"videoExtensions" yaml:"videoExtensions"`
	Hash            HashSetting `json:"hash" yaml:"hash"`
	// MD5 is the legacy name of Hash, consulted only when Hash is unset.
	MD5    HashSetting   `json:"md5" yaml:"md5"`
	Base64 Base64Setting `json:"base64" yaml:"base64"`
}

type HashParams struct {
	Delimiter *string `json:"delimiter" yaml:"delimiter"`
	Length    *int    `json:"length" yaml:"length"`
	Algo      *string `json:"algo" yaml:"algo"`
}

// HashSetting is either a bare flag or a parameter object.
type HashSetting struct {
	Flag   *bool
	Params *HashParams
}

func HashFlag(enabled bool) HashSetting {
	return HashSetting{Flag: &enabled}
}

func (s HashSetting) IsSet() bool {
	return s.Flag != nil || s.Params != nil
}

func (s HashSetting) enabled() bool {
	if s.Params != nil {
		return true
	}
	return s.Flag != nil && *s.Flag
}

func (s *HashSetting) UnmarshalJSON(data []byte) error {
	*s = HashSetting{}
	return unmarshalVariant(data, &s.Flag, &s.Params)
}

func (s *HashSetting) UnmarshalYAML(node *yaml.Node) error {
	*s = HashSetting{}
	return decodeVariant(node, &s.Flag, &s.Params)
}

type Base64Params struct {
	MaxSize *int64 `json:"maxSize" yaml:"maxSize"`
}

// Base64Setting is either a bare flag or a parameter object.
type Base64Setting struct {
	Flag   *bool
	Params *Base64Params
}

func Base64Flag(enabled bool) Base64Setting {
	return Base64Setting{Flag: &enabled}
}

func (s Base64Setting) IsSet() bool {
	return s.Flag != nil || s.Params != nil
}

func (s Base64Setting) enabled() bool {
	if s.Params != nil {
		return true
	}
	return s.Flag != nil && *s.Flag
}

func (s *Base64Setting) UnmarshalJSON(data []byte) error {
	*s = Base64Setting{}
	return unmarshalVariant(data, &s.Flag, &s.Params)
}

func (s *Base64Setting) UnmarshalYAML(node *yaml.Node) error {
	*s = Base64Setting{}
	return decodeVariant(node, &s.Flag, &s.Params)
}

func unmarshalVariant[T any](data []byte, flag **bool, params **T) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		return nil
	case len(data) > 0 && data[0] == '{':
		p := new(T)
		if err := json.Unmarshal(data, p); err != nil {
			return err
		}
		*params = p
		return nil
	default:
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("expected a boolean or an object, got %s", data)
		}
		*flag = &b
		return nil
	}
}

func decodeVariant[T any](node *yaml.Node, flag **bool, params **T) error {
	switch node.Kind {
	case yaml.MappingNode:
		p := new(T)
		if err := node.Decode(p); err != nil {
			return err
		}
		*params = p
		return nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil
		}
		var b bool
		if err := node.Decode(&b); err != nil {
			return fmt.Errorf("line %d: expected a boolean or a mapping: %w", node.Line, err)
		}
		*flag = &b
		return nil
	default:
		return fmt.Errorf("line %d: expected a boolean or a mapping", node.Line)
	}
}
