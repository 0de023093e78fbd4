package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Load reads options from a .json, .jsonc, .yaml or .yml file. JSON files may
// carry comments and trailing commas.
func Load(path string) (Options, error) {
	var opts Options

	expanded, err := homedir.Expand(path)
	if err != nil {
		return opts, fmt.Errorf("expanding %s: %w", path, err)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		return opts, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := Parse(data, filepath.Ext(expanded), &opts); err != nil {
		return opts, fmt.Errorf("%s: %w", path, err)
	}

	return opts, nil
}

func Parse(data []byte, ext string, opts *Options) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, opts); err != nil {
			return fmt.Errorf("parsing yaml: %w", err)
		}
	case ".json", ".jsonc", "":
		if err := json.Unmarshal(jsonc.ToJSON(data), opts); err != nil {
			return fmt.Errorf("parsing json: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	return nil
}
