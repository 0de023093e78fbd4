// Package config turns user options into the immutable configuration shared by
// every reference resolved during a run.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
)

const (
	DefaultHashDelimiter = "-"
	DefaultHashAlgo      = "md5"
	DefaultMaxInlineSize = 8192
)

var (
	DefaultImageExtensions = []string{"jpeg", "bmp", "gif", "jpg", "png", "svg", "tiff", "webp"}
	DefaultVideoExtensions = []string{"mp4", "webm", "ogv"}
)

type HashOptions struct {
	Delimiter string
	// Length is the number of digest characters kept; 0 keeps the whole digest.
	Length int
	Algo   string
}

type Base64Options struct {
	MaxSize int64
}

// Config is the normalized configuration. It has no setters: build it once with
// Normalize and share it by pointer.
type Config struct {
	baseDir         string
	pathnamePrefix  string
	outputRoot      string
	imageExtensions []string
	videoExtensions []string
	hash            *HashOptions
	base64          *Base64Options
}

// Normalize fills defaults, resolves directories against cwd and picks the
// effective hashing and inlining settings.
func Normalize(opts Options, cwd string) (*Config, error) {
	baseDir := opts.BaseDir
	if baseDir == "" {
		baseDir = cwd
	}
	baseDir, err := absolute(baseDir, cwd)
	if err != nil {
		return nil, fmt.Errorf("invalid baseDir: %w", err)
	}

	var outputRoot string
	if opts.OutputRoot != "" {
		if outputRoot, err = absolute(opts.OutputRoot, cwd); err != nil {
			return nil, fmt.Errorf("invalid outputRoot: %w", err)
		}
	}

	images := DefaultImageExtensions
	if opts.ImageExtensions != nil {
		images = opts.ImageExtensions
	}
	videos := DefaultVideoExtensions
	if opts.VideoExtensions != nil {
		videos = opts.VideoExtensions
	}

	cfg := &Config{
		baseDir:         baseDir,
		pathnamePrefix:  opts.PathnamePrefix,
		outputRoot:      outputRoot,
		imageExtensions: extensions(images),
		videoExtensions: extensions(videos),
	}

	hash := opts.Hash
	if !hash.IsSet() {
		hash = opts.MD5
	}
	if hash.enabled() {
		h := HashOptions{Delimiter: DefaultHashDelimiter, Algo: DefaultHashAlgo}
		if p := hash.Params; p != nil {
			if p.Delimiter != nil {
				h.Delimiter = *p.Delimiter
			}
			if p.Length != nil {
				h.Length = *p.Length
			}
			if p.Algo != nil && *p.Algo != "" {
				h.Algo = *p.Algo
			}
		}
		cfg.hash = &h
	}

	if opts.Base64.enabled() {
		b := Base64Options{MaxSize: DefaultMaxInlineSize}
		if p := opts.Base64.Params; p != nil && p.MaxSize != nil {
			b.MaxSize = *p.MaxSize
		}
		cfg.base64 = &b
	}

	return cfg, nil
}

func absolute(dir, cwd string) (string, error) {
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(cwd, expanded)
	}
	return filepath.Clean(expanded), nil
}

func extensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

func (c *Config) BaseDir() string        { return c.baseDir }
func (c *Config) PathnamePrefix() string { return c.pathnamePrefix }

// OutputRoot is empty when emission is disabled.
func (c *Config) OutputRoot() string { return c.outputRoot }

func (c *Config) ImageExtensions() []string {
	return append([]string(nil), c.imageExtensions...)
}

func (c *Config) VideoExtensions() []string {
	return append([]string(nil), c.videoExtensions...)
}

// Hash returns the hashing options and whether hashing is enabled.
func (c *Config) Hash() (HashOptions, bool) {
	if c.hash == nil {
		return HashOptions{}, false
	}
	return *c.hash, true
}

// Base64 returns the inlining options and whether inlining is enabled.
func (c *Config) Base64() (Base64Options, bool) {
	if c.base64 == nil {
		return Base64Options{}, false
	}
	return *c.base64, true
}

func (c *Config) IsVideo(path string) bool {
	return hasExtension(path, c.videoExtensions)
}

func (c *Config) IsImage(path string) bool {
	return hasExtension(path, c.imageExtensions)
}

// Matches reports whether path carries one of the configured image or video
// extensions. References that do not match are left alone.
func (c *Config) Matches(path string) bool {
	return c.IsImage(path) || c.IsVideo(path)
}

func hasExtension(path string, exts []string) bool {
	lower := strings.ToLower(path)
	for _, e := range exts {
		if strings.HasSuffix(lower, "."+e) {
			return true
		}
	}
	return false
}
