// Package resolve maps a raw media reference onto the file it names and the
// pathname it will be published under.
package resolve

import (
	"path/filepath"
	"strings"

	"github.com/fedragon/go-mediaref/internal/config"
	"github.com/fedragon/go-mediaref/internal/errs"
	"github.com/fedragon/go-mediaref/internal/models"
)

// Source returns the absolute path of the referenced file. Absolute references
// are used verbatim; relative ones are resolved against the directory of the
// referencing file, or the context root when that file is unknown.
func Source(raw string, rctx models.ResolvingContext) (string, error) {
	if strings.HasPrefix(raw, "/") {
		return raw, nil
	}

	var dir string
	switch {
	case rctx.Filename != "":
		dir = filepath.Dir(rctx.Filename)
	case rctx.Root != "":
		dir = rctx.Root
	default:
		return "", errs.New(errs.ErrResolution, raw, nil)
	}

	abs, err := filepath.Abs(filepath.Join(dir, raw))
	if err != nil {
		return "", errs.New(errs.ErrResolution, raw, err)
	}
	return abs, nil
}

// Pathname strips the first occurrence of the base directory from source and
// applies the configured prefix. The removal is textual, so baseDir has to be
// a real prefix of source for the result to make sense.
func Pathname(source string, cfg *config.Config) string {
	pathname := strings.Replace(source, cfg.BaseDir(), "", 1)
	if prefix := cfg.PathnamePrefix(); prefix != "" {
		pathname = filepath.Join(prefix, pathname)
	}
	return pathname
}

// Resolve runs Source and Pathname in one go.
func Resolve(raw string, rctx models.ResolvingContext, cfg *config.Config) (source, pathname string, err error) {
	if source, err = Source(raw, rctx); err != nil {
		return "", "", err
	}
	return source, Pathname(source, cfg), nil
}
