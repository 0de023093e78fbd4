package core

import (
	"fmt"
	"path/filepath"

	"github.com/fedragon/go-mediaref/internal/errs"
	"github.com/fedragon/go-mediaref/internal/fs"
)

// Emit copies the asset to outputRoot/pathname, creating missing directories.
// An existing file at the destination is replaced.
func Emit(fsys fs.FS, outputRoot, pathname string, asset *fs.Asset) (string, error) {
	data, err := asset.Bytes()
	if err != nil {
		return "", errs.New(errs.ErrIO, asset.Path(), err)
	}

	target := filepath.Join(outputRoot, pathname)
	if err := fsys.MkdirAll(filepath.Dir(target)); err != nil {
		return "", errs.New(errs.ErrEmitFailed, asset.Path(), fmt.Errorf("creating %s: %w", filepath.Dir(target), err))
	}
	if err := fsys.WriteFile(target, data); err != nil {
		return "", errs.New(errs.ErrEmitFailed, asset.Path(), fmt.Errorf("writing %s: %w", target, err))
	}

	return target, nil
}
