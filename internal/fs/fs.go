package fs

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// FS is the filesystem surface the resolver needs.
type FS interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	Size(path string) (int64, error)
	MkdirAll(path string) error
}

// OS is the host filesystem. Writes go through a temporary file and a rename,
// so a reader never observes a partially emitted asset.
type OS struct{}

func (OS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (OS) WriteFile(path string, data []byte) error {
	return atomic.WriteFile(path, bytes.NewReader(data))
}

func (OS) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (OS) MkdirAll(path string) error {
	return os.MkdirAll(path, os.ModePerm)
}

// Asset reads a file at most once and hands out the same bytes afterwards.
// It lives for a single resolution.
type Asset struct {
	fsys FS
	path string
	data []byte
	read bool
}

func NewAsset(fsys FS, path string) *Asset {
	return &Asset{fsys: fsys, path: path}
}

func (a *Asset) Path() string {
	return a.path
}

func (a *Asset) Bytes() ([]byte, error) {
	if a.read {
		return a.data, nil
	}

	data, err := a.fsys.ReadFile(a.path)
	if err != nil {
		return nil, err
	}
	a.data, a.read = data, true

	return a.data, nil
}

func (a *Asset) Size() (int64, error) {
	if a.read {
		return int64(len(a.data)), nil
	}
	return a.fsys.Size(a.path)
}

type Found struct {
	Path string
	Err  error
}

// Walk sends every regular file under root whose extension is one of fileTypes
// (lowercase, without the dot). A walk error is sent last.
func Walk(root string, fileTypes []string) <-chan Found {
	found := make(chan Found)

	go func() {
		defer close(found)

		typesMap := make(map[string]bool)
		for _, t := range fileTypes {
			typesMap["."+strings.ToLower(t)] = true
		}

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if !d.IsDir() {
				ext := strings.ToLower(filepath.Ext(d.Name()))
				if typesMap[ext] {
					found <- Found{Path: path}
				}
			}

			return nil
		})

		if err != nil {
			found <- Found{Err: err}
		}
	}()

	return found
}
