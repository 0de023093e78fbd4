package core

import (
	"encoding/base64"

	"github.com/fedragon/go-mediaref/internal/config"
	"github.com/fedragon/go-mediaref/internal/fs"
)

// Inline returns a base64 data URI for assets strictly smaller than
// opts.MaxSize. mediaType is "<class>/<type>", e.g. "image/svg". The second
// result is false when the asset is too large.
func Inline(asset *fs.Asset, mediaType string, opts config.Base64Options) (string, bool, error) {
	size, err := asset.Size()
	if err != nil {
		return "", false, err
	}
	if size >= opts.MaxSize {
		return "", false, nil
	}

	data, err := asset.Bytes()
	if err != nil {
		return "", false, err
	}

	return DataURI(mediaType, data), true, nil
}

func DataURI(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
