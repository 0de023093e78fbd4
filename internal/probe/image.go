package probe

import (
	"bufio"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/fedragon/go-mediaref/internal/errs"
	"github.com/fedragon/go-mediaref/internal/models"
)

const MIMETypeSVG = "image/svg+xml"

// ImageProber reads image headers with the registered decoders. SVG files are
// recognized by their extension and measured from their root element.
type ImageProber struct{}

func (ImageProber) Probe(_ context.Context, path string, _ models.AssetClass) (models.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Metadata{}, errs.New(errs.ErrProbeFailed, path, err)
	}
	defer f.Close()

	if strings.HasSuffix(strings.ToLower(path), ".svg") {
		width, height, err := SVGSize(bufio.NewReader(f))
		if err != nil {
			return models.Metadata{}, errs.New(errs.ErrProbeFailed, path, err)
		}
		return models.Metadata{Width: width, Height: height, MIME: MIMETypeSVG}, nil
	}

	cfg, format, err := image.DecodeConfig(bufio.NewReader(f))
	if err != nil {
		return models.Metadata{}, errs.New(errs.ErrProbeFailed, path, fmt.Errorf("decoding image header: %w", err))
	}
	if cfg.Width < 0 || cfg.Height < 0 {
		return models.Metadata{}, errs.New(errs.ErrProbeFailed, path, fmt.Errorf("invalid dimensions %dx%d", cfg.Width, cfg.Height))
	}

	return models.Metadata{
		Width:  uint(cfg.Width),
		Height: uint(cfg.Height),
		MIME:   "image/" + format,
	}, nil
}
