// Package probe extracts pixel dimensions and media types from assets.
package probe

import (
	"context"
	"time"

	"github.com/fedragon/go-mediaref/internal/models"
)

// Prober reports the dimensions and MIME type of the asset at path.
// Implementations fail with errs.ErrProbeUnavailable when their backing tool is
// missing and errs.ErrProbeFailed when the asset cannot be read or understood.
type Prober interface {
	Probe(ctx context.Context, path string, class models.AssetClass) (models.Metadata, error)
}

// Dispatcher routes each asset to the prober for its class.
type Dispatcher struct {
	Image Prober
	Video Prober
}

// New returns a Dispatcher backed by the built-in image decoders and ffprobe.
// An empty binary means "ffprobe" from PATH; a zero timeout means no timeout.
func New(ffprobe string, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		Image: ImageProber{},
		Video: &VideoProber{Binary: ffprobe, Timeout: timeout},
	}
}

func (d *Dispatcher) Probe(ctx context.Context, path string, class models.AssetClass) (models.Metadata, error) {
	if class == models.Video {
		return d.Video.Probe(ctx, path, class)
	}
	return d.Image.Probe(ctx, path, class)
}
