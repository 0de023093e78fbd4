// Package core turns a media reference into its descriptor.
package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/fedragon/go-mediaref/internal/config"
	"github.com/fedragon/go-mediaref/internal/digest"
	"github.com/fedragon/go-mediaref/internal/errs"
	"github.com/fedragon/go-mediaref/internal/fs"
	"github.com/fedragon/go-mediaref/internal/metrics"
	"github.com/fedragon/go-mediaref/internal/models"
	"github.com/fedragon/go-mediaref/internal/probe"
	"github.com/fedragon/go-mediaref/internal/resolve"
)

// Describer resolves references one at a time. It keeps no state between
// calls; every file read is scoped to a single Describe.
type Describer struct {
	Config  *config.Config
	Prober  probe.Prober
	FS      fs.FS
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

func NewDescriber(cfg *config.Config, prober probe.Prober, fsys fs.FS, logger *zap.Logger, mx *metrics.Metrics) *Describer {
	return &Describer{
		Config:  cfg,
		Prober:  prober,
		FS:      fsys,
		Logger:  logger,
		Metrics: mx,
	}
}

// Describe resolves raw against rctx and builds its descriptor. Any error is
// fatal for the reference and names the raw path.
func (d *Describer) Describe(ctx context.Context, raw string, rctx models.ResolvingContext) (models.Descriptor, error) {
	source, pathname, err := resolve.Resolve(raw, rctx, d.Config)
	if err != nil {
		return models.Descriptor{}, fmt.Errorf("resolving %q: %w", raw, err)
	}

	desc, err := d.DescribeSource(ctx, source, pathname)
	if err != nil {
		return models.Descriptor{}, fmt.Errorf("resolving %q: %w", raw, err)
	}

	return desc, nil
}

// DescribeSource builds the descriptor of an already resolved source file.
// Stages run in a fixed order: classify, probe, ratios, SVG content, hashing,
// inlining, emission.
func (d *Describer) DescribeSource(ctx context.Context, source, pathname string) (models.Descriptor, error) {
	log := d.Logger.With(zap.String("source", source))
	_ = d.Metrics.Increment("references")

	class := models.Image
	if d.Config.IsVideo(source) {
		class = models.Video
	}

	stop := d.Metrics.Record("probe")
	meta, err := d.Prober.Probe(ctx, source, class)
	_ = stop()
	if err != nil {
		return models.Descriptor{}, err
	}
	if meta.Width == 0 || meta.Height == 0 {
		return models.Descriptor{}, errs.New(errs.ErrProbeFailed, source,
			fmt.Errorf("zero dimension %dx%d", meta.Width, meta.Height))
	}

	mimeType := meta.MIME
	if mimeType == "" {
		mimeType = class.String() + "/" + strings.ToLower(strings.TrimPrefix(filepath.Ext(source), "."))
	}
	log.Debug("Probed media", zap.Stringer("class", class), zap.Uint("width", meta.Width), zap.Uint("height", meta.Height), zap.String("mime", mimeType))

	desc := models.Descriptor{
		Pathname:           pathname,
		Type:               TypeToken(mimeType),
		Width:              meta.Width,
		Height:             meta.Height,
		AspectRatio:        Round3(float64(meta.Width) / float64(meta.Height)),
		HeightToWidthRatio: Round3(float64(meta.Height) / float64(meta.Width)),
	}

	asset := fs.NewAsset(d.FS, source)

	if strings.HasSuffix(strings.ToLower(source), ".svg") {
		data, err := asset.Bytes()
		if err != nil {
			return models.Descriptor{}, errs.New(errs.ErrIO, source, err)
		}
		content := string(data)
		desc.Content = &content
	}

	if opts, ok := d.Config.Hash(); ok {
		data, err := asset.Bytes()
		if err != nil {
			return models.Descriptor{}, errs.New(errs.ErrIO, source, err)
		}

		stop := d.Metrics.Record("hash")
		renamed, sum, err := digest.Rename(desc.Pathname, data, opts)
		_ = stop()
		if err != nil {
			if errors.Is(err, errs.ErrUnsupportedDigestAlgorithm) {
				return models.Descriptor{}, errs.New(errs.ErrUnsupportedDigestAlgorithm, source, err)
			}
			return models.Descriptor{}, errs.New(errs.ErrIO, source, err)
		}

		desc.Pathname = renamed
		desc.Hash = &sum
		log.Debug("Hashed media", zap.String("algo", opts.Algo), zap.String("pathname", renamed))
	}

	desc.Src = desc.Pathname
	if opts, ok := d.Config.Base64(); ok {
		uri, inlined, err := Inline(asset, class.String()+"/"+desc.Type, opts)
		if err != nil {
			return models.Descriptor{}, errs.New(errs.ErrIO, source, err)
		}
		if inlined {
			desc.Src = uri
			_ = d.Metrics.Increment("inlined")
			log.Debug("Inlined media", zap.Int64("max_size", opts.MaxSize))
		}
	}

	if root := d.Config.OutputRoot(); root != "" {
		stop := d.Metrics.Record("emit")
		target, err := Emit(d.FS, root, desc.Pathname, asset)
		_ = stop()
		if err != nil {
			return models.Descriptor{}, err
		}
		_ = d.Metrics.Increment("emitted")
		log.Debug("Emitted media", zap.String("target", target))
	}

	return desc, nil
}

// TypeToken reduces a MIME type to its lowercase subtype without any "+suffix":
// "image/svg+xml" becomes "svg".
func TypeToken(mimeType string) string {
	_, subtype, found := strings.Cut(mimeType, "/")
	if !found {
		subtype = mimeType
	}
	subtype, _, _ = strings.Cut(subtype, "+")
	return strings.ToLower(subtype)
}

// Round3 rounds half away from zero to three decimals.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
