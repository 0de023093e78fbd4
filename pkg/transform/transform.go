// Package transform is the entry point for compiler plugins: it resolves media
// references found in source files and rewrites the statements that import or
// re-export them.
package transform

import (
	"context"

	"go.uber.org/zap"

	"github.com/fedragon/go-mediaref/internal/binding"
	"github.com/fedragon/go-mediaref/internal/config"
	"github.com/fedragon/go-mediaref/internal/core"
	"github.com/fedragon/go-mediaref/internal/fs"
	"github.com/fedragon/go-mediaref/internal/metrics"
	"github.com/fedragon/go-mediaref/internal/models"
	"github.com/fedragon/go-mediaref/internal/probe"
)

type (
	Options          = config.Options
	Config           = config.Config
	Descriptor       = models.Descriptor
	ResolvingContext = models.ResolvingContext
	Statement        = binding.Statement
	Specifier        = binding.Specifier
	Binding          = binding.Binding
	Result           = binding.Result
	Prober           = probe.Prober
	Metadata         = models.Metadata
	AssetClass       = models.AssetClass
	FS               = fs.FS
	Metrics          = metrics.Metrics
)

const (
	Image = models.Image
	Video = models.Video
)

// Transformer is built once per compilation and used for every statement in it.
type Transformer struct {
	config    *config.Config
	describer *core.Describer
	logger    *zap.Logger
}

type Option func(*settings)

type settings struct {
	prober  probe.Prober
	fsys    fs.FS
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func WithProber(p probe.Prober) Option {
	return func(s *settings) { s.prober = p }
}

func WithFS(fsys fs.FS) Option {
	return func(s *settings) { s.fsys = fsys }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// NewMetrics returns a collector to pass to WithMetrics. Read it back through
// Metrics.Gatherer or dump it with Metrics.WriteTo.
func NewMetrics() *Metrics {
	return metrics.NewMetrics()
}

func WithMetrics(mx *Metrics) Option {
	return func(s *settings) { s.metrics = mx }
}

// New normalizes opts against cwd. Without options it probes with the built-in
// decoders and ffprobe from PATH, works on the host filesystem and logs nothing.
func New(opts Options, cwd string, options ...Option) (*Transformer, error) {
	cfg, err := config.Normalize(opts, cwd)
	if err != nil {
		return nil, err
	}

	s := settings{
		prober:  probe.New("", 0),
		fsys:    fs.OS{},
		logger:  zap.NewNop(),
		metrics: metrics.NoMetrics(),
	}
	for _, o := range options {
		o(&s)
	}

	return &Transformer{
		config:    cfg,
		describer: core.NewDescriber(cfg, s.prober, s.fsys, s.logger, s.metrics),
		logger:    s.logger,
	}, nil
}

func (t *Transformer) Config() *Config {
	return t.config
}

// Handles reports whether source names a media file this transformer rewrites.
func (t *Transformer) Handles(source string) bool {
	return t.config.Matches(source)
}

func (t *Transformer) Describe(ctx context.Context, raw string, rctx ResolvingContext) (Descriptor, error) {
	return t.describer.Describe(ctx, raw, rctx)
}

// Rewrite maps stmt onto declarations. The host replaces the statement with
// the returned bindings when Result.Replaced is true and leaves it untouched
// otherwise. Errors are fatal for the statement.
func (t *Transformer) Rewrite(ctx context.Context, stmt Statement, rctx ResolvingContext) (Result, error) {
	result, err := binding.Rewrite(stmt, t.config.Matches, func(source string) (models.Descriptor, error) {
		return t.describer.Describe(ctx, source, rctx)
	})
	if err != nil {
		return Result{}, err
	}

	t.logger.Debug("Rewrote statement",
		zap.String("source", stmt.Source),
		zap.Bool("skipped", result.Skipped),
		zap.Int("bindings", len(result.Bindings)))

	return result, nil
}
