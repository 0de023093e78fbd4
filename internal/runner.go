package internal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fedragon/go-mediaref/internal/binding"
	"github.com/fedragon/go-mediaref/internal/fs"
	"github.com/fedragon/go-mediaref/internal/metrics"
	"github.com/fedragon/go-mediaref/internal/models"
	"github.com/fedragon/go-mediaref/pkg/transform"
)

// Runner drives batch runs of the transformer for the command line. Output is
// one JSON document per line. The first failing reference aborts the run.
type Runner struct {
	logger      *zap.Logger
	transformer *transform.Transformer
	metrics     *metrics.Metrics
	metricsFile string
	root        string
	out         io.Writer
}

func NewRunner(logger *zap.Logger, transformer *transform.Transformer, mx *metrics.Metrics, metricsFile string, root string, out io.Writer) *Runner {
	return &Runner{
		logger:      logger,
		transformer: transformer,
		metrics:     mx,
		metricsFile: metricsFile,
		root:        root,
		out:         out,
	}
}

type described struct {
	Ref        string            `json:"ref"`
	Descriptor models.Descriptor `json:"descriptor"`
}

// Statement is a bind input: a statement plus the file it was found in, which
// relative sources are resolved against. Without a filename the runner root is
// used.
type Statement struct {
	binding.Statement
	Filename string `json:"filename,omitempty"`
}

func (r *Runner) run(name string, fn func(enc *json.Encoder) (int, error)) error {
	start := time.Now()
	count, err := fn(json.NewEncoder(r.out))
	r.logger.Info("Elapsed time",
		zap.String("command", name),
		zap.Int("count", count),
		zap.Duration("elapsed", time.Since(start)))

	if r.metricsFile != "" {
		if werr := r.metrics.WriteTo(r.metricsFile); werr != nil {
			r.logger.Error("Unable to write metrics", zap.String("path", r.metricsFile), zap.Error(werr))
			if err == nil {
				err = werr
			}
		}
	}

	return err
}

// Describe resolves refs against the runner root, then every reference listed
// in from (one per line, blank lines and lines starting with # skipped),
// resolved against from itself.
func (r *Runner) Describe(ctx context.Context, refs []string, from string) error {
	return r.run("describe", func(enc *json.Encoder) (int, error) {
		var count int

		emit := func(ref string, rctx models.ResolvingContext) error {
			desc, err := r.transformer.Describe(ctx, ref, rctx)
			if err != nil {
				return err
			}
			count++
			return enc.Encode(described{Ref: ref, Descriptor: desc})
		}

		for _, ref := range refs {
			if err := emit(ref, models.ResolvingContext{Root: r.root}); err != nil {
				return count, err
			}
		}

		if from == "" {
			return count, nil
		}

		listed, err := ReadRefs(from)
		if err != nil {
			return count, err
		}
		for _, ref := range listed {
			if err := emit(ref, models.ResolvingContext{Filename: from, Root: r.root}); err != nil {
				return count, err
			}
		}

		return count, nil
	})
}

func ReadRefs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}()

	var refs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		refs = append(refs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return refs, nil
}

// Scan describes every file under dir carrying a configured extension.
// Descriptor pathnames are computed from the absolute file path, so the
// configured baseDir applies as usual.
func (r *Runner) Scan(ctx context.Context, dir string) error {
	return r.run("scan", func(enc *json.Encoder) (int, error) {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return 0, err
		}

		cfg := r.transformer.Config()
		fileTypes := append(cfg.ImageExtensions(), cfg.VideoExtensions()...)

		found := fs.Walk(abs, fileTypes)
		defer func() {
			for range found {
			}
		}()

		var count int
		for f := range found {
			if f.Err != nil {
				return count, f.Err
			}
			if count > 0 && count%1000 == 0 {
				r.logger.Info("Scanned media so far", zap.Int("count", count))
			}

			desc, err := r.transformer.Describe(ctx, f.Path, models.ResolvingContext{Root: abs})
			if err != nil {
				return count, err
			}
			if err := enc.Encode(described{Ref: f.Path, Descriptor: desc}); err != nil {
				return count, err
			}
			count++
		}

		return count, nil
	})
}

// Bind reads a JSON array of statements from in and writes the rewrite result
// of each one.
func (r *Runner) Bind(ctx context.Context, in io.Reader) error {
	return r.run("bind", func(enc *json.Encoder) (int, error) {
		var stmts []Statement
		if err := json.NewDecoder(in).Decode(&stmts); err != nil {
			return 0, fmt.Errorf("decoding statements: %w", err)
		}

		var replaced int
		for i, s := range stmts {
			result, err := r.transformer.Rewrite(ctx, s.Statement, models.ResolvingContext{Filename: s.Filename, Root: r.root})
			if err != nil {
				return replaced, fmt.Errorf("statement %d: %w", i, err)
			}
			if result.Replaced() {
				replaced++
			}
			if err := enc.Encode(result); err != nil {
				return replaced, err
			}
		}

		return replaced, nil
	})
}
