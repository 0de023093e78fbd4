package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/fedragon/go-mediaref/internal"
	"github.com/fedragon/go-mediaref/internal/config"
	"github.com/fedragon/go-mediaref/internal/metrics"
	"github.com/fedragon/go-mediaref/internal/probe"
	"github.com/fedragon/go-mediaref/pkg/transform"
)

const envPrefix = "MEDIAREF_"

func env(name string) []string {
	return []string{envPrefix + name}
}

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "mediaref",
		Usage:  "resolve media references into descriptors",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "options file (.json, .jsonc, .yaml, .yml)", EnvVars: env("CONFIG")},
			&cli.StringFlag{Name: "root", Usage: "directory references without a containing file resolve against (default: working directory)", EnvVars: env("ROOT")},
			&cli.StringFlag{Name: "base-dir", Usage: "directory removed from the front of every pathname", EnvVars: env("BASE_DIR")},
			&cli.StringFlag{Name: "pathname-prefix", Usage: "prefix joined onto every pathname", EnvVars: env("PATHNAME_PREFIX")},
			&cli.StringFlag{Name: "output-root", Usage: "directory assets are copied into", EnvVars: env("OUTPUT_ROOT")},
			&cli.StringSliceFlag{Name: "image-ext", Usage: "image extensions to handle", EnvVars: env("IMAGE_EXT")},
			&cli.StringSliceFlag{Name: "video-ext", Usage: "video extensions to handle", EnvVars: env("VIDEO_EXT")},
			&cli.BoolFlag{Name: "hash", Usage: "add a content digest to every pathname", EnvVars: env("HASH")},
			&cli.StringFlag{Name: "hash-algo", Usage: "digest algorithm", EnvVars: env("HASH_ALGO")},
			&cli.IntFlag{Name: "hash-length", Usage: "number of digest characters kept", EnvVars: env("HASH_LENGTH")},
			&cli.StringFlag{Name: "hash-delimiter", Usage: "separator between file name and digest", EnvVars: env("HASH_DELIMITER")},
			&cli.BoolFlag{Name: "base64", Usage: "inline small assets as data URIs", EnvVars: env("BASE64")},
			&cli.Int64Flag{Name: "base64-max-size", Usage: "largest inlined asset, in bytes (exclusive)", EnvVars: env("BASE64_MAX_SIZE")},
			&cli.StringFlag{Name: "ffprobe", Usage: "ffprobe binary used for videos", Value: probe.DefaultFFprobePath, EnvVars: env("FFPROBE")},
			&cli.DurationFlag{Name: "probe-timeout", Usage: "abort a video probe after this long (0 disables)", EnvVars: env("PROBE_TIMEOUT")},
			&cli.StringFlag{Name: "metrics-file", Usage: "write run metrics to this file in Prometheus text format", EnvVars: env("METRICS_FILE")},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log every resolution stage", EnvVars: env("VERBOSE")},
		},
		Commands: []*cli.Command{
			{
				Name:      "describe",
				Usage:     "print the descriptor of each reference",
				ArgsUsage: "REF...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Usage: "file listing one reference per line, resolved against the file"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 && c.String("from") == "" {
						return cli.Exit("describe needs at least one reference or --from", 2)
					}
					return withRunner(c, func(r *internal.Runner) error {
						return r.Describe(c.Context, c.Args().Slice(), c.String("from"))
					})
				},
			},
			{
				Name:      "scan",
				Usage:     "print the descriptor of every media file under a directory",
				ArgsUsage: "DIR",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("scan needs exactly one directory", 2)
					}
					return withRunner(c, func(r *internal.Runner) error {
						return r.Scan(c.Context, c.Args().First())
					})
				},
			},
			{
				Name:      "bind",
				Usage:     "rewrite a JSON array of import and export statements (- reads stdin)",
				ArgsUsage: "FILE",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("bind needs exactly one statements file", 2)
					}
					return withRunner(c, func(r *internal.Runner) error {
						if c.Args().First() == "-" {
							return r.Bind(c.Context, os.Stdin)
						}

						f, err := os.Open(c.Args().First())
						if err != nil {
							return err
						}
						defer func() {
							if err := f.Close(); err != nil {
								fmt.Fprintln(os.Stderr, err)
							}
						}()

						return r.Bind(c.Context, f)
					})
				},
			},
		},
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func withRunner(c *cli.Context, fn func(r *internal.Runner) error) error {
	logger, err := newLogger(c.Bool("verbose"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	opts, err := options(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	root := c.String("root")
	if root == "" {
		root = cwd
	}

	mx := metrics.NoMetrics()
	if c.String("metrics-file") != "" {
		mx = metrics.NewMetrics()
	}

	tr, err := transform.New(opts, cwd,
		transform.WithProber(probe.New(c.String("ffprobe"), c.Duration("probe-timeout"))),
		transform.WithLogger(logger),
		transform.WithMetrics(mx))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	r := internal.NewRunner(logger, tr, mx, c.String("metrics-file"), root, c.App.Writer)
	if err := fn(r); err != nil {
		logger.Error("Run failed", zap.Error(err))
		return cli.Exit(err.Error(), 1)
	}

	return nil
}

// options loads the config file, if any, and lays the flags that were set on
// top of it.
func options(c *cli.Context) (config.Options, error) {
	var opts config.Options
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return opts, err
		}
		opts = loaded
	}

	if c.IsSet("base-dir") {
		opts.BaseDir = c.String("base-dir")
	}
	if c.IsSet("pathname-prefix") {
		opts.PathnamePrefix = c.String("pathname-prefix")
	}
	if c.IsSet("output-root") {
		opts.OutputRoot = c.String("output-root")
	}
	if c.IsSet("image-ext") {
		opts.ImageExtensions = nonEmpty(c.StringSlice("image-ext"))
	}
	if c.IsSet("video-ext") {
		opts.VideoExtensions = nonEmpty(c.StringSlice("video-ext"))
	}

	if c.IsSet("hash-algo") || c.IsSet("hash-length") || c.IsSet("hash-delimiter") {
		params := config.HashParams{}
		if opts.Hash.Params != nil {
			params = *opts.Hash.Params
		} else if !opts.Hash.IsSet() && opts.MD5.Params != nil {
			params = *opts.MD5.Params
		}
		if c.IsSet("hash-algo") {
			algo := c.String("hash-algo")
			params.Algo = &algo
		}
		if c.IsSet("hash-length") {
			length := c.Int("hash-length")
			params.Length = &length
		}
		if c.IsSet("hash-delimiter") {
			delimiter := c.String("hash-delimiter")
			params.Delimiter = &delimiter
		}
		opts.Hash = config.HashSetting{Params: &params}
	}
	if c.IsSet("hash") && !c.Bool("hash") {
		opts.Hash = config.HashFlag(false)
		opts.MD5 = config.HashSetting{}
	} else if c.IsSet("hash") {
		switch {
		case opts.Hash.Params != nil:
			opts.Hash = config.HashSetting{Params: opts.Hash.Params}
		case opts.MD5.Params != nil:
			opts.Hash = config.HashSetting{Params: opts.MD5.Params}
		default:
			opts.Hash = config.HashFlag(true)
		}
	}

	if c.IsSet("base64-max-size") {
		maxSize := c.Int64("base64-max-size")
		opts.Base64 = config.Base64Setting{Params: &config.Base64Params{MaxSize: &maxSize}}
	}
	if c.IsSet("base64") && !c.Bool("base64") {
		opts.Base64 = config.Base64Flag(false)
	} else if c.IsSet("base64") {
		if opts.Base64.Params != nil {
			opts.Base64 = config.Base64Setting{Params: opts.Base64.Params}
		} else {
			opts.Base64 = config.Base64Flag(true)
		}
	}

	return opts, nil
}

// nonEmpty drops blank entries, so `--image-ext ""` disables the class.
func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
