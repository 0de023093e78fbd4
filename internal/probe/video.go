package probe

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fedragon/go-mediaref/internal/errs"
	"github.com/fedragon/go-mediaref/internal/models"
)

const DefaultFFprobePath = "ffprobe"

var videoMIMETypes = map[string]string{
	".avi":  "video/x-msvideo",
	".m4v":  "video/x-m4v",
	".mkv":  "video/x-matroska",
	".mov":  "video/quicktime",
	".mp4":  "video/mp4",
	".ogg":  "video/ogg",
	".ogv":  "video/ogg",
	".webm": "video/webm",
}

// VideoMIMEType maps a video file extension to its media type. Unknown
// extensions map to "video/<ext>".
func VideoMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := videoMIMETypes[ext]; ok {
		return t
	}
	return "video/" + strings.TrimPrefix(ext, ".")
}

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// VideoProber asks ffprobe for the dimensions of the first video stream.
type VideoProber struct {
	// Binary is the ffprobe executable; empty means DefaultFFprobePath.
	Binary string
	// Timeout bounds a single ffprobe run; zero waits indefinitely.
	Timeout time.Duration

	run runFunc
}

func (p *VideoProber) Probe(ctx context.Context, path string, _ models.AssetClass) (models.Metadata, error) {
	if _, err := os.Stat(path); err != nil {
		return models.Metadata{}, errs.New(errs.ErrProbeFailed, path, err)
	}

	binary := p.Binary
	if binary == "" {
		binary = DefaultFFprobePath
	}

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	run := p.run
	if run == nil {
		run = runCommand
	}

	report, err := run(ctx, binary,
		"-v", "error",
		"-of", "flat=s=_",
		"-select_streams", "v:0",
		"-show_entries", "stream=height,width",
		path,
	)
	if err != nil {
		if ctx.Err() != nil {
			return models.Metadata{}, errs.New(errs.ErrProbeFailed, path, fmt.Errorf("ffprobe: %w", ctx.Err()))
		}
		if isUnavailable(err) {
			return models.Metadata{}, errs.New(errs.ErrProbeUnavailable, path, err)
		}
		return models.Metadata{}, errs.New(errs.ErrProbeFailed, path, err)
	}

	width, height, err := ParseReport(report)
	if err != nil {
		return models.Metadata{}, errs.New(errs.ErrProbeFailed, path, err)
	}

	return models.Metadata{Width: width, Height: height, MIME: VideoMIMEType(path)}, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	//nolint:gosec // the binary is operator-configured
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, err
	}

	return stdout.Bytes(), nil
}

func isUnavailable(err error) bool {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false
	}
	return errors.Is(err, exec.ErrNotFound) ||
		errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission)
}

// ParseReport reads width and height from a flat key=value ffprobe report.
// Keys may be namespaced ("streams_stream_0_width"); when a key repeats, the
// last occurrence wins.
func ParseReport(report []byte) (uint, uint, error) {
	var width, height string

	scanner := bufio.NewScanner(bytes.NewReader(report))
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"`)

		switch {
		case key == "width" || strings.HasSuffix(key, "_width"):
			width = value
		case key == "height" || strings.HasSuffix(key, "_height"):
			height = value
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, 0, fmt.Errorf("reading ffprobe report: %w", err)
	}

	if width == "" || height == "" {
		return 0, 0, errors.New("ffprobe report has no width or height")
	}

	w, err := strconv.ParseUint(width, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width %q: %w", width, err)
	}
	h, err := strconv.ParseUint(height, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height %q: %w", height, err)
	}

	return uint(w), uint(h), nil
}
