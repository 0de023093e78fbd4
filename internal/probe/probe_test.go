package probe

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/fedragon/go-mediaref/internal/errs"
	"github.com/fedragon/go-mediaref/internal/models"
)

func writeImage(t *testing.T, name string, w, h int, encode func(io.Writer, image.Image) error) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, encode(f, img))

	return path
}

func TestImageProber(t *testing.T) {
	cases := []struct {
		name   string
		file   string
		encode func(io.Writer, image.Image) error
		mime   string
	}{
		{"jpeg", "media-file.jpg", func(w io.Writer, m image.Image) error { return jpeg.Encode(w, m, nil) }, "image/jpeg"},
		{"png", "media-file.png", png.Encode, "image/png"},
		{"gif", "media-file.gif", func(w io.Writer, m image.Image) error { return gif.Encode(w, m, nil) }, "image/gif"},
		{"bmp", "media-file.bmp", bmp.Encode, "image/bmp"},
		{"tiff", "media-file.tiff", func(w io.Writer, m image.Image) error { return tiff.Encode(w, m, nil) }, "image/tiff"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := writeImage(t, c.file, 280, 140, c.encode)

			meta, err := ImageProber{}.Probe(context.Background(), path, models.Image)
			require.NoError(t, err)
			assert.Equal(t, models.Metadata{Width: 280, Height: 140, MIME: c.mime}, meta)
		})
	}
}

func TestImageProberFailures(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0o600))

	for _, path := range []string{garbage, filepath.Join(dir, "missing.png")} {
		_, err := ImageProber{}.Probe(context.Background(), path, models.Image)
		assert.True(t, errors.Is(err, errs.ErrProbeFailed), "expected probe failure for %s, got %v", path, err)
	}
}

func TestImageProberSVG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icon.SVG")
	require.NoError(t, os.WriteFile(path, []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="24" height="12"/>`), 0o600))

	meta, err := ImageProber{}.Probe(context.Background(), path, models.Image)
	require.NoError(t, err)
	assert.Equal(t, models.Metadata{Width: 24, Height: 12, MIME: MIMETypeSVG}, meta)
}

func TestSVGSize(t *testing.T) {
	cases := []struct {
		name   string
		doc    string
		width  uint
		height uint
	}{
		{
			name:   "explicit dimensions",
			doc:    `<svg width="100" height="50"></svg>`,
			width:  100,
			height: 50,
		},
		{
			name:   "pixel units and prolog",
			doc:    "<?xml version=\"1.0\"?>\n<!-- logo -->\n<!DOCTYPE svg>\n<svg width=\"32px\" height=\"16.4px\"/>",
			width:  32,
			height: 16,
		},
		{
			name:   "viewBox only",
			doc:    `<svg viewBox="0 0 640 480"/>`,
			width:  640,
			height: 480,
		},
		{
			name:   "width completed from viewBox",
			doc:    `<svg width="320" viewBox="0,0,640,480"/>`,
			width:  320,
			height: 240,
		},
		{
			name:   "height completed from viewBox",
			doc:    `<svg height="48" viewBox="0 0 200 100"/>`,
			width:  96,
			height: 48,
		},
		{
			name:   "relative units fall back to viewBox",
			doc:    `<svg width="100%" height="100%" viewBox="0 0 10 20"/>`,
			width:  10,
			height: 20,
		},
	}

	for _, c := range cases {
		w, h, err := SVGSize(strings.NewReader(c.doc))
		if err != nil {
			t.Errorf("%v\n\tUnexpected error: %v", c.name, err)
			continue
		}

		if w != c.width || h != c.height {
			t.Errorf("%v\n\tExpected %vx%v but got %vx%v instead", c.name, c.width, c.height, w, h)
		}
	}
}

func TestSVGSizeErrors(t *testing.T) {
	for _, doc := range []string{
		``,
		`<html></html>`,
		`<svg></svg>`,
		`<svg width="10"/>`,
	} {
		_, _, err := SVGSize(strings.NewReader(doc))
		assert.Error(t, err, doc)
	}
}

func TestParseReport(t *testing.T) {
	cases := []struct {
		name   string
		report string
		width  uint
		height uint
	}{
		{
			name:   "flat ffprobe output",
			report: "streams_stream_0_width=280\nstreams_stream_0_height=160\n",
			width:  280,
			height: 160,
		},
		{
			name:   "bare keys",
			report: "width=1920\nheight=1080",
			width:  1920,
			height: 1080,
		},
		{
			name:   "last occurrence wins",
			report: "streams_stream_0_width=10\nstreams_stream_0_height=20\nstreams_stream_1_width=30\nstreams_stream_1_height=40\n",
			width:  30,
			height: 40,
		},
		{
			name:   "quoted values",
			report: "streams_stream_0_width=\"64\"\nstreams_stream_0_height=\"48\"\n",
			width:  64,
			height: 48,
		},
	}

	for _, c := range cases {
		w, h, err := ParseReport([]byte(c.report))
		if err != nil {
			t.Errorf("%v\n\tUnexpected error: %v", c.name, err)
			continue
		}

		if w != c.width || h != c.height {
			t.Errorf("%v\n\tExpected %vx%v but got %vx%v instead", c.name, c.width, c.height, w, h)
		}
	}
}

func TestParseReportErrors(t *testing.T) {
	for _, report := range []string{
		"",
		"streams_stream_0_width=280\n",
		"streams_stream_0_height=280\n",
		"streams_stream_0_width=abc\nstreams_stream_0_height=1\n",
	} {
		_, _, err := ParseReport([]byte(report))
		assert.Error(t, err, report)
	}
}

func videoFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "media-file.webm")
	require.NoError(t, os.WriteFile(path, []byte("webm"), 0o600))
	return path
}

func TestVideoProber(t *testing.T) {
	path := videoFile(t)

	var gotName string
	var gotArgs []string
	p := &VideoProber{run: func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		return []byte("streams_stream_0_width=640\nstreams_stream_0_height=360\n"), nil
	}}

	meta, err := p.Probe(context.Background(), path, models.Video)
	require.NoError(t, err)
	assert.Equal(t, models.Metadata{Width: 640, Height: 360, MIME: "video/webm"}, meta)
	assert.Equal(t, DefaultFFprobePath, gotName)
	assert.Equal(t, path, gotArgs[len(gotArgs)-1])
	assert.Contains(t, gotArgs, "stream=height,width")
}

func TestVideoProberUnavailable(t *testing.T) {
	p := &VideoProber{Binary: "ffprobe-that-does-not-exist-anywhere"}

	_, err := p.Probe(context.Background(), videoFile(t), models.Video)
	assert.True(t, errors.Is(err, errs.ErrProbeUnavailable), "got %v", err)
}

func TestVideoProberFailures(t *testing.T) {
	garbled := &VideoProber{run: func(context.Context, string, ...string) ([]byte, error) {
		return []byte("nothing useful"), nil
	}}
	_, err := garbled.Probe(context.Background(), videoFile(t), models.Video)
	assert.True(t, errors.Is(err, errs.ErrProbeFailed), "got %v", err)

	_, err = garbled.Probe(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), models.Video)
	assert.True(t, errors.Is(err, errs.ErrProbeFailed), "got %v", err)
}

func TestVideoProberTimeout(t *testing.T) {
	p := &VideoProber{
		Timeout: 10 * time.Millisecond,
		run: func(ctx context.Context, _ string, _ ...string) ([]byte, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}

	_, err := p.Probe(context.Background(), videoFile(t), models.Video)
	assert.True(t, errors.Is(err, errs.ErrProbeFailed), "got %v", err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestVideoMIMEType(t *testing.T) {
	assert.Equal(t, "video/mp4", VideoMIMEType("/a/b.MP4"))
	assert.Equal(t, "video/ogg", VideoMIMEType("b.ogv"))
	assert.Equal(t, "video/flv", VideoMIMEType("b.flv"))
}

type stubProber struct {
	class models.AssetClass
}

func (s *stubProber) Probe(_ context.Context, _ string, class models.AssetClass) (models.Metadata, error) {
	s.class = class
	return models.Metadata{Width: 1, Height: 1}, nil
}

func TestDispatcher(t *testing.T) {
	images, videos := &stubProber{class: -1}, &stubProber{class: -1}
	d := &Dispatcher{Image: images, Video: videos}

	_, err := d.Probe(context.Background(), "a.mp4", models.Video)
	require.NoError(t, err)
	assert.Equal(t, models.Video, videos.class)
	assert.Equal(t, models.AssetClass(-1), images.class)

	_, err = d.Probe(context.Background(), "a.png", models.Image)
	require.NoError(t, err)
	assert.Equal(t, models.Image, images.class)
}
