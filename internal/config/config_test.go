package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaults(t *testing.T) {
	cfg, err := Normalize(Options{}, "/work")
	require.NoError(t, err)

	assert.Equal(t, "/work", cfg.BaseDir())
	assert.Equal(t, "", cfg.PathnamePrefix())
	assert.Equal(t, "", cfg.OutputRoot())
	assert.Equal(t, DefaultImageExtensions, cfg.ImageExtensions())
	assert.Equal(t, DefaultVideoExtensions, cfg.VideoExtensions())

	_, ok := cfg.Hash()
	assert.False(t, ok)
	_, ok = cfg.Base64()
	assert.False(t, ok)
}

func TestNormalizeResolvesDirectories(t *testing.T) {
	cfg, err := Normalize(Options{BaseDir: "test", OutputRoot: "out/../dist"}, "/work")
	require.NoError(t, err)

	assert.Equal(t, "/work/test", cfg.BaseDir())
	assert.Equal(t, "/work/dist", cfg.OutputRoot())
}

func TestNormalizeHash(t *testing.T) {
	ten := 10
	dot := "."
	sha := "sha256"

	cases := []struct {
		name     string
		opts     Options
		enabled  bool
		expected HashOptions
	}{
		{
			name: "hash disabled by default",
		},
		{
			name:     "hash flag enables default options",
			opts:     Options{Hash: HashFlag(true)},
			enabled:  true,
			expected: HashOptions{Delimiter: "-", Algo: "md5"},
		},
		{
			name:     "hash params override defaults",
			opts:     Options{Hash: HashSetting{Params: &HashParams{Delimiter: &dot, Length: &ten, Algo: &sha}}},
			enabled:  true,
			expected: HashOptions{Delimiter: ".", Length: 10, Algo: "sha256"},
		},
		{
			name:     "legacy md5 applies when hash is unset",
			opts:     Options{MD5: HashSetting{Params: &HashParams{Length: &ten}}},
			enabled:  true,
			expected: HashOptions{Delimiter: "-", Length: 10, Algo: "md5"},
		},
		{
			name: "explicit hash false wins over legacy md5",
			opts: Options{Hash: HashFlag(false), MD5: HashFlag(true)},
		},
	}

	for _, c := range cases {
		cfg, err := Normalize(c.opts, "/work")
		require.NoError(t, err, c.name)

		h, ok := cfg.Hash()
		if ok != c.enabled {
			t.Errorf("%v\n\tExpected enabled=%v but got %v instead", c.name, c.enabled, ok)
		}
		if h != c.expected {
			t.Errorf("%v\n\tExpected %+v but got %+v instead", c.name, c.expected, h)
		}
	}
}

func TestNormalizeBase64(t *testing.T) {
	var size int64 = 10000

	cfg, err := Normalize(Options{Base64: Base64Flag(true)}, "/work")
	require.NoError(t, err)
	b, ok := cfg.Base64()
	assert.True(t, ok)
	assert.Equal(t, int64(DefaultMaxInlineSize), b.MaxSize)

	cfg, err = Normalize(Options{Base64: Base64Setting{Params: &Base64Params{MaxSize: &size}}}, "/work")
	require.NoError(t, err)
	b, ok = cfg.Base64()
	assert.True(t, ok)
	assert.Equal(t, size, b.MaxSize)
}

func TestMatches(t *testing.T) {
	cfg, err := Normalize(Options{
		ImageExtensions: []string{".JPG", "png", "png"},
		VideoExtensions: []string{},
	}, "/work")
	require.NoError(t, err)

	assert.Equal(t, []string{"jpg", "png"}, cfg.ImageExtensions())
	assert.Empty(t, cfg.VideoExtensions())

	assert.True(t, cfg.Matches("a/b/photo.jpg"))
	assert.True(t, cfg.Matches("a/b/PHOTO.JPG"))
	assert.True(t, cfg.IsImage("x.png"))
	assert.False(t, cfg.Matches("clip.webm"))
	assert.False(t, cfg.Matches("notes.txt"))
	assert.False(t, cfg.Matches("jpg"))
}

func TestParseJSONC(t *testing.T) {
	data := []byte(`{
		// emitted next to the bundle
		"outputRoot": "dist",
		"imageExtensions": [],
		"hash": {"length": 8, "algo": "sha1",},
		"base64": true,
	}`)

	var opts Options
	require.NoError(t, Parse(data, ".jsonc", &opts))

	assert.Equal(t, "dist", opts.OutputRoot)
	assert.NotNil(t, opts.ImageExtensions)
	assert.Empty(t, opts.ImageExtensions)
	require.NotNil(t, opts.Hash.Params)
	assert.Equal(t, 8, *opts.Hash.Params.Length)
	assert.Equal(t, "sha1", *opts.Hash.Params.Algo)
	assert.Nil(t, opts.Hash.Params.Delimiter)
	require.NotNil(t, opts.Base64.Flag)
	assert.True(t, *opts.Base64.Flag)
	assert.False(t, opts.MD5.IsSet())
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
baseDir: src
md5: true
base64:
  maxSize: 4096
`)

	var opts Options
	require.NoError(t, Parse(data, ".yml", &opts))

	assert.Equal(t, "src", opts.BaseDir)
	require.NotNil(t, opts.MD5.Flag)
	assert.True(t, *opts.MD5.Flag)
	require.NotNil(t, opts.Base64.Params)
	assert.Equal(t, int64(4096), *opts.Base64.Params.MaxSize)
	assert.Nil(t, opts.ImageExtensions)
}

func TestParseRejectsInvalidVariant(t *testing.T) {
	var opts Options
	assert.Error(t, Parse([]byte(`{"hash": "yes"}`), ".json", &opts))
	assert.Error(t, Parse([]byte("base64: [1, 2]\n"), ".yaml", &opts))
	assert.Error(t, Parse([]byte(`hash = true`), ".toml", &opts))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "media.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"pathnamePrefix": "/assets"}`), 0o600))

	opts, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/assets", opts.PathnamePrefix)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
