package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAndResolve(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(`{
		"catalog_file": "venue.yaml",
		"output_dir": "/abs/out",
		"preview_width": 1280,
		"frame_rate": 60
	}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.Resolve(Flags{BaseDir: dir, Height: 720})

	want := Config{
		BaseDir:         dir,
		CatalogFile:     filepath.Join(dir, "venue.yaml"),
		ContentDir:      filepath.Join(dir, "content"),
		OutputDir:       "/abs/out",
		PreviewWidth:    1280,
		PreviewHeight:   720,
		Supersample:     DefaultSupersample,
		ExportFormat:    DefaultExportFormat,
		FrameRate:       60,
		DepthTargetSize: DefaultDepthTargetSize,
		Seed:            DefaultSeed,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("resolved config mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, path, Find(dir))
}

func TestResolveKeepsEmbeddedCatalog(t *testing.T) {
	var cfg Config
	cfg.Resolve(Flags{BaseDir: "/srv/show", OutputDir: "out"})
	assert.Empty(t, cfg.CatalogFile)
	assert.Equal(t, filepath.Join("/srv/show", "out"), cfg.OutputDir)
	assert.Equal(t, DefaultPreviewWidth, cfg.PreviewWidth)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "config: parse")

	assert.Empty(t, Find(t.TempDir()))
}

func TestExportFormat(t *testing.T) {
	tests := []struct {
		file, flag, want string
	}{
		{"", "", ".webp"},
		{"PNG", "", ".png"},
		{".png", "webp", ".webp"},
	}
	for _, tt := range tests {
		cfg := Config{ExportFormat: tt.file}
		cfg.Resolve(Flags{BaseDir: "/srv/show", Format: tt.flag})
		assert.Equal(t, tt.want, cfg.ExportFormat, "file %q flag %q", tt.file, tt.flag)
	}
}
