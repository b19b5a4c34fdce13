package export

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/webp"

	"projmap/internal/monitoring"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestSaveWebP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "shot.webp")
	require.NoError(t, Save(path, solid(8, 4, color.NRGBA{10, 200, 30, 255})))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := webp.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 4), img.Bounds())
	r, g, b, _ := img.At(3, 2).RGBA()
	assert.Equal(t, []uint32{10, 200, 30}, []uint32{r >> 8, g >> 8, b >> 8})
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.PNG")
	require.NoError(t, Save(path, solid(2, 2, color.NRGBA{255, 0, 0, 255})))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
}

func TestSaveRejectsUnknownFormat(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "shot.bmp"), solid(1, 1, color.NRGBA{}))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestRunAndManifest(t *testing.T) {
	_, restore := monitoring.Capture()
	defer restore()

	dir := t.TempDir()
	frames := []Frame{
		{Name: "viewer", Image: solid(16, 9, color.NRGBA{0, 0, 255, 255})},
		{Name: "missing"},
		{Name: "projector-1", Image: solid(16, 9, color.NRGBA{255, 255, 255, 255})},
	}
	results := Run(Config{OutputDir: dir, Ext: ".png", Workers: 2}, frames)
	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.True(t, results[2].Success)
	assert.Equal(t, "2 written, 1 failed", Summary(results))
	assert.FileExists(t, filepath.Join(dir, "projector-1.png"))

	manifest := filepath.Join(dir, "manifest.json")
	require.NoError(t, WriteManifest(manifest, results))
	raw, err := os.ReadFile(manifest)
	require.NoError(t, err)
	var entries []ManifestEntry
	require.NoError(t, json.Unmarshal(raw, &entries))
	assert.Equal(t, []ManifestEntry{
		{Name: "viewer", Image: "viewer.png", Width: 16, Height: 9},
		{Name: "projector-1", Image: "projector-1.png", Width: 16, Height: 9},
	}, entries)
}
