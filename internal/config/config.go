package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the config file looked for when no path is given.
const FileName = "projmap.json"

// Defaults applied by Resolve.
const (
	DefaultPreviewWidth    = 960
	DefaultPreviewHeight   = 540
	DefaultSupersample     = 2
	DefaultExportFormat    = ".webp"
	DefaultFrameRate       = 30
	DefaultDepthTargetSize = 2048
	DefaultSeed            = 1
)

// Config holds all configurable paths and render settings.
type Config struct {
	// Paths
	BaseDir     string `json:"base_dir"`
	CatalogFile string `json:"catalog_file"`
	ContentDir  string `json:"content_dir"`
	OutputDir   string `json:"output_dir"`

	// Render settings
	PreviewWidth    int     `json:"preview_width"`
	PreviewHeight   int     `json:"preview_height"`
	Supersample     int     `json:"supersample"`
	ExportFormat    string  `json:"export_format"`
	FrameRate       float64 `json:"frame_rate"`
	DepthTargetSize int     `json:"depth_target_size"`
	Seed            uint64  `json:"seed"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	BaseDir     string
	CatalogFile string
	OutputDir   string
	Width       int
	Height      int
	Format      string
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.BaseDir != "" {
		c.BaseDir = flags.BaseDir
	}
	if flags.CatalogFile != "" {
		c.CatalogFile = flags.CatalogFile
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Width > 0 {
		c.PreviewWidth = flags.Width
	}
	if flags.Height > 0 {
		c.PreviewHeight = flags.Height
	}
	if flags.Format != "" {
		c.ExportFormat = flags.Format
	}

	if c.BaseDir == "" {
		c.BaseDir = detectBaseDir()
	}

	// An empty catalog file means the embedded catalog.
	if c.CatalogFile != "" {
		c.CatalogFile = c.abs(c.CatalogFile)
	}
	if c.ContentDir == "" {
		c.ContentDir = filepath.Join(c.BaseDir, "content")
	} else {
		c.ContentDir = c.abs(c.ContentDir)
	}
	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(c.BaseDir, "renders")
	} else {
		c.OutputDir = c.abs(c.OutputDir)
	}

	if c.PreviewWidth <= 0 {
		c.PreviewWidth = DefaultPreviewWidth
	}
	if c.PreviewHeight <= 0 {
		c.PreviewHeight = DefaultPreviewHeight
	}
	if c.Supersample <= 0 {
		c.Supersample = DefaultSupersample
	}
	c.ExportFormat = normalizeFormat(c.ExportFormat)
	if c.FrameRate <= 0 {
		c.FrameRate = DefaultFrameRate
	}
	if c.DepthTargetSize <= 0 {
		c.DepthTargetSize = DefaultDepthTargetSize
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
}

// normalizeFormat turns "PNG" or "png" into ".png". Empty means WebP.
func normalizeFormat(f string) string {
	f = strings.ToLower(strings.TrimSpace(f))
	if f == "" {
		return DefaultExportFormat
	}
	if !strings.HasPrefix(f, ".") {
		f = "." + f
	}
	return f
}

// abs resolves p against BaseDir when it is relative.
func (c *Config) abs(p string) string {
	if filepath.IsAbs(p) || c.BaseDir == "" {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// detectBaseDir looks for a config file next to the executable, then in the
// working directory, falling back to the working directory.
func detectBaseDir() string {
	exe, _ := os.Executable()
	if exe != "" {
		dir := filepath.Dir(exe)
		for _, base := range []string{dir, filepath.Dir(dir)} {
			if _, err := os.Stat(filepath.Join(base, FileName)); err == nil {
				return base
			}
		}
	}

	cwd, _ := os.Getwd()
	return cwd
}

// Find returns the config file in dir, or "" when there is none.
func Find(dir string) string {
	p := filepath.Join(dir, FileName)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}
