package export

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ManifestEntry describes one exported frame.
type ManifestEntry struct {
	Name   string `json:"name"`
	Image  string `json:"image"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// WriteManifest writes the successful results to path as JSON, with image
// paths relative to the manifest's directory.
func WriteManifest(path string, results []Result) error {
	dir := filepath.Dir(path)
	entries := make([]ManifestEntry, 0, len(results))
	for _, r := range results {
		if !r.Success {
			continue
		}
		rel, err := filepath.Rel(dir, r.Path)
		if err != nil {
			rel = r.Path
		}
		entries = append(entries, ManifestEntry{
			Name:   r.Name,
			Image:  filepath.ToSlash(rel),
			Width:  r.Width,
			Height: r.Height,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
