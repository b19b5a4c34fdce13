package animation

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads a timeline saved as JSON. Keyframes are re-inserted so they
// come back sorted and validated, and the duration is stretched to cover
// the last one. Missing duration and fps take the defaults.
func Load(path string) (*Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("animation: read %s: %w", path, err)
	}
	var raw Timeline
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("animation: parse %s: %w", path, err)
	}

	tl := NewTimeline()
	if raw.Duration > 0 {
		tl.Duration = raw.Duration
	}
	if raw.FPS > 0 {
		tl.FPS = raw.FPS
	}
	tl.Loop = raw.Loop
	for _, l := range raw.Layers {
		if l == nil {
			continue
		}
		if l.Target.IsZero() {
			return nil, fmt.Errorf("animation: %s: layer %q has no target", path, l.Name)
		}
		layer := tl.Layer(l.Target)
		if l.Name != "" {
			layer.Name = l.Name
		}
		for _, kf := range l.Keyframes {
			if !kf.Easing.Valid() {
				return nil, fmt.Errorf("animation: %s: layer %q: unknown easing %q", path, layer.Name, kf.Easing)
			}
			if err := tl.AddKeyframe(l.Target, kf); err != nil {
				return nil, fmt.Errorf("animation: %s: layer %q: %w", path, layer.Name, err)
			}
		}
	}
	return tl, nil
}
