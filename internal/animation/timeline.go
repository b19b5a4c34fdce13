// Package animation keyframes entity transforms over a timeline and applies
// the sampled values to the scene registry once per frame.
package animation

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"projmap/internal/mathutil"
	"projmap/internal/monitoring"
	"projmap/internal/scene"
)

// Timeline defaults.
const (
	DefaultDuration = 10.0
	DefaultFPS      = 30.0
)

// Property names the transform channel a keyframe drives.
type Property string

const (
	Position Property = "position"
	Rotation Property = "rotation"
	Scale    Property = "scale"
)

// Properties lists the animatable channels.
var Properties = []Property{Position, Rotation, Scale}

// ErrUnknownProperty is returned for a keyframe on an unsupported channel.
var ErrUnknownProperty = errors.New("animation: unknown property")

// Keyframe pins one channel to Value at Time seconds. Easing shapes the
// segment arriving at this keyframe.
type Keyframe struct {
	Time     float64       `json:"time"`
	Property Property      `json:"property"`
	Value    mathutil.Vec3 `json:"value"`
	Easing   Easing        `json:"easing,omitempty"`
}

// Layer animates one entity. Keyframes stay sorted by time.
type Layer struct {
	Name      string     `json:"name"`
	Target    scene.Ref  `json:"target"`
	Keyframes []Keyframe `json:"keyframes"`
}

// AddKeyframe inserts kf in time order. A keyframe already on the same
// channel at the same time is replaced.
func (l *Layer) AddKeyframe(kf Keyframe) error {
	switch kf.Property {
	case Position, Rotation, Scale:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProperty, kf.Property)
	}
	if kf.Time < 0 || math.IsNaN(kf.Time) {
		return fmt.Errorf("animation: invalid keyframe time %v", kf.Time)
	}
	for i := range l.Keyframes {
		if l.Keyframes[i].Time == kf.Time && l.Keyframes[i].Property == kf.Property {
			l.Keyframes[i] = kf
			return nil
		}
	}
	i := sort.Search(len(l.Keyframes), func(i int) bool { return l.Keyframes[i].Time > kf.Time })
	l.Keyframes = append(l.Keyframes, Keyframe{})
	copy(l.Keyframes[i+1:], l.Keyframes[i:])
	l.Keyframes[i] = kf
	return nil
}

// RemoveKeyframe drops the keyframe on prop at time t and reports whether
// one existed.
func (l *Layer) RemoveKeyframe(prop Property, t float64) bool {
	for i, kf := range l.Keyframes {
		if kf.Property == prop && kf.Time == t {
			l.Keyframes = append(l.Keyframes[:i], l.Keyframes[i+1:]...)
			return true
		}
	}
	return false
}

// End returns the time of the last keyframe.
func (l *Layer) End() float64 {
	if len(l.Keyframes) == 0 {
		return 0
	}
	return l.Keyframes[len(l.Keyframes)-1].Time
}

// Sample evaluates prop at time t. Before the first keyframe it holds the
// first value, after the last it holds the last, and in between it lerps
// componentwise with the later keyframe's easing. ok is false when the
// layer has no keyframes on prop.
func Sample(l *Layer, prop Property, t float64) (v mathutil.Vec3, ok bool) {
	var prev *Keyframe
	for i := range l.Keyframes {
		kf := &l.Keyframes[i]
		if kf.Property != prop {
			continue
		}
		if kf.Time > t {
			if prev == nil {
				return kf.Value, true
			}
			span := kf.Time - prev.Time
			if span <= 0 {
				return kf.Value, true
			}
			u := kf.Easing.Apply((t - prev.Time) / span)
			return prev.Value.Lerp(kf.Value, u), true
		}
		prev = kf
	}
	if prev == nil {
		return mathutil.Vec3{}, false
	}
	return prev.Value, true
}

// Timeline is the playback state shared by every layer.
type Timeline struct {
	Duration    float64  `json:"duration"`
	CurrentTime float64  `json:"currentTime"`
	Playing     bool     `json:"playing"`
	Loop        bool     `json:"loop"`
	FPS         float64  `json:"fps"`
	Layers      []*Layer `json:"layers"`
}

// NewTimeline returns a stopped ten second timeline.
func NewTimeline() *Timeline {
	return &Timeline{Duration: DefaultDuration, FPS: DefaultFPS}
}

// Layer returns the layer animating ref, creating it when absent.
func (tl *Timeline) Layer(ref scene.Ref) *Layer {
	ref = ref.Entity()
	for _, l := range tl.Layers {
		if l.Target == ref {
			return l
		}
	}
	l := &Layer{Name: ref.String(), Target: ref}
	tl.Layers = append(tl.Layers, l)
	return l
}

// AddKeyframe records kf on ref's layer and stretches the duration to
// cover it.
func (tl *Timeline) AddKeyframe(ref scene.Ref, kf Keyframe) error {
	if err := tl.Layer(ref).AddKeyframe(kf); err != nil {
		return err
	}
	tl.Duration = math.Max(tl.Duration, kf.Time)
	return nil
}

// RemoveLayer drops the layer for ref.
func (tl *Timeline) RemoveLayer(ref scene.Ref) {
	ref = ref.Entity()
	for i, l := range tl.Layers {
		if l.Target == ref {
			tl.Layers = append(tl.Layers[:i], tl.Layers[i+1:]...)
			return
		}
	}
}

func (tl *Timeline) Play()  { tl.Playing = true }
func (tl *Timeline) Pause() { tl.Playing = false }

// Stop pauses and rewinds to zero.
func (tl *Timeline) Stop() {
	tl.Playing = false
	tl.CurrentTime = 0
}

// Seek moves the playhead, clamped to [0, Duration].
func (tl *Timeline) Seek(t float64) {
	tl.CurrentTime = mathutil.Clamp(t, 0, tl.Duration)
}

// Progress returns the playhead as a fraction of the duration.
func (tl *Timeline) Progress() float64 {
	if tl.Duration <= 0 {
		return 0
	}
	return tl.CurrentTime / tl.Duration
}

// Advance moves a playing timeline forward by dt seconds. Past the end it
// wraps when looping, otherwise it clamps to the end and pauses. It reports
// whether the playhead moved.
func (tl *Timeline) Advance(dt float64) bool {
	if !tl.Playing || dt <= 0 {
		return false
	}
	tl.CurrentTime += dt
	if tl.CurrentTime >= tl.Duration {
		if tl.Loop && tl.Duration > 0 {
			tl.CurrentTime = math.Mod(tl.CurrentTime, tl.Duration)
		} else {
			tl.CurrentTime = tl.Duration
			tl.Playing = false
		}
	}
	return true
}

// Apply writes every layer's sampled transform at the current time into
// reg. Layers whose entity no longer exists are skipped with a log line.
func (tl *Timeline) Apply(reg *scene.Registry) error {
	var errs []error
	for _, l := range tl.Layers {
		node, ok := reg.NodeOf(l.Target)
		if !ok {
			monitoring.Logf("animation: %s no longer exists, skipping layer %q", l.Target, l.Name)
			continue
		}
		tr, ok := reg.NodeTransform(node)
		if !ok {
			continue
		}
		changed := false
		for _, prop := range Properties {
			v, ok := Sample(l, prop, tl.CurrentTime)
			if !ok {
				continue
			}
			switch prop {
			case Position:
				tr.Position = v
			case Rotation:
				tr.Rotation = v
			case Scale:
				tr.Scale = v
			}
			changed = true
		}
		if !changed {
			continue
		}
		if err := reg.SetNodeTransform(node, tr); err != nil {
			errs = append(errs, fmt.Errorf("animation: layer %q: %w", l.Name, err))
		}
	}
	return errors.Join(errs...)
}
