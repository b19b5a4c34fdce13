package animation

import (
	"fmt"
	"math"

	"projmap/internal/mathutil"
	"projmap/internal/scene"
)

// MinOrbitKeys is the fewest position keys Orbit places on the circle.
const MinOrbitKeys = 4

// Orbit returns a looping timeline that carries ref once around center over
// duration seconds, level with center and facing it. Yaw is keyed unwrapped
// so interpolation never spins back through zero.
func Orbit(ref scene.Ref, center mathutil.Vec3, radius, duration float64, keys int) (*Timeline, error) {
	if radius <= 0 || duration <= 0 {
		return nil, fmt.Errorf("animation: orbit needs a positive radius and duration, got %v and %v", radius, duration)
	}
	keys = max(keys, MinOrbitKeys)

	tl := NewTimeline()
	tl.Duration = duration
	tl.Loop = true
	for k := 0; k <= keys; k++ {
		a := 2 * math.Pi * float64(k) / float64(keys)
		t := duration * float64(k) / float64(keys)
		pos := center.Add(mathutil.Vec3{radius * math.Sin(a), 0, radius * math.Cos(a)})
		if err := tl.AddKeyframe(ref, Keyframe{Time: t, Property: Position, Value: pos}); err != nil {
			return nil, err
		}
		if err := tl.AddKeyframe(ref, Keyframe{Time: t, Property: Rotation, Value: mathutil.Vec3{0, a, 0}}); err != nil {
			return nil, err
		}
	}
	return tl, nil
}
