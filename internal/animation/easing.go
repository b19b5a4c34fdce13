package animation

import "math"

// Easing names a curve remapping normalised time in [0,1].
type Easing string

const (
	Linear         Easing = "linear"
	EaseIn         Easing = "easeIn"
	EaseOut        Easing = "easeOut"
	EaseInOut      Easing = "easeInOut"
	EaseInCubic    Easing = "easeInCubic"
	EaseOutCubic   Easing = "easeOutCubic"
	EaseInOutCubic Easing = "easeInOutCubic"
	EaseInQuart    Easing = "easeInQuart"
	EaseOutQuart   Easing = "easeOutQuart"
	EaseInOutQuart Easing = "easeInOutQuart"
	EaseInSine     Easing = "easeInSine"
	EaseOutSine    Easing = "easeOutSine"
	EaseInOutSine  Easing = "easeInOutSine"
	EaseInExpo     Easing = "easeInExpo"
	EaseOutExpo    Easing = "easeOutExpo"
	EaseInOutExpo  Easing = "easeInOutExpo"
	EaseInCirc     Easing = "easeInCirc"
	EaseOutCirc    Easing = "easeOutCirc"
	EaseInOutCirc  Easing = "easeInOutCirc"
)

// Easings lists every curve in menu order.
var Easings = []Easing{
	Linear, EaseIn, EaseOut, EaseInOut,
	EaseInCubic, EaseOutCubic, EaseInOutCubic,
	EaseInQuart, EaseOutQuart, EaseInOutQuart,
	EaseInSine, EaseOutSine, EaseInOutSine,
	EaseInExpo, EaseOutExpo, EaseInOutExpo,
	EaseInCirc, EaseOutCirc, EaseInOutCirc,
}

var easings = map[Easing]func(float64) float64{
	Linear:    func(t float64) float64 { return t },
	EaseIn:    func(t float64) float64 { return t * t },
	EaseOut:   func(t float64) float64 { return t * (2 - t) },
	EaseInOut: inOut(func(t float64) float64 { return t * t }),

	EaseInCubic:    func(t float64) float64 { return t * t * t },
	EaseOutCubic:   out(func(t float64) float64 { return t * t * t }),
	EaseInOutCubic: inOut(func(t float64) float64 { return t * t * t }),

	EaseInQuart:    func(t float64) float64 { return t * t * t * t },
	EaseOutQuart:   out(func(t float64) float64 { return t * t * t * t }),
	EaseInOutQuart: inOut(func(t float64) float64 { return t * t * t * t }),

	EaseInSine:    func(t float64) float64 { return 1 - math.Cos(t*math.Pi/2) },
	EaseOutSine:   func(t float64) float64 { return math.Sin(t * math.Pi / 2) },
	EaseInOutSine: func(t float64) float64 { return -(math.Cos(math.Pi*t) - 1) / 2 },

	EaseInExpo:    expoIn,
	EaseOutExpo:   out(expoIn),
	EaseInOutExpo: inOut(expoIn),

	EaseInCirc:    circIn,
	EaseOutCirc:   out(circIn),
	EaseInOutCirc: inOut(circIn),
}

func expoIn(t float64) float64 {
	if t <= 0 {
		return 0
	}
	return math.Pow(2, 10*(t-1))
}

func circIn(t float64) float64 {
	return 1 - math.Sqrt(1-t*t)
}

// out mirrors an ease-in curve into its ease-out form.
func out(in func(float64) float64) func(float64) float64 {
	return func(t float64) float64 { return 1 - in(1-t) }
}

// inOut runs in over the first half and its mirror over the second.
func inOut(in func(float64) float64) func(float64) float64 {
	return func(t float64) float64 {
		if t < 0.5 {
			return in(2*t) / 2
		}
		return 1 - in(2-2*t)/2
	}
}

// Apply remaps t through e. Unknown easings fall back to linear.
func (e Easing) Apply(t float64) float64 {
	t = math.Max(0, math.Min(1, t))
	f, ok := easings[e]
	if !ok {
		return t
	}
	return f(t)
}

// Valid reports whether e names a known curve.
func (e Easing) Valid() bool {
	_, ok := easings[e]
	return ok || e == ""
}
