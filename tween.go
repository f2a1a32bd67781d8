package flipbook

import (
	"math"

	"github.com/tanema/gween/ease"
)

// TimingFunc maps linear progress in [0, 1] to eased progress.
type TimingFunc func(value float64) float64

// Ease adapts a gween easing function to a TimingFunc.
func Ease(fn ease.TweenFunc) TimingFunc {
	return func(v float64) float64 {
		return float64(fn(float32(v), 0, 1, 1))
	}
}

// Timing functions backed by gween/ease.
var (
	Linear         TimingFunc = func(v float64) float64 { return v }
	EaseInQuad                = Ease(ease.InQuad)
	EaseOutQuad               = Ease(ease.OutQuad)
	EaseInOutQuad             = Ease(ease.InOutQuad)
	EaseInCubic               = Ease(ease.InCubic)
	EaseOutCubic              = Ease(ease.OutCubic)
	EaseInOutCubic            = Ease(ease.InOutCubic)
	EaseInSine                = Ease(ease.InSine)
	EaseOutSine               = Ease(ease.OutSine)
	EaseInOutSine             = Ease(ease.InOutSine)
	EaseInExpo                = Ease(ease.InExpo)
	EaseOutExpo               = Ease(ease.OutExpo)
	EaseInOutExpo             = Ease(ease.InOutExpo)
	EaseInBack                = Ease(ease.InBack)
	EaseOutBack               = Ease(ease.OutBack)
	EaseInOutBack             = Ease(ease.InOutBack)
	EaseOutElastic            = Ease(ease.OutElastic)
	EaseOutBounce             = Ease(ease.OutBounce)
)

// DefaultTiming is used by signal tweens when no timing function is given.
var DefaultTiming = EaseInOutCubic

// Interpolator blends from and to by value, where 0 yields from and 1 yields
// to. Values outside [0, 1] may extrapolate.
type Interpolator[T any] func(from, to T, value float64) T

// Lerp interpolates numbers linearly.
var Lerp Interpolator[float64] = func(from, to, v float64) float64 {
	return from + (to-from)*v
}

// LerpFloat32 interpolates float32 values linearly.
var LerpFloat32 Interpolator[float32] = func(from, to float32, v float64) float32 {
	return from + (to-from)*float32(v)
}

// LerpInt interpolates integers, rounding to the nearest value.
var LerpInt Interpolator[int] = func(from, to int, v float64) int {
	return from + int(math.Round(float64(to-from)*v))
}

// LerpVec2 interpolates both components linearly.
var LerpVec2 Interpolator[Vec2] = func(from, to Vec2, v float64) Vec2 {
	return Vec2{X: Lerp(from.X, to.X, v), Y: Lerp(from.Y, to.Y, v)}
}

// LerpColor interpolates all four channels linearly.
var LerpColor Interpolator[Color] = func(from, to Color, v float64) Color {
	return Color{
		R: Lerp(from.R, to.R, v),
		G: Lerp(from.G, to.G, v),
		B: Lerp(from.B, to.B, v),
		A: Lerp(from.A, to.A, v),
	}
}

// TextLerp types to over from: the first round(len(to)*value) runes come
// from to, the rest from the tail of from.
var TextLerp Interpolator[string] = func(from, to string, v float64) string {
	if v <= 0 {
		return from
	}
	if v >= 1 {
		return to
	}
	f, t := []rune(from), []rune(to)
	n := int(math.Round(float64(len(t)) * v))
	out := append([]rune{}, t[:n]...)
	if n < len(f) {
		tail := int(math.Round(float64(len(f)) * (1 - v)))
		if tail > len(f)-n {
			tail = len(f) - n
		}
		out = append(out, f[len(f)-tail:]...)
	}
	return string(out)
}

// Step switches from from to to halfway through.
func Step[T any](from, to T, v float64) T {
	if v < 0.5 {
		return from
	}
	return to
}

// Remap maps v from [fromLow, fromHigh] to [toLow, toHigh].
func Remap(fromLow, fromHigh, toLow, toHigh, v float64) float64 {
	return toLow + (v-fromLow)*(toHigh-toLow)/(fromHigh-fromLow)
}

// Clamp limits v to [lo, hi].
func Clamp(lo, hi, v float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func defaultInterpolator[T any]() Interpolator[T] {
	var zero T
	var fn any
	switch any(zero).(type) {
	case float64:
		fn = Lerp
	case float32:
		fn = LerpFloat32
	case int:
		fn = LerpInt
	case Vec2:
		fn = LerpVec2
	case Color:
		fn = LerpColor
	case string:
		fn = TextLerp
	default:
		return Step[T]
	}
	return fn.(Interpolator[T])
}
