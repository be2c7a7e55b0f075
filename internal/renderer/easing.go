package renderer

import "math"

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// clamp01 pins t to [0, 1]; NaN maps to 0.
func clamp01(t float64) float64 {
	if t > 0 {
		return math.Min(t, 1)
	}
	return 0
}

// easeOutCubic decelerates towards the end: 1-(1-t)^3
func easeOutCubic(t float64) float64 {
	t = clamp01(t)
	return 1 - pow(1-t, 3)
}

// easeInOutQuad accelerates then decelerates
func easeInOutQuad(t float64) float64 {
	t = clamp01(t)
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - pow(-2*t+2, 2)/2
}

// easeInOutCubic applies smooth easing function
func easeInOutCubic(t float64) float64 {
	t = clamp01(t)
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - pow(-2*t+2, 3)/2
}

// window maps t from [from, to] onto [0, 1], clamped.
func window(t, from, to float64) float64 {
	if to <= from {
		if t >= to {
			return 1
		}
		return 0
	}
	return clamp01((t - from) / (to - from))
}

// pow calculates x^n
func pow(x float64, n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= x
	}
	return result
}
