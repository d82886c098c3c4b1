package evo

import (
	"math"

	"golang.org/x/exp/rand"
)

// Color is the display identity of a population slot. It lives with the slot,
// not with the agent's persisted policy.
type Color struct {
	R, G, B uint8
}

// GenerateColors produces n visually distinct colors by spreading hues evenly
// around the HSL wheel at fixed saturation and lightness.
func GenerateColors(n int) []Color {
	colors := make([]Color, 0, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n) * 360.0
		colors = append(colors, hslToRGB(hue, 0.85, 0.65))
	}
	return colors
}

func hslToRGB(h, s, l float64) Color {
	c := (1 - math.Abs(2*l-1)) * s
	hp := h / 60.0
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	var r1, g1, b1 float64
	switch int(hp) {
	case 0:
		r1, g1, b1 = c, x, 0
	case 1:
		r1, g1, b1 = x, c, 0
	case 2:
		r1, g1, b1 = 0, c, x
	case 3:
		r1, g1, b1 = 0, x, c
	case 4:
		r1, g1, b1 = x, 0, c
	case 5:
		r1, g1, b1 = c, 0, x
	default:
		r1, g1, b1 = c, x, 0
	}
	m := l - c/2
	return Color{
		R: uint8((r1 + m) * 255),
		G: uint8((g1 + m) * 255),
		B: uint8((b1 + m) * 255),
	}
}

// MutateColor shifts each channel by up to ±span, clamped to the valid range.
func MutateColor(c Color, span int, rng *rand.Rand) Color {
	return Color{
		R: clampChannel(int(c.R) + rng.Intn(2*span+1) - span),
		G: clampChannel(int(c.G) + rng.Intn(2*span+1) - span),
		B: clampChannel(int(c.B) + rng.Intn(2*span+1) - span),
	}
}

// BlendColors mixes two parent colors; ratio 0 yields a, ratio 1 yields b.
func BlendColors(a, b Color, ratio float64) Color {
	return Color{
		R: clampChannel(int(float64(a.R)*(1-ratio) + float64(b.R)*ratio)),
		G: clampChannel(int(float64(a.G)*(1-ratio) + float64(b.G)*ratio)),
		B: clampChannel(int(float64(a.B)*(1-ratio) + float64(b.B)*ratio)),
	}
}

func clampChannel(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
