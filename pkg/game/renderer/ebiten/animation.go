package ebiten

import (
	"image/color"
	"math"

	"heist/pkg/game/renderer"
)

// pulse returns a value oscillating between lo and hi along a sine wave with the given period.
func pulse(nowMs, periodMs int64, lo, hi float64) float64 {
	phase := float64(nowMs%periodMs) / float64(periodMs)
	v := (math.Sin(phase*2*math.Pi) + 1.0) / 2.0 // 0.0 to 1.0
	return lo + (hi-lo)*v
}

// pulsingColor dims base between 50% and 100% brightness over two seconds. Used for the
// security alert banner.
func pulsingColor(base color.RGBA, nowMs int64) color.RGBA {
	b := pulse(nowMs, 2000, 0.5, 1.0)
	return color.RGBA{
		R: uint8(float64(base.R) * b),
		G: uint8(float64(base.G) * b),
		B: uint8(float64(base.B) * b),
		A: base.A,
	}
}

// flashColor returns the overlay tint for cues that flash the screen.
func flashColor(c renderer.Cue) (color.RGBA, bool) {
	switch c {
	case renderer.CueError:
		return color.RGBA{255, 60, 60, 255}, true
	case renderer.CueAlarm, renderer.CueExplosion:
		return color.RGBA{255, 160, 40, 255}, true
	case renderer.CueSuccess:
		return color.RGBA{60, 255, 120, 255}, true
	default:
		return color.RGBA{}, false
	}
}

// flashAlpha fades the flash overlay from 35% to nothing over flashDuration.
func flashAlpha(ageMs int64) float64 {
	if ageMs < 0 || ageMs >= flashDuration {
		return 0
	}
	return 0.35 * (1 - float64(ageMs)/flashDuration)
}
