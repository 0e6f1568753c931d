package ebiten

import (
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"go.uber.org/zap"

	"heist/pkg/game/puzzle"
	"heist/pkg/game/renderer"
)

const sampleRate = 48000

// tone describes a short synthesized beep.
type tone struct {
	freq float64
	dur  time.Duration
}

var cueTones = map[renderer.Cue][]tone{
	renderer.CueClick:     {{1800, 15 * time.Millisecond}},
	renderer.CueTick:      {{1200, 10 * time.Millisecond}},
	renderer.CueReveal:    {{660, 80 * time.Millisecond}},
	renderer.CueError:     {{220, 120 * time.Millisecond}, {180, 160 * time.Millisecond}},
	renderer.CueAlarm:     {{880, 150 * time.Millisecond}, {660, 150 * time.Millisecond}, {880, 150 * time.Millisecond}},
	renderer.CueExplosion: {{90, 350 * time.Millisecond}},
	renderer.CueSuccess:   {{523, 90 * time.Millisecond}, {659, 90 * time.Millisecond}, {784, 160 * time.Millisecond}},
}

// Audio plays widget cues as synthesized tones and flashes the window for the loud ones.
type Audio struct {
	ctx *audio.Context
	e   *Renderer
	log *zap.Logger

	mu      sync.Mutex
	players map[renderer.Cue]*audio.Player
	volume  float64
}

// NewAudio creates the audio backend. The Ebiten audio context can only be created once per
// process.
func NewAudio(e *Renderer, volume float64) *Audio {
	return &Audio{
		ctx:     audio.NewContext(sampleRate),
		e:       e,
		log:     e.log.Named("audio"),
		players: make(map[renderer.Cue]*audio.Player),
		volume:  volume,
	}
}

var _ puzzle.Audio = (*Audio)(nil)

// Play plays c. Unknown cues are silent.
func (a *Audio) Play(c renderer.Cue) {
	if _, ok := flashColor(c); ok {
		a.e.flash(c)
	}
	tones, ok := cueTones[c]
	if !ok || a.volume <= 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	player, ok := a.players[c]
	if !ok {
		player = a.ctx.NewPlayerFromBytes(synthesize(tones, sampleRate))
		a.players[c] = player
	}
	player.SetVolume(a.volume)
	if err := player.Rewind(); err != nil {
		a.log.Warn("failed to rewind cue", zap.Error(err))
	}
	player.Play()
}

// synthesize renders tones back to back as 16-bit little-endian stereo PCM, the format Ebiten
// audio players expect. Each tone fades out to avoid clicks.
func synthesize(tones []tone, rate int) []byte {
	var n int
	for _, t := range tones {
		n += int(t.dur.Seconds() * float64(rate))
	}
	buf := make([]byte, 0, n*4)
	for _, t := range tones {
		samples := int(t.dur.Seconds() * float64(rate))
		for i := 0; i < samples; i++ {
			env := 1 - float64(i)/float64(samples)
			v := int16(math.Sin(2*math.Pi*t.freq*float64(i)/float64(rate)) * env * 0.3 * math.MaxInt16)
			buf = binary.LittleEndian.AppendUint16(buf, uint16(v))
			buf = binary.LittleEndian.AppendUint16(buf, uint16(v))
		}
	}
	return buf
}
