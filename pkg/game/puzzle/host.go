package puzzle

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"heist/pkg/engine/sched"
	"heist/pkg/game/renderer"
)

// Surface is where a widget draws. Each Draw carries the complete view.
type Surface interface {
	Draw(v View)
}

// Audio plays widget sound cues. Implementations must not block.
type Audio interface {
	Play(c renderer.Cue)
}

// Host is the callback set the embedding application provides.
type Host interface {
	ShowMessage(text string, sev Severity)
	ShowSuccess()
	DisableSubmit()
	// EnableSubmit reopens submissions after DisableSubmit, when a new attempt starts.
	EnableSubmit()
	StartCountdown(d time.Duration, onExpire func())
}

// Submitter sends a solution payload to the authoritative host. true means accepted; an error
// means the verdict never arrived.
type Submitter func(ctx context.Context, payload any) (bool, error)

// HostFuncs adapts optional funcs to Host. Nil fields are no-ops.
type HostFuncs struct {
	OnMessage   func(text string, sev Severity)
	OnSuccess   func()
	OnDisable   func()
	OnEnable    func()
	OnCountdown func(d time.Duration, onExpire func())
}

// ShowMessage calls OnMessage
func (h HostFuncs) ShowMessage(text string, sev Severity) {
	if h.OnMessage != nil {
		h.OnMessage(text, sev)
	}
}

// ShowSuccess calls OnSuccess
func (h HostFuncs) ShowSuccess() {
	if h.OnSuccess != nil {
		h.OnSuccess()
	}
}

// DisableSubmit calls OnDisable
func (h HostFuncs) DisableSubmit() {
	if h.OnDisable != nil {
		h.OnDisable()
	}
}

// EnableSubmit calls OnEnable
func (h HostFuncs) EnableSubmit() {
	if h.OnEnable != nil {
		h.OnEnable()
	}
}

// StartCountdown calls OnCountdown
func (h HostFuncs) StartCountdown(d time.Duration, onExpire func()) {
	if h.OnCountdown != nil {
		h.OnCountdown(d, onExpire)
	}
}

// Options carries the injected capabilities of a widget.
type Options struct {
	Host      Host
	Submit    Submitter
	Audio     Audio
	Scheduler sched.Scheduler
	Logger    *zap.Logger
	Rand      *rand.Rand

	// SubmitTimeout bounds one submission round trip. Zero means 10s.
	SubmitTimeout time.Duration
}

type nopSurface struct{}

func (nopSurface) Draw(View) {}

type nopAudio struct{}

func (nopAudio) Play(renderer.Cue) {}

func (o Options) withDefaults() Options {
	if o.Host == nil {
		o.Host = HostFuncs{}
	}
	if o.Audio == nil {
		o.Audio = nopAudio{}
	}
	if o.Scheduler == nil {
		o.Scheduler = sched.NewManual()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.SubmitTimeout <= 0 {
		o.SubmitTimeout = 10 * time.Second
	}
	return o
}
