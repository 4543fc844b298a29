package modes

import (
	"time"

	"github.com/sweeney/donation-box/internal/led"
	"github.com/sweeney/donation-box/internal/mode"
)

const (
	halfNormal = 1500 * time.Millisecond
	halfFast   = 300 * time.Millisecond
)

// half alternates between lighting the first and second half of the strip.
type half struct {
	deps  Deps
	pace  pacer
	first bool
}

// NewHalf returns the "Half Switch" mode.
func NewHalf(d Deps) *mode.Strategy {
	return mode.NewStrategy(mode.Info{
		Name:        "Half Switch",
		Description: "Alternating first and second half illumination",
		Author:      author,
		Version:     version,
	}, 3000*time.Millisecond, &half{deps: d.withDefaults()})
}

func (h *half) Reset(now time.Time) {
	h.first = true
	h.pace.reset(now, halfNormal)
	h.deps.Strip.SetBrightness(255)
	h.draw()
}

func (h *half) Trigger(time.Time) {
	h.pace.interval = halfFast
}

func (h *half) Frame(now time.Time, _ bool) {
	if !h.pace.due(now) {
		return
	}
	h.first = !h.first
	h.draw()
}

func (h *half) EffectEnded() {
	h.pace.interval = halfNormal
}

func (h *half) draw() {
	s := h.deps.Strip
	n := s.Len()
	mid := n / 2
	s.Clear()
	lo, hi := mid, n
	if h.first {
		lo, hi = 0, mid
	}
	for i := lo; i < hi; i++ {
		s.SetPixel(i, led.White)
	}
	present(s)
}
