package modes

import (
	"time"

	"github.com/sweeney/donation-box/internal/led"
	"github.com/sweeney/donation-box/internal/mode"
)

const (
	waveWidth  = 2
	waveNormal = 200 * time.Millisecond
	waveFast   = 50 * time.Millisecond
	waveBase   = 200 // fade applied to the background pixels
)

// wave moves a short bright band along a dim white strip.
type wave struct {
	deps Deps
	pace pacer
	pos  int
}

// NewWave returns the "Wave Motion" mode.
func NewWave(d Deps) *mode.Strategy {
	return mode.NewStrategy(mode.Info{
		Name:        "Wave Motion",
		Description: "Wave effect moving through LED strip",
		Author:      author,
		Version:     version,
	}, 3000*time.Millisecond, &wave{deps: d.withDefaults()})
}

func (w *wave) Reset(now time.Time) {
	w.pos = 0
	w.pace.reset(now, waveNormal)
	w.deps.Strip.SetBrightness(255)
	w.draw(false)
}

func (w *wave) Trigger(time.Time) {
	w.pace.interval = waveFast
	w.deps.playDonation()
}

func (w *wave) Frame(now time.Time, effect bool) {
	if !w.pace.due(now) {
		return
	}
	w.pos = (w.pos + 1) % w.deps.Strip.Len()
	w.draw(effect)
}

func (w *wave) EffectEnded() {
	w.pace.interval = waveNormal
}

func (w *wave) draw(effect bool) {
	s := w.deps.Strip
	n := s.Len()
	s.SetAll(led.FadeToBlackBy(led.White, waveBase))
	for i := 0; i < waveWidth; i++ {
		brightness := 255 - i*60
		if effect {
			brightness = 255
		}
		s.SetPixel((w.pos+i)%n, led.FadeToBlackBy(led.White, uint8(255-brightness)))
	}
	present(s)
}
