package modes

import (
	"time"

	"github.com/sweeney/donation-box/internal/led"
	"github.com/sweeney/donation-box/internal/mode"
)

const (
	blinkNormal = 300 * time.Millisecond
	blinkFast   = 100 * time.Millisecond
)

// blink toggles random pixels. A donation speeds it up and toggles more of
// them per step.
type blink struct {
	deps Deps
	pace pacer
	on   []bool
}

// NewBlink returns the "Random Blink" mode.
func NewBlink(d Deps) *mode.Strategy {
	return mode.NewStrategy(mode.Info{
		Name:        "Random Blink",
		Description: "Random blinking pattern with white LEDs",
		Author:      author,
		Version:     version,
	}, 4000*time.Millisecond, &blink{deps: d.withDefaults()})
}

func (b *blink) Reset(now time.Time) {
	s := b.deps.Strip
	b.pace.reset(now, blinkNormal)
	b.on = make([]bool, s.Len())
	s.SetBrightness(255)
	for i := range b.on {
		b.on[i] = i%2 == 0
		b.paint(i)
	}
	present(s)
}

func (b *blink) Trigger(time.Time) {
	b.pace.interval = blinkFast
}

func (b *blink) Frame(now time.Time, effect bool) {
	if !b.pace.due(now) {
		return
	}
	n := len(b.on)
	blinks, chance := 3, 60
	if effect {
		blinks, chance = n, 70
	}
	for i := 0; i < blinks; i++ {
		idx := b.deps.Rand.IntN(n)
		if b.deps.Rand.IntN(100) < chance {
			b.on[idx] = !b.on[idx]
			b.paint(idx)
		}
	}
	present(b.deps.Strip)
}

func (b *blink) EffectEnded() {
	b.pace.interval = blinkNormal
}

func (b *blink) paint(i int) {
	c := led.Black
	if b.on[i] {
		c = led.White
	}
	b.deps.Strip.SetPixel(i, c)
}
