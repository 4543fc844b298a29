package modes

import (
	"time"

	"github.com/sweeney/donation-box/internal/led"
	"github.com/sweeney/donation-box/internal/mode"
)

const (
	breathStep   = 15
	breathNormal = 80 * time.Millisecond
	breathFast   = 10 * time.Millisecond
)

// breathing ramps the whole strip's brightness up and down in white. A
// donation speeds the ramp up and plays a random clip.
type breathing struct {
	deps       Deps
	pace       pacer
	brightness int
	rising     bool
}

// NewBreathing returns the "Static Breathing" mode.
func NewBreathing(d Deps) *mode.Strategy {
	return mode.NewStrategy(mode.Info{
		Name:        "Static Breathing",
		Description: "Gentle breathing effect with white LEDs",
		Author:      author,
		Version:     version,
	}, 3000*time.Millisecond, &breathing{deps: d.withDefaults()})
}

func (b *breathing) Reset(now time.Time) {
	b.brightness = 0
	b.rising = true
	b.pace.reset(now, breathNormal)
	b.deps.Strip.SetAll(led.White)
	b.deps.Strip.SetBrightness(0)
	present(b.deps.Strip)
}

func (b *breathing) Trigger(time.Time) {
	b.pace.interval = breathFast
	b.deps.playDonation()
}

func (b *breathing) Frame(now time.Time, _ bool) {
	if !b.pace.due(now) {
		return
	}
	next := b.brightness
	if b.rising {
		next += breathStep
		if next >= 255 {
			next = 255
			b.rising = false
		}
	} else {
		next -= breathStep
		if next <= 0 {
			next = 0
			b.rising = true
		}
	}
	if next != b.brightness {
		b.brightness = next
		b.deps.Strip.SetBrightness(uint8(next))
		present(b.deps.Strip)
	}
}

func (b *breathing) EffectEnded() {
	b.pace.interval = breathNormal
}
