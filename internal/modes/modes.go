// Package modes contains the built-in light shows. Each one is an
// mode.Animation wrapped in a mode.Strategy, so lifecycle handling and the
// effect-window expiry live in one place.
package modes

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sweeney/donation-box/internal/audio"
	"github.com/sweeney/donation-box/internal/led"
	"github.com/sweeney/donation-box/internal/mode"
)

const (
	author  = "Friedjof"
	version = "v1.0.0"
)

// Keys in default rotation order.
const (
	Breathing = "breathing"
	Wave      = "wave"
	Blink     = "blink"
	Half      = "half"
	Center    = "center"
	Chase     = "chase"
)

// DefaultOrder is the rotation used when the config names none.
var DefaultOrder = []string{Breathing, Wave, Blink, Half, Center, Chase}

// Sounds selects the donation clips.
type Sounds struct {
	Base  int
	Count int
}

// Deps are the collaborators shared by every mode.
type Deps struct {
	Strip  led.Strip
	Audio  audio.Player
	Sounds Sounds
	Rand   *rand.Rand
}

func (d Deps) withDefaults() Deps {
	if d.Audio == nil {
		d.Audio = audio.Nop{}
	}
	if d.Sounds.Count <= 0 {
		d.Sounds = Sounds{Base: audio.DefaultDonationBase, Count: audio.DefaultDonationCount}
	}
	if d.Rand == nil {
		d.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	return d
}

func (d Deps) playDonation() {
	d.Audio.PlayRandom(d.Sounds.Base, d.Sounds.Count)
}

type constructor func(Deps) *mode.Strategy

var catalog = map[string]constructor{
	Breathing: NewBreathing,
	Wave:      NewWave,
	Blink:     NewBlink,
	Half:      NewHalf,
	Center:    NewCenter,
	Chase:     NewChase,
}

// Known reports whether key names a built-in mode.
func Known(key string) bool {
	_, ok := catalog[key]
	return ok
}

// Build constructs the modes named in order, applying any effect-duration
// overrides keyed by the same names. An empty order selects DefaultOrder.
func Build(order []string, durations map[string]time.Duration, d Deps) ([]*mode.Strategy, error) {
	if len(order) == 0 {
		order = DefaultOrder
	}
	if d.Strip == nil {
		return nil, fmt.Errorf("modes: nil strip")
	}
	d = d.withDefaults()

	out := make([]*mode.Strategy, 0, len(order))
	for _, key := range order {
		ctor, ok := catalog[key]
		if !ok {
			return nil, fmt.Errorf("modes: unknown mode %q", key)
		}
		s := ctor(d)
		if dur, ok := durations[key]; ok {
			s.SetEffectDuration(dur)
		}
		out = append(out, s)
	}
	return out, nil
}

// pacer gates frame updates to a fixed interval using the tick timestamps.
type pacer struct {
	last     time.Time
	interval time.Duration
}

func (p *pacer) reset(now time.Time, interval time.Duration) {
	p.last = now
	p.interval = interval
}

func (p *pacer) due(now time.Time) bool {
	if now.Sub(p.last) < p.interval {
		return false
	}
	p.last = now
	return true
}

func present(s led.Strip) {
	if err := s.Present(); err != nil {
		log.Warn().Err(err).Msg("led present failed")
	}
}

// arduinoMap linearly re-maps x from [inLo, inHi] to [outLo, outHi] using
// integer arithmetic.
func arduinoMap(x, inLo, inHi, outLo, outHi int) int {
	if inHi == inLo {
		return outLo
	}
	return (x-inLo)*(outHi-outLo)/(inHi-inLo) + outLo
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
