package modes

import (
	"time"

	"github.com/sweeney/donation-box/internal/led"
	"github.com/sweeney/donation-box/internal/mode"
)

const (
	chaseTail   = 3
	chaseNormal = 120 * time.Millisecond
	chaseFast   = 40 * time.Millisecond
)

// chase bounces a single light with a fading tail between the strip ends.
// A donation reverses it and shows a dim preview pixel ahead of the head.
type chase struct {
	deps Deps
	pace pacer
	pos  int
	dir  int
}

// NewChase returns the "Chase Light" mode.
func NewChase(d Deps) *mode.Strategy {
	return mode.NewStrategy(mode.Info{
		Name:        "Chase Light",
		Description: "Moving light with trailing tail effect",
		Author:      author,
		Version:     version,
	}, 2500*time.Millisecond, &chase{deps: d.withDefaults()})
}

func (c *chase) Reset(now time.Time) {
	c.pos = 0
	c.dir = 1
	c.pace.reset(now, chaseNormal)
	c.deps.Strip.SetBrightness(255)
	c.deps.Strip.Clear()
	present(c.deps.Strip)
}

func (c *chase) Trigger(time.Time) {
	c.pace.interval = chaseFast
	c.dir = -c.dir
}

func (c *chase) Frame(now time.Time, effect bool) {
	if !c.pace.due(now) {
		return
	}
	n := c.deps.Strip.Len()
	c.pos += c.dir
	switch {
	case c.pos >= n:
		c.pos = n - 1
		c.dir = -1
	case c.pos < 0:
		c.pos = 0
		c.dir = 1
	}
	c.draw(effect)
}

func (c *chase) EffectEnded() {
	c.pace.interval = chaseNormal
}

func (c *chase) draw(effect bool) {
	s := c.deps.Strip
	n := s.Len()
	s.Clear()
	s.SetPixel(c.pos, led.White)
	for i := 1; i <= chaseTail; i++ {
		p := c.pos - c.dir*i
		if p >= 0 && p < n {
			s.SetPixel(p, led.Gray(uint8(clamp(arduinoMap(i, 1, chaseTail, 180, 30), 30, 180))))
		}
	}
	if effect {
		if p := c.pos + c.dir; p >= 0 && p < n {
			s.SetPixel(p, led.Gray(80))
		}
	}
	present(s)
}
