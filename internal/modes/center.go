package modes

import (
	"time"

	"github.com/sweeney/donation-box/internal/led"
	"github.com/sweeney/donation-box/internal/mode"
)

const (
	centerNormal = 150 * time.Millisecond
	centerFast   = 50 * time.Millisecond
)

// center grows a band of light outwards from the middle of the strip and
// shrinks it back again.
type center struct {
	deps      Deps
	pace      pacer
	radius    int
	expanding bool
}

// NewCenter returns the "Center Expansion" mode.
func NewCenter(d Deps) *mode.Strategy {
	return mode.NewStrategy(mode.Info{
		Name:        "Center Expansion",
		Description: "Light expanding from center outwards",
		Author:      author,
		Version:     version,
	}, 3000*time.Millisecond, &center{deps: d.withDefaults()})
}

func (c *center) Reset(now time.Time) {
	c.radius = 0
	c.expanding = true
	c.pace.reset(now, centerNormal)
	c.deps.Strip.SetBrightness(255)
	c.deps.Strip.Clear()
	present(c.deps.Strip)
}

func (c *center) Trigger(time.Time) {
	c.deps.playDonation()
	c.pace.interval = centerFast
	c.radius = 0
	c.expanding = true
}

func (c *center) Frame(now time.Time, _ bool) {
	if !c.pace.due(now) {
		return
	}
	maxRadius := c.deps.Strip.Len() / 2
	if c.expanding {
		c.radius++
		if c.radius >= maxRadius {
			c.radius = maxRadius
			c.expanding = false
		}
	} else {
		c.radius--
		if c.radius <= 0 {
			c.radius = 0
			c.expanding = true
		}
	}
	c.draw()
}

func (c *center) EffectEnded() {
	c.pace.interval = centerNormal
}

func (c *center) draw() {
	s := c.deps.Strip
	n := s.Len()
	mid := n / 2
	s.Clear()
	defer present(s)

	if c.radius <= 0 {
		s.SetPixel(mid, led.White)
		if n%2 == 0 {
			s.SetPixel(mid-1, led.White)
		}
		return
	}

	maxRadius := n / 2
	for i := 0; i < c.radius && i < maxRadius; i++ {
		g := led.Gray(uint8(clamp(arduinoMap(i, 0, c.radius, 255, 100), 50, 255)))
		left, right := mid-i-1, mid+i
		if n%2 != 0 {
			if i == 0 {
				s.SetPixel(mid, g)
				continue
			}
			left, right = mid-i, mid+i
		}
		s.SetPixel(left, g)
		s.SetPixel(right, g)
	}
}
