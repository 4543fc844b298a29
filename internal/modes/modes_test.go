package modes

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/donation-box/internal/audio"
	"github.com/sweeney/donation-box/internal/led"
	"github.com/sweeney/donation-box/internal/mode"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func ms(n int) time.Time {
	return t0.Add(time.Duration(n) * time.Millisecond)
}

type rig struct {
	strip *led.Buffer
	sound *audio.FakePlayer
	deps  Deps
}

func newRig() *rig {
	r := &rig{strip: led.NewBuffer(6), sound: audio.NewFakePlayer()}
	r.deps = Deps{Strip: r.strip, Audio: r.sound, Rand: rand.New(rand.NewPCG(3, 4))}
	return r
}

func gray(b *led.Buffer, i int) uint8 {
	r, _, _ := b.Pixel(i).RGB255()
	return r
}

func TestBuildDefaultOrder(t *testing.T) {
	r := newRig()
	built, err := Build(nil, nil, r.deps)
	require.NoError(t, err)

	var names []string
	var durs []time.Duration
	for _, m := range built {
		names = append(names, m.Info().Name)
		durs = append(durs, m.EffectDuration())
		assert.Equal(t, "Friedjof", m.Info().Author)
		assert.Equal(t, "v1.0.0", m.Info().Version)
	}
	assert.Equal(t, []string{
		"Static Breathing", "Wave Motion", "Random Blink",
		"Half Switch", "Center Expansion", "Chase Light",
	}, names)
	assert.Equal(t, []time.Duration{
		3 * time.Second, 3 * time.Second, 4 * time.Second,
		3 * time.Second, 3 * time.Second, 2500 * time.Millisecond,
	}, durs)
}

func TestBuildOrderAndOverrides(t *testing.T) {
	r := newRig()
	built, err := Build([]string{Chase, Breathing}, map[string]time.Duration{Chase: time.Second}, r.deps)
	require.NoError(t, err)
	require.Len(t, built, 2)
	assert.Equal(t, "Chase Light", built[0].Info().Name)
	assert.Equal(t, time.Second, built[0].EffectDuration())
	assert.Equal(t, 3*time.Second, built[1].EffectDuration())
}

func TestBuildErrors(t *testing.T) {
	_, err := Build([]string{"disco"}, nil, newRig().deps)
	assert.ErrorContains(t, err, "disco")

	_, err = Build(nil, nil, Deps{})
	assert.Error(t, err)

	assert.True(t, Known(Wave))
	assert.False(t, Known("disco"))
}

func TestBreathingRamp(t *testing.T) {
	r := newRig()
	m := NewBreathing(r.deps)
	m.Activate(t0)
	assert.Equal(t, uint8(0), r.strip.Brightness())
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, r.strip.Lit(), "white at zero brightness")

	m.Tick(ms(50))
	assert.Equal(t, uint8(0), r.strip.Brightness(), "not yet due")
	m.Tick(ms(80))
	assert.Equal(t, uint8(15), r.strip.Brightness())

	// 17 steps reach the top, then it turns.
	now := 80
	for i := 0; i < 16; i++ {
		now += 80
		m.Tick(ms(now))
	}
	assert.Equal(t, uint8(255), r.strip.Brightness())
	m.Tick(ms(now + 80))
	assert.Equal(t, uint8(240), r.strip.Brightness())
}

func TestBreathingDonation(t *testing.T) {
	r := newRig()
	m := NewBreathing(r.deps)
	m.Activate(t0)

	m.OnTrigger(ms(0))
	require.Len(t, r.sound.Played, 1)
	assert.GreaterOrEqual(t, r.sound.Played[0], 1)
	assert.LessOrEqual(t, r.sound.Played[0], 16)

	m.Tick(ms(10))
	m.Tick(ms(20))
	assert.Equal(t, uint8(30), r.strip.Brightness(), "fast ramp during the effect")

	m.Tick(ms(3000))
	assert.False(t, m.IsActive())

	m.Activate(ms(4000))
	m.Tick(ms(4010))
	assert.Equal(t, uint8(0), r.strip.Brightness(), "normal speed after reactivation")
}

func TestWaveDraw(t *testing.T) {
	r := newRig()
	m := NewWave(r.deps)
	m.Activate(t0)

	assert.Equal(t, uint8(255), gray(r.strip, 0))
	assert.Equal(t, uint8(195), gray(r.strip, 1))
	assert.InDelta(t, 56, int(gray(r.strip, 2)), 1)

	m.Tick(ms(200))
	assert.Equal(t, uint8(255), gray(r.strip, 1))
	assert.Equal(t, uint8(195), gray(r.strip, 2))

	m.OnTrigger(ms(210))
	assert.Len(t, r.sound.Played, 1)
	m.Tick(ms(260))
	assert.Equal(t, uint8(255), gray(r.strip, 2))
	assert.Equal(t, uint8(255), gray(r.strip, 3), "full band during the effect")
}

func TestWaveWraps(t *testing.T) {
	r := newRig()
	m := NewWave(r.deps)
	m.Activate(t0)
	for i := 1; i <= 5; i++ {
		m.Tick(ms(200 * i))
	}
	assert.Equal(t, uint8(255), gray(r.strip, 5))
	assert.Equal(t, uint8(195), gray(r.strip, 0))
}

func TestBlinkStartsAlternating(t *testing.T) {
	r := newRig()
	m := NewBlink(r.deps)
	m.Activate(t0)
	assert.Equal(t, []int{0, 2, 4}, r.strip.Lit())

	presents := r.strip.Presents
	m.Tick(ms(100))
	assert.Equal(t, presents, r.strip.Presents, "not yet due")
	m.Tick(ms(300))
	assert.Equal(t, presents+1, r.strip.Presents)
}

func TestBlinkDonationIsSilentAndFast(t *testing.T) {
	r := newRig()
	m := NewBlink(r.deps)
	m.Activate(t0)
	m.OnTrigger(t0)
	assert.Empty(t, r.sound.Played)

	presents := r.strip.Presents
	m.Tick(ms(100))
	assert.Equal(t, presents+1, r.strip.Presents)

	m.Tick(ms(4000))
	assert.Equal(t, mode.Inactive, m.State())
}

func TestHalfSwitches(t *testing.T) {
	r := newRig()
	m := NewHalf(r.deps)
	m.Activate(t0)
	assert.Equal(t, []int{0, 1, 2}, r.strip.Lit())

	m.Tick(ms(1499))
	assert.Equal(t, []int{0, 1, 2}, r.strip.Lit())
	m.Tick(ms(1500))
	assert.Equal(t, []int{3, 4, 5}, r.strip.Lit())

	m.OnTrigger(ms(1500))
	m.Tick(ms(1800))
	assert.Equal(t, []int{0, 1, 2}, r.strip.Lit())
}

func TestCenterExpandsAndContracts(t *testing.T) {
	r := newRig()
	m := NewCenter(r.deps)
	m.Activate(t0)
	assert.Empty(t, r.strip.Lit())

	m.Tick(ms(150))
	assert.Equal(t, []int{2, 3}, r.strip.Lit())

	m.Tick(ms(300))
	assert.Equal(t, []int{1, 2, 3, 4}, r.strip.Lit())
	assert.Equal(t, uint8(178), gray(r.strip, 1))
	assert.Equal(t, uint8(255), gray(r.strip, 2))

	m.Tick(ms(450))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, r.strip.Lit())

	m.Tick(ms(600))
	m.Tick(ms(750))
	m.Tick(ms(900))
	assert.Equal(t, []int{2, 3}, r.strip.Lit(), "radius zero lights both centre pixels")
}

func TestCenterDonationRestarts(t *testing.T) {
	r := newRig()
	m := NewCenter(r.deps)
	m.Activate(t0)
	m.Tick(ms(150))
	m.Tick(ms(300))

	m.OnTrigger(ms(310))
	assert.Len(t, r.sound.Played, 1)
	m.Tick(ms(360))
	assert.Equal(t, []int{2, 3}, r.strip.Lit(), "expansion restarts from the centre")
}

func TestCenterOddStrip(t *testing.T) {
	r := newRig()
	r.strip = led.NewBuffer(5)
	r.deps.Strip = r.strip
	m := NewCenter(r.deps)
	m.Activate(t0)

	m.Tick(ms(150))
	assert.Equal(t, []int{2}, r.strip.Lit())
	m.Tick(ms(300))
	assert.Equal(t, []int{1, 2, 3}, r.strip.Lit())
}

func TestChaseBouncesWithTail(t *testing.T) {
	r := newRig()
	m := NewChase(r.deps)
	m.Activate(t0)

	m.Tick(ms(120))
	assert.Equal(t, []int{0, 1}, r.strip.Lit())
	assert.Equal(t, uint8(255), gray(r.strip, 1))
	assert.Equal(t, uint8(180), gray(r.strip, 0))

	now := 120
	for i := 0; i < 5; i++ {
		now += 120
		m.Tick(ms(now))
	}
	// pos clamps at 5 and turns around.
	assert.Equal(t, uint8(255), gray(r.strip, 5))
	m.Tick(ms(now + 120))
	assert.Equal(t, uint8(255), gray(r.strip, 4))
	assert.Equal(t, uint8(180), gray(r.strip, 5))
}

func TestChaseDonationReversesWithPreview(t *testing.T) {
	r := newRig()
	m := NewChase(r.deps)
	m.Activate(t0)
	m.Tick(ms(120))
	m.Tick(ms(240))
	m.Tick(ms(360)) // head at 3, moving right

	m.OnTrigger(ms(360))
	assert.Empty(t, r.sound.Played)
	m.Tick(ms(400)) // head at 2, moving left
	assert.Equal(t, uint8(255), gray(r.strip, 2))
	assert.Equal(t, uint8(180), gray(r.strip, 3))
	assert.Equal(t, uint8(105), gray(r.strip, 4))
	assert.Equal(t, uint8(30), gray(r.strip, 5))
	assert.Equal(t, uint8(80), gray(r.strip, 1), "preview ahead of the head")

	m.Tick(ms(2860))
	assert.False(t, m.IsActive())
}

func TestInactiveModesDoNotRender(t *testing.T) {
	r := newRig()
	built, err := Build(nil, nil, r.deps)
	require.NoError(t, err)
	for _, m := range built {
		m.Tick(ms(1000))
		m.OnTrigger(ms(1000))
	}
	assert.Equal(t, 0, r.strip.Writes)
	assert.Equal(t, 0, r.strip.Presents)
	assert.Empty(t, r.sound.Played)
}

func TestArduinoMap(t *testing.T) {
	assert.Equal(t, 255, arduinoMap(0, 0, 2, 255, 100))
	assert.Equal(t, 178, arduinoMap(1, 0, 2, 255, 100))
	assert.Equal(t, 30, arduinoMap(3, 1, 3, 180, 30))
	assert.Equal(t, 7, arduinoMap(5, 1, 1, 7, 9))
}
