package sim

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTerminal(t *testing.T, opts ...Option) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	term, err := NewWithScreen(screen, 6, opts...)
	require.NoError(t, err)
	screen.SetSize(60, 10)
	t.Cleanup(func() { term.Close() })
	return term, screen
}

func key(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

// redraw delivers the event Present posts, as Run would.
func redraw(term *Terminal) {
	term.handle(tcell.NewEventInterrupt(nil))
}

func rowText(s tcell.Screen, y, width int) string {
	out := make([]rune, 0, width)
	for x := 0; x < width; x++ {
		r, _, _, _ := s.GetContent(x, y)
		out = append(out, r)
	}
	return string(out)
}

func TestSensorDefaultsClear(t *testing.T) {
	term, _ := newTerminal(t)
	level, err := term.Read()
	require.NoError(t, err)
	assert.False(t, level)
}

func TestDropPulsesSensor(t *testing.T) {
	term, _ := newTerminal(t)
	assert.True(t, term.handle(key('d')))

	for i := 0; i < PulseReads; i++ {
		level, _ := term.Read()
		assert.True(t, level, "read %d", i)
	}
	level, _ := term.Read()
	assert.False(t, level, "pulse released")
}

func TestEnterDropsCoin(t *testing.T) {
	term, _ := newTerminal(t)
	term.handle(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone))
	level, _ := term.Read()
	assert.True(t, level)
}

func TestSpaceHoldsSensor(t *testing.T) {
	term, _ := newTerminal(t)
	term.handle(key(' '))
	for i := 0; i < 20; i++ {
		level, _ := term.Read()
		assert.True(t, level)
	}
	term.handle(key(' '))
	level, _ := term.Read()
	assert.False(t, level)
}

func TestNextKey(t *testing.T) {
	calls := 0
	term, _ := newTerminal(t, WithNext(func() { calls++ }))
	term.handle(key('n'))
	term.handle(key('n'))
	assert.Equal(t, 2, calls)
}

func TestQuit(t *testing.T) {
	term, _ := newTerminal(t)
	assert.False(t, term.handle(key('q')))
	select {
	case <-term.Done():
	default:
		t.Fatal("done not closed")
	}
	assert.False(t, term.handle(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)), "second quit is safe")
}

func TestPresentDrawsStrip(t *testing.T) {
	term, screen := newTerminal(t, WithCaption(func() string { return "mode: Wave Motion" }))
	term.SetPixel(0, colorful.Color{R: 1})
	term.SetPixel(5, colorful.Color{B: 1})
	require.NoError(t, term.Present())
	assert.Equal(t, 1, term.Presents)
	redraw(term)

	r, _, style, _ := screen.GetContent(1, 2)
	assert.Equal(t, '█', r)
	fg, _, _ := style.Decompose()
	red, green, blue := fg.RGB()
	assert.Equal(t, [3]int32{255, 0, 0}, [3]int32{red, green, blue})

	_, _, style, _ = screen.GetContent(1+5*3, 2)
	fg, _, _ = style.Decompose()
	red, green, blue = fg.RGB()
	assert.Equal(t, [3]int32{0, 0, 255}, [3]int32{red, green, blue})

	assert.Contains(t, rowText(screen, 4, 60), "sensor: clear")
	assert.Contains(t, rowText(screen, 5, 60), "mode: Wave Motion")
}

func TestPresentLeavesDrawingToRun(t *testing.T) {
	term, screen := newTerminal(t)
	term.SetAll(colorful.Color{G: 1})
	require.NoError(t, term.Present())
	assert.NotContains(t, rowText(screen, 2, 60), "█", "caller goroutine must not draw")

	redraw(term)
	assert.Contains(t, rowText(screen, 2, 60), "█")
}

func TestRunDrawsPostedFrames(t *testing.T) {
	term, screen := newTerminal(t)
	go term.Run()

	term.SetPixel(0, colorful.Color{R: 1})
	require.NoError(t, term.Present())
	assert.Eventually(t, func() bool {
		r, _, _, _ := screen.GetContent(1, 2)
		return r == '█'
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, screen.PostEvent(key('q')))
	select {
	case <-term.Done():
	case <-time.After(time.Second):
		t.Fatal("run did not quit")
	}
}

func TestSensorLineShowsBlocked(t *testing.T) {
	term, screen := newTerminal(t)
	term.handle(key(' '))
	assert.Contains(t, rowText(screen, 4, 60), "sensor: blocked")
}
