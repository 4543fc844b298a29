// Package sim runs the donation box in a terminal. The screen stands in for
// the LED strip and the keyboard stands in for the IR sensor.
//
// Keys:
//
//	d, Enter   drop a coin (sensor blocked for a few polls)
//	space      hold or release the sensor
//	n          next mode
//	q, Esc     quit
package sim

import (
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"

	"github.com/sweeney/donation-box/internal/led"
)

// PulseReads is how many sensor reads a dropped coin stays visible for.
const PulseReads = 5

// Terminal is both a led.Strip and a gpio.Reader.
type Terminal struct {
	*led.Buffer

	screen  tcell.Screen
	held    atomic.Bool
	pulse   atomic.Int32
	onNext  func()
	caption func() string

	done     chan struct{}
	quitOnce sync.Once
}

// Option configures a Terminal.
type Option func(*Terminal)

// WithNext sets the handler for the next-mode key.
func WithNext(fn func()) Option {
	return func(t *Terminal) { t.onNext = fn }
}

// WithCaption sets a status line drawn under the strip on every redraw.
func WithCaption(fn func() string) Option {
	return func(t *Terminal) { t.caption = fn }
}

// New opens the terminal screen.
func New(count int, opts ...Option) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewWithScreen(screen, count, opts...)
}

// NewWithScreen initialises screen and wraps it.
func NewWithScreen(screen tcell.Screen, count int, opts ...Option) (*Terminal, error) {
	if err := screen.Init(); err != nil {
		return nil, err
	}
	t := &Terminal{
		Buffer: led.NewBuffer(count),
		screen: screen,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	screen.Clear()
	return t, nil
}

// Present counts the frame and asks the Run goroutine to redraw. Only Run
// touches the screen, so frames from the control loop never interleave with
// key handling. A full event queue already holds a redraw and is ignored.
func (t *Terminal) Present() error {
	if err := t.Buffer.Present(); err != nil {
		return err
	}
	_ = t.screen.PostEvent(tcell.NewEventInterrupt(nil))
	return nil
}

// Read reports the simulated sensor level.
func (t *Terminal) Read() (bool, error) {
	if t.held.Load() {
		return true, nil
	}
	for {
		n := t.pulse.Load()
		if n <= 0 {
			return false, nil
		}
		if t.pulse.CompareAndSwap(n, n-1) {
			return true, nil
		}
	}
}

// Drop simulates a coin passing the sensor.
func (t *Terminal) Drop() {
	t.pulse.Store(PulseReads)
}

// Run handles keyboard input until quit or Close.
func (t *Terminal) Run() {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		if !t.handle(ev) {
			return
		}
	}
}

// Done is closed when the user quits.
func (t *Terminal) Done() <-chan struct{} {
	return t.done
}

// Close restores the terminal.
func (t *Terminal) Close() error {
	t.screen.Fini()
	return nil
}

func (t *Terminal) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
			t.quit()
			return false
		case ev.Key() == tcell.KeyEnter:
			t.Drop()
		case ev.Key() == tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				t.quit()
				return false
			case 'd':
				t.Drop()
			case ' ':
				t.held.Store(!t.held.Load())
			case 'n':
				if t.onNext != nil {
					t.onNext()
				}
			}
		}
		t.draw()
	case *tcell.EventInterrupt:
		t.draw()
	case *tcell.EventResize:
		t.screen.Sync()
		t.draw()
	}
	return true
}

func (t *Terminal) quit() {
	t.quitOnce.Do(func() { close(t.done) })
}

var (
	labelStyle = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	dimStyle   = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

func (t *Terminal) draw() {
	t.screen.Clear()
	drawText(t.screen, 1, 0, labelStyle, "donation box")

	for i, c := range t.Frame() {
		r, g, b := c.RGB255()
		style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
		x := 1 + i*3
		t.screen.SetContent(x, 2, '█', nil, style)
		t.screen.SetContent(x+1, 2, '█', nil, style)
	}

	sensor := "clear"
	if t.held.Load() || t.pulse.Load() > 0 {
		sensor = "blocked"
	}
	drawText(t.screen, 1, 4, labelStyle, "sensor: "+sensor)
	if t.caption != nil {
		drawText(t.screen, 1, 5, labelStyle, t.caption())
	}
	drawText(t.screen, 1, 7, dimStyle, "d coin  space hold  n next  q quit")
	t.screen.Show()
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}
