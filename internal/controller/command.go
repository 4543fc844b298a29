package controller

import (
	"errors"
	"time"
)

// ErrBusy is returned when the command queue is full.
var ErrBusy = errors.New("command queue full")

// Command is a manual mode change requested from outside the control loop.
type Command struct {
	Next  bool // rotate to the next mode; Index is ignored
	Index int
}

// Commands carries manual requests from the HTTP server, the button and the
// simulator to the control loop, which applies them between ticks.
type Commands chan Command

// NewCommands returns a queue holding up to n pending commands.
func NewCommands(n int) Commands {
	return make(Commands, n)
}

// Next requests rotation to the next mode.
func (q Commands) Next() error {
	return q.send(Command{Next: true})
}

// SwitchTo requests a jump to index. The index is validated when applied.
func (q Commands) SwitchTo(index int) error {
	return q.send(Command{Index: index})
}

func (q Commands) send(c Command) error {
	select {
	case q <- c:
		return nil
	default:
		return ErrBusy
	}
}

// Apply performs cmd on the controller.
func (c *Controller) Apply(cmd Command, now time.Time) error {
	if cmd.Next {
		return c.SwitchToNext(now)
	}
	return c.ForceSwitchTo(cmd.Index, now)
}
