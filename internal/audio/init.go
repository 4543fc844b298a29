package audio

import (
	"time"

	"github.com/rs/zerolog/log"
)

// InitStatus is the outcome of Init.
type InitStatus int

const (
	InitReady    InitStatus = iota // device ready on the first attempt
	InitDegraded                   // device ready after one or more retries
	InitFatal                      // every attempt failed; caller gets Nop
)

func (s InitStatus) String() string {
	switch s {
	case InitReady:
		return "ready"
	case InitDegraded:
		return "degraded"
	default:
		return "unavailable"
	}
}

// Opener constructs a Player. NewBeepPlayer wrapped in a closure is the
// production opener.
type Opener func() (Player, error)

// Initializer retries an Opener a bounded number of times.
type Initializer struct {
	Attempts int
	Delay    time.Duration
	Sleep    func(time.Duration)
}

// Init opens the device, retrying up to Attempts times with Delay between
// attempts. On total failure it returns Nop and InitFatal; it never blocks
// longer than Attempts*Delay.
func (in Initializer) Init(open Opener) (Player, InitStatus) {
	attempts := in.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := in.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	for i := 1; i <= attempts; i++ {
		p, err := open()
		if err == nil {
			if i == 1 {
				return p, InitReady
			}
			log.Warn().Int("attempt", i).Msg("audio ready after retry")
			return p, InitDegraded
		}
		log.Warn().Err(err).Int("attempt", i).Int("of", attempts).Msg("audio init failed")
		if i < attempts {
			sleep(in.Delay)
		}
	}

	log.Error().Int("attempts", attempts).Msg("audio unavailable; continuing silent")
	return Nop{}, InitFatal
}
