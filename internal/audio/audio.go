// Package audio plays the donation box's sound clips. Tracks are numbered
// the way the firmware's SD card was: 001.wav, 002.wav, ...
package audio

import (
	"errors"
	"math/rand/v2"
)

const (
	MaxVolume            = 30
	DefaultVolume        = 30
	DefaultDonationBase  = 1
	DefaultDonationCount = 16
)

var ErrUnknownTrack = errors.New("audio: unknown track")

// Player is the sound output used by the modes. Calls never block on
// playback and never fail loudly; a player that is not ready ignores them.
type Player interface {
	// PlayTrack starts track n.
	PlayTrack(n int)

	// PlayRandom starts a random track in [base, base+count).
	PlayRandom(base, count int)

	// SetVolume sets the level, clamped to 0..MaxVolume.
	SetVolume(level int)

	// Ready reports whether the device initialised.
	Ready() bool
}

// ClampVolume limits level to 0..MaxVolume.
func ClampVolume(level int) int {
	switch {
	case level < 0:
		return 0
	case level > MaxVolume:
		return MaxVolume
	default:
		return level
	}
}

// PickRandom returns a track in [base, base+count). count <= 0 returns base.
func PickRandom(r *rand.Rand, base, count int) int {
	if count <= 0 {
		return base
	}
	if r == nil {
		return base + rand.IntN(count)
	}
	return base + r.IntN(count)
}

// Nop is a Player that is never ready.
type Nop struct{}

func (Nop) PlayTrack(int)       {}
func (Nop) PlayRandom(int, int) {}
func (Nop) SetVolume(int)       {}
func (Nop) Ready() bool         { return false }
