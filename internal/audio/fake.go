package audio

import "math/rand/v2"

// FakePlayer records requests for testing.
type FakePlayer struct {
	Played   []int
	Volume   int
	NotReady bool
	Rand     *rand.Rand
}

// NewFakePlayer returns a ready fake with a deterministic random source.
func NewFakePlayer() *FakePlayer {
	return &FakePlayer{
		Volume: DefaultVolume,
		Rand:   rand.New(rand.NewPCG(1, 2)),
	}
}

// PlayTrack records n.
func (f *FakePlayer) PlayTrack(n int) {
	if f.NotReady {
		return
	}
	f.Played = append(f.Played, n)
}

// PlayRandom records the chosen track.
func (f *FakePlayer) PlayRandom(base, count int) {
	f.PlayTrack(PickRandom(f.Rand, base, count))
}

// SetVolume records the clamped level.
func (f *FakePlayer) SetVolume(level int) {
	f.Volume = ClampVolume(level)
}

// Ready reports !NotReady.
func (f *FakePlayer) Ready() bool {
	return !f.NotReady
}

// Reset clears recorded plays.
func (f *FakePlayer) Reset() {
	f.Played = nil
}
