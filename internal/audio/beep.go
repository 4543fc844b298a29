package audio

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"
	"github.com/rs/zerolog/log"
)

const sampleRate = beep.SampleRate(44100)

// BeepPlayer plays preloaded WAV tracks through the system speaker.
type BeepPlayer struct {
	mu     sync.Mutex
	tracks map[int]*beep.Buffer
	mixer  *beep.Mixer
	volume int
	rand   *rand.Rand
}

// LoadTracks decodes every NNN.wav in dir into memory, resampled to the
// speaker rate. Files with other names are skipped.
func LoadTracks(dir string) (map[int]*beep.Buffer, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read track dir: %w", err)
	}

	tracks := make(map[int]*beep.Buffer)
	for _, e := range entries {
		n, ok := trackNumber(e.Name())
		if !ok || e.IsDir() {
			continue
		}
		buf, err := loadTrack(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		tracks[n] = buf
	}
	return tracks, nil
}

func trackNumber(name string) (int, bool) {
	base, ok := strings.CutSuffix(strings.ToLower(name), ".wav")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(base)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func loadTrack(path string) (*beep.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	streamer, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	defer streamer.Close()

	out := beep.Format{SampleRate: sampleRate, NumChannels: 2, Precision: 2}
	buf := beep.NewBuffer(out)
	var s beep.Streamer = streamer
	if format.SampleRate != sampleRate {
		s = beep.Resample(4, format.SampleRate, sampleRate, streamer)
	}
	buf.Append(s)
	return buf, nil
}

// NewBeepPlayer opens the speaker and loads the tracks in dir. It fails when
// the speaker cannot be opened or no tracks were found.
func NewBeepPlayer(dir string, volume int) (*BeepPlayer, error) {
	tracks, err := LoadTracks(dir)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("no tracks in %s: %w", dir, ErrUnknownTrack)
	}

	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("speaker init: %w", err)
	}

	p := &BeepPlayer{
		tracks: tracks,
		mixer:  &beep.Mixer{},
		volume: ClampVolume(volume),
		rand:   rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
	speaker.Play(p.mixer)

	log.Info().Ints("tracks", p.Tracks()).Int("volume", p.volume).Msg("audio ready")
	return p, nil
}

// Tracks returns the loaded track numbers in order.
func (p *BeepPlayer) Tracks() []int {
	nums := make([]int, 0, len(p.tracks))
	for n := range p.tracks {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// PlayTrack mixes track n in without waiting for it to finish.
func (p *BeepPlayer) PlayTrack(n int) {
	buf, ok := p.tracks[n]
	if !ok {
		log.Warn().Int("track", n).Err(ErrUnknownTrack).Msg("play skipped")
		return
	}
	p.mu.Lock()
	level := p.volume
	p.mu.Unlock()

	s := gain(buf.Streamer(0, buf.Len()), level)
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
	log.Debug().Int("track", n).Msg("playing")
}

// PlayRandom plays a random track in [base, base+count).
func (p *BeepPlayer) PlayRandom(base, count int) {
	p.mu.Lock()
	n := PickRandom(p.rand, base, count)
	p.mu.Unlock()
	p.PlayTrack(n)
}

// SetVolume sets the level for subsequent plays.
func (p *BeepPlayer) SetVolume(level int) {
	p.mu.Lock()
	p.volume = ClampVolume(level)
	p.mu.Unlock()
}

// Ready is always true once constructed.
func (p *BeepPlayer) Ready() bool {
	return true
}

// Close stops playback and releases the speaker.
func (p *BeepPlayer) Close() {
	speaker.Clear()
	speaker.Close()
}

// gain maps a 0..MaxVolume level onto a logarithmic volume where MaxVolume is
// unity gain and each step below it is roughly 1 dB.
func gain(s beep.Streamer, level int) beep.Streamer {
	return &effects.Volume{
		Streamer: s,
		Base:     2,
		Volume:   volumeExponent(level),
		Silent:   level <= 0,
	}
}

func volumeExponent(level int) float64 {
	level = ClampVolume(level)
	db := float64(level - MaxVolume)
	return db / (20 * math.Log10(2))
}
