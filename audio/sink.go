// Package audio implements the host audio collaborator: a persistent
// tone gated by the sound timer's one-shot start/stop signals, and on
// XO-CHIP the 16-byte pattern buffer loaded by F002.
package audio

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

const (
	sampleRate = 44100
	// patternRate is the XO-CHIP pattern-playback rate in Hz for a
	// pitch register value of 64 (the documented default), per
	// spec.md §6's Audio contract.
	patternRate = 4000
	amplitude   = 0.2
)

// Sink is a chip8vm/driver.Sound backed by an ebitengine/oto/v3 player
// streaming a generated waveform.
type Sink struct {
	player *oto.Player

	mu         sync.Mutex
	active     bool
	pattern    [16]byte
	hasPattern bool
	phase      float64
	toneFreq   float64
}

// NewSink opens the platform audio device and returns a Sink playing a
// square wave at toneFreq while active.
func NewSink(toneFreq float64) (*Sink, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	s := &Sink{toneFreq: toneFreq}
	s.player = ctx.NewPlayer(s)
	return s, nil
}

// Start begins (or resumes) playback. Idempotent.
func (s *Sink) Start() {
	s.mu.Lock()
	s.active = true
	s.mu.Unlock()
	s.player.Play()
}

// Stop silences the sink without tearing down the player, so a
// subsequent Start is cheap. Idempotent.
func (s *Sink) Stop() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}

// LoadPattern installs the 16-byte XO-CHIP audio pattern buffer written
// by F002. Once loaded, it replaces the plain square wave for as long
// as the sink is active.
func (s *Sink) LoadPattern(pattern [16]byte) {
	s.mu.Lock()
	s.pattern = pattern
	s.hasPattern = true
	s.mu.Unlock()
}

// Read implements io.Reader for the oto player. It streams
// FormatFloat32LE mono samples, silence when inactive.
func (s *Sink) Read(p []byte) (int, error) {
	s.mu.Lock()
	active := s.active
	hasPattern := s.hasPattern
	pattern := s.pattern
	freq := s.toneFreq
	phase := s.phase
	s.mu.Unlock()

	n := len(p) / 4
	for i := 0; i < n; i++ {
		var sample float32
		if active {
			if hasPattern {
				sample = patternSample(pattern, phase)
				phase += patternRate / (128.0 * sampleRate)
			} else {
				sample = squareSample(phase)
				phase += freq / sampleRate
			}
			if phase >= 1 {
				phase -= math.Trunc(phase)
			}
		}
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(sample))
	}

	s.mu.Lock()
	s.phase = phase
	s.mu.Unlock()

	return n * 4, nil
}

func squareSample(phase float64) float32 {
	if phase < 0.5 {
		return amplitude
	}
	return -amplitude
}

// patternSample reads one bit out of the 128-bit pattern buffer,
// addressed MSB-first within each byte per spec.md §6.
func patternSample(pattern [16]byte, phase float64) float32 {
	bitIndex := int(phase*128) % 128
	byteIndex := bitIndex / 8
	bit := uint(7 - bitIndex%8)
	if pattern[byteIndex]&(1<<bit) != 0 {
		return amplitude
	}
	return -amplitude
}
