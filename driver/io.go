package driver

import "chip8vm/chip8"

// Sound is the narrow interface an audio backend implements: one-shot
// start/stop signals and the XO-CHIP F002 pattern load, per spec.md
// §6's Audio contract.
type Sound interface {
	Start()
	Stop()
	LoadPattern(pattern [16]byte)
}

// IOAdapter composes a *chip8.Latch (key state, owned by the video
// host) with a Sound backend to satisfy chip8.IO. chip8.Latch itself
// only ever needs to answer Pressed; splitting sound out keeps it free
// of any audio-backend dependency, per spec.md §4.4's Input Latch
// contract.
type IOAdapter struct {
	*chip8.Latch
	Sound Sound
}

// NewIOAdapter binds latch and sound into a chip8.IO.
func NewIOAdapter(latch *chip8.Latch, sound Sound) *IOAdapter {
	return &IOAdapter{Latch: latch, Sound: sound}
}

func (a *IOAdapter) StartSound() { a.Sound.Start() }
func (a *IOAdapter) StopSound()  { a.Sound.Stop() }
func (a *IOAdapter) LoadAudioPattern(pattern [16]byte) {
	a.Sound.LoadPattern(pattern)
}
