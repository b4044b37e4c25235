// Package driver implements the Frame Driver: the wall-clock pacing
// loop that runs a batch of interpreter steps per 60 Hz field, ticks
// the timers, and polls the host's video/input surface. It is the only
// place in the module that sleeps or paces by the wall clock.
package driver

import (
	"log"
	"time"

	"chip8vm/chip8"
)

const fieldPeriod = time.Second / 60

// Video is the narrow interface a host windowing toolkit implements so
// the Frame Driver can drive it without depending on any particular
// toolkit.
type Video interface {
	// PollEvents drains pending input/window events. It must be called
	// once per field so key state and the close flag stay current.
	PollEvents()
	// ShouldClose reports whether the window has been closed or ESC
	// pressed.
	ShouldClose() bool
	// Render draws the current framebuffer contents.
	Render(fb *chip8.Framebuffer)
}

// Config holds the tunables spec.md's CLI exposes.
type Config struct {
	// Rate is the number of interpreter steps issued per 60 Hz field.
	// Defaults to 7 when <= 0.
	Rate int
	// Strict terminates the run with a nonzero exit code the first time
	// Step reports Unsupported, instead of logging and continuing. The
	// CLI derives this from --debug insn rather than exposing it as its
	// own flag, per spec.md's CLI contract.
	Strict bool
}

// Driver wires an Interpreter Core to a host Video surface and IO
// implementation and owns the pacing loop.
type Driver struct {
	core   *chip8.Interpreter
	io     chip8.IO
	video  Video
	rate   int
	strict bool
}

// New builds a Driver. cfg.Rate <= 0 is normalized to the spec default
// of 7 steps per field.
func New(core *chip8.Interpreter, io chip8.IO, video Video, cfg Config) *Driver {
	rate := cfg.Rate
	if rate <= 0 {
		rate = 7
	}
	return &Driver{core: core, io: io, video: video, rate: rate, strict: cfg.Strict}
}

// Run drives fields until the window closes, the program executes an
// EXIT opcode, or (in strict mode) an unsupported opcode is fetched. It
// returns the process exit code per spec.md §6.
func (d *Driver) Run() int {
	for {
		d.video.PollEvents()
		if d.video.ShouldClose() {
			return 0
		}

		code, done, faulted := d.runField()
		if faulted {
			return 1
		}
		if done {
			return code
		}

		d.core.Tick(d.io)
		d.video.Render(d.core.FB)

		deadline := time.Now().Add(fieldPeriod)
		if remaining := time.Until(deadline); remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

// runField executes up to d.rate steps, recovering a ResourceFault
// raised by the core so the caller can report it and terminate. done
// is true when the field ended the run (EXIT, or Unsupported under
// strict mode); code is the exit code to return in that case.
func (d *Driver) runField() (code int, done bool, faulted bool) {
	defer func() {
		if r := recover(); r != nil {
			fault, ok := r.(*chip8.ResourceFault)
			if !ok {
				panic(r)
			}
			log.Printf("fatal: %v", fault)
			faulted = true
		}
	}()

	for i := 0; i < d.rate; i++ {
		result, err := d.core.Step(d.io)
		if err != nil {
			log.Printf("%v", err)
		}
		switch result {
		case chip8.Exit:
			return 0, true, false
		case chip8.Unsupported:
			if d.strict {
				return 1, true, false
			}
		}
	}
	return 0, false, false
}
