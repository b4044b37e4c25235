package chip8

import "testing"

// fakeIO is a minimal IO for tests: it reports the keys set in its
// pressed map and records sound start/stop and pattern loads for
// assertions.
type fakeIO struct {
	pressed      map[uint8]bool
	soundStarted bool
	soundStops   int
	pattern      [16]byte
	patternLoads int
}

func newFakeIO() *fakeIO {
	return &fakeIO{pressed: map[uint8]bool{}}
}

func (f *fakeIO) Pressed(key uint8) bool { return f.pressed[key] }
func (f *fakeIO) StartSound()            { f.soundStarted = true }
func (f *fakeIO) StopSound()             { f.soundStarted = false; f.soundStops++ }
func (f *fakeIO) LoadAudioPattern(p [16]byte) {
	f.pattern = p
	f.patternLoads++
}

func newTestInterpreter(t *testing.T, platform Platform, quirks Quirks, program []byte) (*Interpreter, *fakeIO) {
	t.Helper()
	mem := NewMemory(platform)
	fb := NewFramebuffer()
	c := NewInterpreter(mem, fb, platform, quirks, 1)
	if err := c.Reset(program); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	return c, newFakeIO()
}

func word(hi, lo byte) []byte { return []byte{hi, lo} }

func TestScenarios(t *testing.T) {
	t.Run("countdown timer stops sound when ST reaches zero", func(t *testing.T) {
		c, io := newTestInterpreter(t, CHIP8, 0, nil)
		c.Timers.ST = 5
		for i := 0; i < 4; i++ {
			c.Tick(io)
		}
		if io.soundStops != 0 {
			t.Fatalf("stopped early after %d ticks", 4)
		}
		c.Tick(io)
		if c.Timers.ST != 0 {
			t.Fatalf("ST = %d, want 0", c.Timers.ST)
		}
		if io.soundStops != 1 {
			t.Fatalf("soundStops = %d, want 1", io.soundStops)
		}
	})

	t.Run("6XNN then 7XNN accumulates into VX", func(t *testing.T) {
		prog := append(word(0x60, 0x05), word(0x70, 0x03)...)
		c, io := newTestInterpreter(t, CHIP8, 0, prog)
		if _, err := c.Step(io); err != nil {
			t.Fatal(err)
		}
		if _, err := c.Step(io); err != nil {
			t.Fatal(err)
		}
		if c.V[0] != 8 {
			t.Fatalf("V0 = %d, want 8", c.V[0])
		}
	})

	t.Run("3XNN skip advances past the following instruction", func(t *testing.T) {
		prog := append(word(0x60, 0x05), append(word(0x30, 0x05), word(0x60, 0xFF)...)...)
		c, io := newTestInterpreter(t, CHIP8, 0, prog)
		for i := 0; i < 2; i++ {
			if _, err := c.Step(io); err != nil {
				t.Fatal(err)
			}
		}
		if c.PC != ProgramStart+6 {
			t.Fatalf("PC = %04X, want %04X", c.PC, ProgramStart+6)
		}
		if c.V[0] != 5 {
			t.Fatalf("V0 = %d, want 5 (skip should have bypassed the 60FF load)", c.V[0])
		}
	})

	t.Run("8XY4 sets VF on carry, VF_ORDER quirk controls write order", func(t *testing.T) {
		prog := append(word(0x6F, 0xFF), append(word(0x61, 0x02), word(0x8F, 0x14)...)...)
		c, io := newTestInterpreter(t, CHIP8, QuirkVFOrder, prog)
		for i := 0; i < 3; i++ {
			if _, err := c.Step(io); err != nil {
				t.Fatal(err)
			}
		}
		if c.V[0xF] != 0x01 {
			t.Fatalf("VF = %02X, want 01 (0xFF+0x02=0x101: VF_ORDER writes the carry first, then the result 0x01 into dest=VF)", c.V[0xF])
		}
	})

	t.Run("DXYN draw sets VF on erase collision", func(t *testing.T) {
		mem := NewMemory(CHIP8)
		fb := NewFramebuffer()
		c := NewInterpreter(mem, fb, CHIP8, 0, 1)
		prog := append(word(0xA3, 0x00), append(word(0x60, 0x00), append(word(0x61, 0x00), word(0xD0, 0x11)...)...)...)
		if err := c.Reset(prog); err != nil {
			t.Fatal(err)
		}
		c.Mem.Write(0x300, 0x80)
		io := newFakeIO()
		for i := 0; i < 4; i++ {
			if _, err := c.Step(io); err != nil {
				t.Fatal(err)
			}
		}
		if fb.Cell(0, 0) == 0 {
			t.Fatal("expected pixel (0,0) set after first draw")
		}
		if c.V[0xF] != 0 {
			t.Fatalf("VF = %d after first draw, want 0", c.V[0xF])
		}
		c.PC = ProgramStart + 6 // re-run the DXYN instruction to draw the same sprite again
		if _, err := c.Step(io); err != nil {
			t.Fatal(err)
		}
		if fb.Cell(0, 0) != 0 {
			t.Fatal("expected pixel (0,0) erased after second draw of the same sprite")
		}
		if c.V[0xF] != 1 {
			t.Fatalf("VF = %d after second draw, want 1 (erase collision)", c.V[0xF])
		}
	})

	t.Run("FX0A blocks until press then release, advancing PC once", func(t *testing.T) {
		prog := append(word(0xF0, 0x0A), word(0x00, 0x00)...)
		c, io := newTestInterpreter(t, CHIP8, 0, prog)
		startPC := c.PC
		if _, err := c.Step(io); err != nil {
			t.Fatal(err)
		}
		if c.PC != startPC {
			t.Fatalf("PC = %04X, want unchanged %04X while awaiting press", c.PC, startPC)
		}
		for i := 0; i < 3; i++ {
			if _, err := c.Step(io); err != nil {
				t.Fatal(err)
			}
			if c.PC != startPC {
				t.Fatal("PC moved before a key was ever pressed")
			}
		}
		io.pressed[0x7] = true
		if _, err := c.Step(io); err != nil {
			t.Fatal(err)
		}
		if c.PC != startPC {
			t.Fatal("PC advanced on press, before release")
		}
		io.pressed[0x7] = false
		if _, err := c.Step(io); err != nil {
			t.Fatal(err)
		}
		if c.V[0] != 0x7 {
			t.Fatalf("V0 = %X, want 7", c.V[0])
		}
		if c.PC != startPC+2 {
			t.Fatalf("PC = %04X, want %04X", c.PC, startPC+2)
		}
	})
}

func TestSkipHonorsXOCHIPWideInstructionSize(t *testing.T) {
	prog := make([]byte, 12)
	copy(prog[0:], word(0x30, 0x00))
	copy(prog[2:], []byte{0xF0, 0x00, 0x03, 0x00})
	copy(prog[6:], word(0x61, 0x01))
	c, io := newTestInterpreter(t, XOCHIP, 0, prog)
	if _, err := c.Step(io); err != nil {
		t.Fatal(err)
	}
	if c.PC != ProgramStart+6 {
		t.Fatalf("PC = %04X, want %04X (skip must count the F000 word as 4 bytes)", c.PC, ProgramStart+6)
	}
}

func TestUnsupportedOpcodeStillAdvancesPC(t *testing.T) {
	prog := word(0x5F, 0x01)
	c, io := newTestInterpreter(t, CHIP8, 0, prog)
	result, err := c.Step(io)
	if result != Unsupported {
		t.Fatalf("result = %v, want Unsupported", result)
	}
	var uerr *UnsupportedError
	if err == nil {
		t.Fatal("expected an UnsupportedError")
	} else if _, ok := err.(*UnsupportedError); !ok {
		t.Fatalf("err = %T, want *UnsupportedError", err)
	} else {
		uerr = err.(*UnsupportedError)
		if uerr.Opcode != 0x5F01 {
			t.Fatalf("Opcode = %04X, want 5F01", uerr.Opcode)
		}
	}
	if c.PC != ProgramStart+2 {
		t.Fatalf("PC = %04X, want %04X", c.PC, ProgramStart+2)
	}
}

func TestShiftQuirkSelectsSource(t *testing.T) {
	prog := word(0x86, 0x16)
	c, io := newTestInterpreter(t, CHIP8, QuirkShift, prog)
	c.V[6] = 0x03
	c.V[1] = 0xFF
	if _, err := c.Step(io); err != nil {
		t.Fatal(err)
	}
	if c.V[6] != 0x01 {
		t.Fatalf("V6 = %02X, want 01 (shift quirk uses VX as source, not VY)", c.V[6])
	}
	if c.V[0xF] != 1 {
		t.Fatalf("VF = %d, want 1 (bit 0 of source was set)", c.V[0xF])
	}
}

func TestLoadStoreQuirkPinsI(t *testing.T) {
	prog := append(word(0xA3, 0x00), word(0xF2, 0x55)...)

	without, io := newTestInterpreter(t, CHIP8, 0, prog)
	for i := 0; i < 2; i++ {
		if _, err := without.Step(io); err != nil {
			t.Fatal(err)
		}
	}
	if without.I != 0x303 {
		t.Fatalf("I = %04X, want 0303 without the quirk", without.I)
	}

	with, io2 := newTestInterpreter(t, CHIP8, QuirkLoadStore, prog)
	for i := 0; i < 2; i++ {
		if _, err := with.Step(io2); err != nil {
			t.Fatal(err)
		}
	}
	if with.I != 0x300 {
		t.Fatalf("I = %04X, want 0300 with the quirk", with.I)
	}
}

func TestFX55FX65RoundTrip(t *testing.T) {
	prog := append(word(0xA4, 0x00), append(word(0xF2, 0x55), word(0xF2, 0x65)...)...)
	c, io := newTestInterpreter(t, CHIP8, 0, prog)
	c.V[0], c.V[1], c.V[2] = 0x11, 0x22, 0x33
	c.I = 0x400
	for i := 0; i < 2; i++ {
		if _, err := c.Step(io); err != nil {
			t.Fatal(err)
		}
	}
	c.V[0], c.V[1], c.V[2] = 0, 0, 0
	c.I = 0x400
	if _, err := c.Step(io); err != nil {
		t.Fatal(err)
	}
	if c.V[0] != 0x11 || c.V[1] != 0x22 || c.V[2] != 0x33 {
		t.Fatalf("V0..V2 = %02X %02X %02X, want 11 22 33", c.V[0], c.V[1], c.V[2])
	}
}

func TestXOCHIPRegisterRangeRoundTrip(t *testing.T) {
	prog := append(word(0xA5, 0x00), append(word(0x51, 0x32), word(0x51, 0x33)...)...)
	c, io := newTestInterpreter(t, XOCHIP, 0, prog)
	c.V[1], c.V[2], c.V[3] = 0xAA, 0xBB, 0xCC
	if _, err := c.Step(io); err != nil { // A500: I = 0x500
		t.Fatal(err)
	}
	if _, err := c.Step(io); err != nil { // 5132: store V1..V3 at I
		t.Fatal(err)
	}
	if got := []byte{c.Mem.Read(0x500), c.Mem.Read(0x501), c.Mem.Read(0x502)}; got[0] != 0xAA || got[1] != 0xBB || got[2] != 0xCC {
		t.Fatalf("stored range = %02X, want AA BB CC", got)
	}

	c.V[1], c.V[2], c.V[3] = 0, 0, 0
	if _, err := c.Step(io); err != nil { // 5133: load V1..V3 from I
		t.Fatal(err)
	}
	if c.V[1] != 0xAA || c.V[2] != 0xBB || c.V[3] != 0xCC {
		t.Fatalf("loaded range = %02X %02X %02X, want AA BB CC", c.V[1], c.V[2], c.V[3])
	}
}

func TestBNNNJumpQuirkUsesVX(t *testing.T) {
	prog := word(0xB2, 0x10)
	c, io := newTestInterpreter(t, SCHIP, QuirkJump, prog)
	c.V[2] = 0x05
	if _, err := c.Step(io); err != nil {
		t.Fatal(err)
	}
	if c.PC != 0x215 {
		t.Fatalf("PC = %04X, want 0215 (jump quirk uses V2, the X nibble of B210)", c.PC)
	}
}

func TestExtendedScreenGatesSCHIPOpcodes(t *testing.T) {
	prog := word(0x00, 0xFE)
	c, io := newTestInterpreter(t, CHIP8, 0, prog)
	result, err := c.Step(io)
	if result != Unsupported || err == nil {
		t.Fatal("expected 00FE to be unsupported on plain CHIP-8")
	}
}

func TestXOCHIPPlaneSelectAndAudioPattern(t *testing.T) {
	prog := append(word(0xF2, 0x01), append(word(0xA3, 0x00), word(0xF0, 0x02)...)...)
	c, io := newTestInterpreter(t, XOCHIP, 0, prog)
	for i := 0; i < 16; i++ {
		c.Mem.Write(0x300+uint16(i), byte(i))
	}
	for i := 0; i < 3; i++ {
		if _, err := c.Step(io); err != nil {
			t.Fatal(err)
		}
	}
	if c.Planes != 0b10 {
		t.Fatalf("Planes = %02b, want 10", c.Planes)
	}
	if io.patternLoads != 1 {
		t.Fatalf("patternLoads = %d, want 1", io.patternLoads)
	}
	if io.pattern[15] != 15 {
		t.Fatalf("pattern[15] = %d, want 15", io.pattern[15])
	}
}

func TestRETOnEmptyStackFaults(t *testing.T) {
	c, io := newTestInterpreter(t, CHIP8, 0, word(0x00, 0xEE))
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on RET with empty stack")
		}
		if _, ok := r.(*ResourceFault); !ok {
			t.Fatalf("recovered %T, want *ResourceFault", r)
		}
	}()
	c.Step(io)
}
