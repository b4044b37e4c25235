// Package chip8 implements the CHIP-8/SUPER-CHIP/XO-CHIP fetch-decode-
// execute engine together with its framebuffer, timers, input latch and
// memory model. It has no dependency on any host windowing, audio or
// input toolkit: callers supply a Memory, a Framebuffer and an IO
// implementation, and drive Step/Tick from their own pacing loop.
package chip8

import (
	"log"
	"math/rand"
)

// StepResult is the outcome of a single Step call, per spec.md §4.1.
type StepResult int

const (
	Continue StepResult = iota
	Exit
	Unsupported
)

func (r StepResult) String() string {
	switch r {
	case Continue:
		return "continue"
	case Exit:
		return "exit"
	case Unsupported:
		return "unsupported"
	default:
		return "invalid"
	}
}

// IO is the narrow interface the Interpreter Core depends on for
// everything outside memory and the framebuffer: key state and the
// one-shot audio signals raised by ST and F002. Production code
// satisfies it by composing a *Latch with a sound backend; tests
// satisfy it with a small fake.
type IO interface {
	Pressed(key uint8) bool
	StartSound()
	StopSound()
	LoadAudioPattern(pattern [16]byte)
}

type waitPhase int

const (
	waitNone waitPhase = iota
	waitPress
	waitRelease
)

const stackLimit = 4096

// Interpreter is the CPU: registers, index register, call stack,
// program counter, platform selector, quirks mask, planes mask and the
// step function, per spec.md §3-§4.1.
type Interpreter struct {
	Mem *Memory
	FB  *Framebuffer

	Timers Timers

	V     [16]uint8
	I     uint16
	PC    uint16
	stack []uint16

	R [8]uint8 // persistent user flags, SCHIP/XO-CHIP only

	Planes uint8

	Platform Platform
	Quirks   Quirks

	Debug  DebugFlags
	Logger *log.Logger

	rng *rand.Rand

	waitPhase waitPhase
	waitKey   uint8
	waitDest  uint8
}

// NewInterpreter constructs an Interpreter bound to mem and fb, booted
// per spec.md §3's Lifecycle: registers/stack zeroed, PC=0x200,
// planes=0b01.
func NewInterpreter(mem *Memory, fb *Framebuffer, platform Platform, quirks Quirks, seed int64) *Interpreter {
	c := &Interpreter{
		Mem:      mem,
		FB:       fb,
		Platform: platform,
		Quirks:   quirks,
		PC:       ProgramStart,
		Planes:   0b01,
		rng:      rand.New(rand.NewSource(seed)),
	}
	return c
}

// Seed reseeds the CXNN random source, so tests can pin it per spec.md
// §9.
func (c *Interpreter) Seed(seed int64) {
	c.rng = rand.New(rand.NewSource(seed))
}

// Reset reloads program into memory and returns every piece of state to
// its boot value, per spec.md §3's Lifecycle.
func (c *Interpreter) Reset(program []byte) error {
	c.Mem.Reset()
	if err := c.Mem.LoadProgram(program); err != nil {
		return err
	}
	c.V = [16]uint8{}
	c.I = 0
	c.PC = ProgramStart
	c.stack = nil
	c.R = [8]uint8{}
	c.Timers = Timers{}
	c.Planes = 0b01
	c.waitPhase = waitNone
	c.FB.SetExtended(false)
	c.FB.Clear(0b11)
	return nil
}

// Tick decrements the timers and forwards the one-shot stop-sound
// signal to io, per spec.md §4.5. It runs independently of the macro
// state (Running/AwaitingPress/AwaitingRelease).
func (c *Interpreter) Tick(io IO) {
	if c.Timers.Tick() {
		io.StopSound()
	}
}

// instrSize returns the size in bytes of the instruction at addr: 4 on
// XO-CHIP when the word is the 0xF000 32-bit-load prefix, 2 otherwise.
func (c *Interpreter) instrSize(addr uint16) uint16 {
	if c.Platform == XOCHIP && c.Mem.ReadWord(addr) == 0xF000 {
		return 4
	}
	return 2
}

func (c *Interpreter) push(addr uint16) {
	if len(c.stack) >= stackLimit {
		faultf("call stack overflow (limit %d)", stackLimit)
	}
	c.stack = append(c.stack, addr)
}

func (c *Interpreter) pop() uint16 {
	if len(c.stack) == 0 {
		faultf("RET with empty call stack")
	}
	addr := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return addr
}

func (c *Interpreter) unsupported(word uint16, hint string) error {
	return &UnsupportedError{Opcode: word, PC: c.PC, Platform: c.Platform, Hint: hint}
}

// Step consumes zero or one instruction, per spec.md §4.1's Contract.
// It never blocks: an unresolved key wait makes it a no-op that just
// polls io.
func (c *Interpreter) Step(io IO) (StepResult, error) {
	if c.waitPhase != waitNone {
		return c.pollKeyWait(io), nil
	}

	word := c.Mem.ReadWord(c.PC)
	nextPC := c.PC + c.instrSize(c.PC)

	if c.Logger != nil && c.Debug.Has(DebugState) {
		c.logState(word)
	}
	if c.Logger != nil && c.Debug.Has(DebugAsm) {
		c.logAsm(word)
	}

	var result StepResult
	var err error

	switch word >> 12 {
	case 0x0:
		nextPC, result, err = c.exec0(word, nextPC)
	case 0x1:
		nextPC = word & 0x0FFF
	case 0x2:
		c.push(nextPC)
		nextPC = word & 0x0FFF
	case 0x3:
		x, nn := decodeXNN(word)
		if c.V[x] == nn {
			nextPC += c.instrSize(nextPC)
		}
	case 0x4:
		x, nn := decodeXNN(word)
		if c.V[x] != nn {
			nextPC += c.instrSize(nextPC)
		}
	case 0x5:
		nextPC, result, err = c.exec5(word, nextPC)
	case 0x6:
		x, nn := decodeXNN(word)
		c.V[x] = nn
	case 0x7:
		x, nn := decodeXNN(word)
		c.V[x] += nn
	case 0x8:
		result, err = c.execALU(word)
	case 0x9:
		if word&0xF != 0 {
			result, err = Unsupported, c.unsupported(word, "9XY0 requires low nibble 0")
			break
		}
		x, y := decodeXY(word)
		if c.V[x] != c.V[y] {
			nextPC += c.instrSize(nextPC)
		}
	case 0xA:
		c.I = word & 0x0FFF
	case 0xB:
		nextPC = c.execJumpV0(word)
	case 0xC:
		x, nn := decodeXNN(word)
		c.V[x] = c.randomByte() & nn
	case 0xD:
		c.execDraw(word)
	case 0xE:
		nextPC, result, err = c.execSkipKey(word, nextPC, io)
	case 0xF:
		nextPC, result, err = c.execF(word, nextPC, io)
	}

	c.PC = nextPC
	return result, err
}

func decodeXNN(word uint16) (x uint8, nn uint8) {
	return uint8((word & 0x0F00) >> 8), uint8(word & 0x00FF)
}

func decodeXY(word uint16) (x, y uint8) {
	return uint8((word & 0x0F00) >> 8), uint8((word & 0x00F0) >> 4)
}

func (c *Interpreter) randomByte() uint8 {
	return uint8(c.rng.Intn(256))
}

func (c *Interpreter) pollKeyWait(io IO) StepResult {
	switch c.waitPhase {
	case waitPress:
		for k := uint8(0); k < 16; k++ {
			if io.Pressed(k) {
				c.waitKey = k
				c.waitPhase = waitRelease
				if c.Logger != nil && c.Debug.Has(DebugKeys) {
					c.Logger.Printf("key %d pressed, now waiting for release", k)
				}
				break
			}
		}
	case waitRelease:
		if !io.Pressed(c.waitKey) {
			c.V[c.waitDest] = c.waitKey
			c.waitPhase = waitNone
			c.PC += c.instrSize(c.PC)
			if c.Logger != nil && c.Debug.Has(DebugKeys) {
				c.Logger.Printf("key wait resolved: V%X = %d", c.waitDest, c.waitKey)
			}
		}
	}
	return Continue
}

// exec0 handles the 0NNN group: CLS, RET, and the SCHIP/XO-CHIP screen
// control opcodes.
func (c *Interpreter) exec0(word uint16, nextPC uint16) (uint16, StepResult, error) {
	op := word & 0x0FFF
	n := uint8(word & 0x000F)

	switch op {
	case 0x0E0:
		planeMask := uint8(0b11)
		if c.Platform == XOCHIP {
			planeMask = c.Planes
		}
		c.FB.Clear(planeMask)
		return nextPC, Continue, nil
	case 0x0EE:
		return c.pop(), Continue, nil
	case 0x0FB:
		if !c.Platform.SupportsExtendedScreen() {
			return nextPC, Unsupported, c.unsupported(word, "scroll right requires schip or xochip platform")
		}
		c.FB.Scroll(4, 0)
		return nextPC, Continue, nil
	case 0x0FC:
		if !c.Platform.SupportsExtendedScreen() {
			return nextPC, Unsupported, c.unsupported(word, "scroll left requires schip or xochip platform")
		}
		c.FB.Scroll(-4, 0)
		return nextPC, Continue, nil
	case 0x0FD:
		if !c.Platform.SupportsExtendedScreen() {
			return nextPC, Unsupported, c.unsupported(word, "exit requires schip or xochip platform")
		}
		return nextPC, Exit, nil
	case 0x0FE:
		if !c.Platform.SupportsExtendedScreen() {
			return nextPC, Unsupported, c.unsupported(word, "original-screen requires schip or xochip platform")
		}
		c.FB.SetExtended(false)
		return nextPC, Continue, nil
	case 0x0FF:
		if !c.Platform.SupportsExtendedScreen() {
			return nextPC, Unsupported, c.unsupported(word, "extended-screen requires schip or xochip platform")
		}
		c.FB.SetExtended(true)
		return nextPC, Continue, nil
	}

	switch op & 0x0FF0 {
	case 0x0C0:
		if !c.Platform.SupportsExtendedScreen() {
			return nextPC, Unsupported, c.unsupported(word, "scroll down requires schip or xochip platform")
		}
		c.FB.Scroll(0, int(n))
		return nextPC, Continue, nil
	case 0x0D0:
		if c.Platform != XOCHIP {
			return nextPC, Unsupported, c.unsupported(word, "scroll up requires xochip platform")
		}
		c.FB.Scroll(0, -int(n))
		return nextPC, Continue, nil
	}

	return nextPC, Unsupported, c.unsupported(word, "unrecognized 0NNN instruction")
}

// exec5 handles 5XY0 (skip) and the XO-CHIP 5XY2/5XY3 register-range
// memory transfers.
func (c *Interpreter) exec5(word uint16, nextPC uint16) (uint16, StepResult, error) {
	x, y := decodeXY(word)
	switch word & 0xF {
	case 0x0:
		if c.V[x] == c.V[y] {
			nextPC += c.instrSize(nextPC)
		}
		return nextPC, Continue, nil
	case 0x2:
		if c.Platform != XOCHIP {
			return nextPC, Unsupported, c.unsupported(word, "5XY2 requires xochip platform")
		}
		c.storeRange(x, y)
		return nextPC, Continue, nil
	case 0x3:
		if c.Platform != XOCHIP {
			return nextPC, Unsupported, c.unsupported(word, "5XY3 requires xochip platform")
		}
		c.loadRange(x, y)
		return nextPC, Continue, nil
	}
	return nextPC, Unsupported, c.unsupported(word, "unrecognized 5XYN instruction")
}

func (c *Interpreter) storeRange(x, y uint8) {
	if x <= y {
		for i := 0; i <= int(y-x); i++ {
			c.Mem.Write(c.I+uint16(i), c.V[int(x)+i])
		}
	} else {
		for i := 0; i <= int(x-y); i++ {
			c.Mem.Write(c.I+uint16(i), c.V[int(x)-i])
		}
	}
}

func (c *Interpreter) loadRange(x, y uint8) {
	if x <= y {
		for i := 0; i <= int(y-x); i++ {
			c.V[int(x)+i] = c.Mem.Read(c.I + uint16(i))
		}
	} else {
		for i := 0; i <= int(x-y); i++ {
			c.V[int(x)-i] = c.Mem.Read(c.I + uint16(i))
		}
	}
}

// execALU handles the 8XYN ALU group, including VF ordering and the
// LOGIC/SHIFT quirks.
func (c *Interpreter) execALU(word uint16) (StepResult, error) {
	x, y := decodeXY(word)
	switch word & 0xF {
	case 0x0:
		c.V[x] = c.V[y]
	case 0x1:
		c.V[x] |= c.V[y]
		if c.Quirks.Has(QuirkLogic) {
			c.V[0xF] = 0
		}
	case 0x2:
		c.V[x] &= c.V[y]
		if c.Quirks.Has(QuirkLogic) {
			c.V[0xF] = 0
		}
	case 0x3:
		c.V[x] ^= c.V[y]
		if c.Quirks.Has(QuirkLogic) {
			c.V[0xF] = 0
		}
	case 0x4:
		sum := uint16(c.V[x]) + uint16(c.V[y])
		c.storeALU(x, uint8(sum), sum > 0xFF)
	case 0x5:
		flag := c.V[x] >= c.V[y]
		c.storeALU(x, c.V[x]-c.V[y], flag)
	case 0x7:
		flag := c.V[y] >= c.V[x]
		c.storeALU(x, c.V[y]-c.V[x], flag)
	case 0x6:
		src := y
		if c.Quirks.Has(QuirkShift) {
			src = x
		}
		s := c.V[src]
		c.storeALU(x, s>>1, s&0x01 != 0)
	case 0xE:
		src := y
		if c.Quirks.Has(QuirkShift) {
			src = x
		}
		s := c.V[src]
		c.storeALU(x, s<<1, s&0x80 != 0)
	default:
		return Unsupported, c.unsupported(word, "unrecognized 8XYN instruction")
	}
	return Continue, nil
}

// storeALU writes result to V[dest] and the carry/borrow/shift flag to
// VF, ordering the two writes per the VF_ORDER quirk (spec.md §4.1).
func (c *Interpreter) storeALU(dest uint8, result uint8, flag bool) {
	f := uint8(0)
	if flag {
		f = 1
	}
	if c.Quirks.Has(QuirkVFOrder) {
		c.V[0xF] = f
		c.V[dest] = result
	} else {
		c.V[dest] = result
		c.V[0xF] = f
	}
}

// execJumpV0 implements BNNN, including the JUMP quirk.
func (c *Interpreter) execJumpV0(word uint16) uint16 {
	nnn := word & 0x0FFF
	if c.Quirks.Has(QuirkJump) {
		x := uint8((word & 0x0F00) >> 8)
		return (nnn & 0x00FF) + uint16(c.V[x]) + uint16(x)<<8
	}
	return nnn + uint16(c.V[0])
}

// execDraw implements DXYN: XO-CHIP bit-plane sprite XOR with collision
// detection, wrap/clip and the 16x16 extended sprite form.
func (c *Interpreter) execDraw(word uint16) {
	x, y := decodeXY(word)
	n := uint8(word & 0xF)

	w := c.FB.Width()
	h := c.FB.Height()
	scale := c.FB.PixelScale()

	rows := int(n)
	bytesPerRow := 1
	if c.FB.Extended() && n == 0 {
		rows = 16
		bytesPerRow = 2
	}

	baseX := int(c.V[x])
	baseY := int(c.V[y])

	c.V[0xF] = 0
	addr := c.I
	for plane := 0; plane < PlaneCount; plane++ {
		planeBit := uint8(1 << plane)
		if c.Planes&planeBit == 0 {
			continue
		}
		for row := 0; row < rows; row++ {
			for b := 0; b < bytesPerRow; b++ {
				spriteByte := c.Mem.Read(addr)
				addr++
				for bit := 0; bit < 8; bit++ {
					hasPixel := spriteByte&(1<<(7-bit)) != 0
					col := bit + b*8
					if c.Quirks.Has(QuirkClip) {
						if (baseX%w)+col >= w || (baseY%h)+row >= h {
							hasPixel = false
						}
					}
					if !hasPixel {
						continue
					}
					px := (baseX + col) % w
					py := (baseY + row) % h
					if c.Logger != nil && c.Debug.Has(DebugDraw) {
						c.Logger.Printf("draw %d %d (plane %d)", px, py, plane)
					}
					for gy := 0; gy < scale; gy++ {
						for gx := 0; gx < scale; gx++ {
							if c.FB.XORPlane(px*scale+gx, py*scale+gy, planeBit) {
								c.V[0xF] = 1
							}
						}
					}
				}
			}
		}
	}
}

// execSkipKey implements EX9E/EXA1.
func (c *Interpreter) execSkipKey(word uint16, nextPC uint16, io IO) (uint16, StepResult, error) {
	x := uint8((word & 0x0F00) >> 8)
	switch word & 0xFF {
	case 0x9E:
		if io.Pressed(c.V[x]) {
			nextPC += c.instrSize(nextPC)
		}
		return nextPC, Continue, nil
	case 0xA1:
		if !io.Pressed(c.V[x]) {
			nextPC += c.instrSize(nextPC)
		}
		return nextPC, Continue, nil
	}
	return nextPC, Unsupported, c.unsupported(word, "unrecognized EXNN instruction")
}

// execF implements the FXNN group: timers, key wait, the BCD/memory
// transfer instructions, the SCHIP persistent flags, and the XO-CHIP
// 32-bit load/planes-select/audio-pattern opcodes.
func (c *Interpreter) execF(word uint16, nextPC uint16, io IO) (uint16, StepResult, error) {
	x := uint8((word & 0x0F00) >> 8)
	switch word & 0xFF {
	case 0x00:
		if word != 0xF000 {
			return nextPC, Unsupported, c.unsupported(word, "unrecognized FXNN instruction")
		}
		if c.Platform != XOCHIP {
			return nextPC, Unsupported, c.unsupported(word, "F000 requires xochip platform")
		}
		c.I = c.Mem.ReadWord(c.PC + 2)
		return nextPC, Continue, nil
	case 0x01:
		if c.Platform != XOCHIP {
			return nextPC, Unsupported, c.unsupported(word, "FN01 requires xochip platform")
		}
		c.Planes = x & 0x3
		return nextPC, Continue, nil
	case 0x02:
		if c.Platform != XOCHIP {
			return nextPC, Unsupported, c.unsupported(word, "F002 requires xochip platform")
		}
		io.LoadAudioPattern(c.readPattern())
		return nextPC, Continue, nil
	case 0x07:
		c.V[x] = c.Timers.DT
		return nextPC, Continue, nil
	case 0x0A:
		c.waitPhase = waitPress
		c.waitDest = x
		if c.Logger != nil && c.Debug.Has(DebugKeys) {
			c.Logger.Printf("waiting for key into V%X", x)
		}
		return c.PC, Continue, nil
	case 0x15:
		c.Timers.DT = c.V[x]
		return nextPC, Continue, nil
	case 0x18:
		c.Timers.ST = c.V[x]
		if c.Timers.ST > 0 {
			io.StartSound()
		}
		return nextPC, Continue, nil
	case 0x1E:
		c.I += uint16(c.V[x])
		return nextPC, Continue, nil
	case 0x29:
		c.I = c.Mem.DigitAddress(c.V[x])
		return nextPC, Continue, nil
	case 0x30:
		if !c.Platform.SupportsExtendedScreen() {
			return nextPC, Unsupported, c.unsupported(word, "FX30 requires schip or xochip platform")
		}
		c.I = c.Mem.LargeDigitAddress(c.V[x])
		return nextPC, Continue, nil
	case 0x33:
		v := c.V[x]
		c.Mem.Write(c.I, v/100)
		c.Mem.Write(c.I+1, (v/10)%10)
		c.Mem.Write(c.I+2, v%10)
		return nextPC, Continue, nil
	case 0x55:
		for i := uint8(0); i <= x; i++ {
			c.Mem.Write(c.I+uint16(i), c.V[i])
		}
		if !c.Quirks.Has(QuirkLoadStore) {
			c.I += uint16(x) + 1
		}
		return nextPC, Continue, nil
	case 0x65:
		for i := uint8(0); i <= x; i++ {
			c.V[i] = c.Mem.Read(c.I + uint16(i))
		}
		if !c.Quirks.Has(QuirkLoadStore) {
			c.I += uint16(x) + 1
		}
		return nextPC, Continue, nil
	case 0x75:
		if !c.Platform.SupportsExtendedScreen() {
			return nextPC, Unsupported, c.unsupported(word, "FX75 requires schip or xochip platform")
		}
		limit := x
		if limit > 7 {
			limit = 7
		}
		for i := uint8(0); i <= limit; i++ {
			c.R[i] = c.V[i]
		}
		return nextPC, Continue, nil
	case 0x85:
		if !c.Platform.SupportsExtendedScreen() {
			return nextPC, Unsupported, c.unsupported(word, "FX85 requires schip or xochip platform")
		}
		limit := x
		if limit > 7 {
			limit = 7
		}
		for i := uint8(0); i <= limit; i++ {
			c.V[i] = c.R[i]
		}
		return nextPC, Continue, nil
	}
	return nextPC, Unsupported, c.unsupported(word, "unrecognized FXNN instruction")
}

func (c *Interpreter) readPattern() [16]byte {
	var buf [16]byte
	for i := range buf {
		buf[i] = c.Mem.Read(c.I + uint16(i))
	}
	return buf
}

func (c *Interpreter) logState(word uint16) {
	c.Logger.Printf("pc:%04X i:%04X op:%04X v:%02X", c.PC, c.I, word, c.V)
}

func (c *Interpreter) logAsm(word uint16) {
	wordAfter := c.Mem.ReadWord(c.PC + 2)
	c.Logger.Printf("%04X: %s", c.PC, Disassemble(word, wordAfter))
}
