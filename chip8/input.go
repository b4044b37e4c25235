package chip8

// Latch is the 16-key input state described in spec.md §4.4. The host
// is the only writer (via SetKey); the Interpreter is the only reader
// (via Pressed, part of the IO interface it depends on).
type Latch struct {
	keys [16]bool
}

// NewLatch returns a latch with every key released.
func NewLatch() *Latch {
	return &Latch{}
}

// SetKey records a physical key transition for logical key k (0..15).
func (l *Latch) SetKey(k uint8, pressed bool) {
	if k < 16 {
		l.keys[k] = pressed
	}
}

// Pressed reports whether logical key k is currently held down.
func (l *Latch) Pressed(k uint8) bool {
	if k >= 16 {
		return false
	}
	return l.keys[k]
}

// ReferenceKeyMap is the host keyboard-to-CHIP-8-key mapping from
// spec.md §4.4:
//
//	Keypad    =>  Keyboard
//	|1|2|3|C|     |1|2|3|4|
//	|4|5|6|D|     |Q|W|E|R|
//	|7|8|9|E|     |A|S|D|F|
//	|A|0|B|F|     |Z|X|C|V|
var ReferenceKeyMap = map[string]uint8{
	"1": 0x1, "2": 0x2, "3": 0x3, "4": 0xC,
	"Q": 0x4, "W": 0x5, "E": 0x6, "R": 0xD,
	"A": 0x7, "S": 0x8, "D": 0x9, "F": 0xE,
	"Z": 0xA, "X": 0x0, "C": 0xB, "V": 0xF,
}
