package chip8

import "fmt"

// Platform selects which instruction subset and memory model the
// Interpreter enforces. It is fixed at boot and never changes for the
// lifetime of an Interpreter.
type Platform int

const (
	CHIP8 Platform = iota
	SCHIP
	XOCHIP
)

func (p Platform) String() string {
	switch p {
	case CHIP8:
		return "chip8"
	case SCHIP:
		return "schip"
	case XOCHIP:
		return "xochip"
	default:
		return fmt.Sprintf("platform(%d)", int(p))
	}
}

// ParsePlatform maps a CLI/launcher platform name to a Platform.
func ParsePlatform(name string) (Platform, error) {
	switch name {
	case "chip8":
		return CHIP8, nil
	case "schip":
		return SCHIP, nil
	case "xochip":
		return XOCHIP, nil
	default:
		return CHIP8, fmt.Errorf("unknown platform %q (want chip8, schip or xochip)", name)
	}
}

// SupportsExtendedScreen reports whether the platform ever allows the
// 128x64 logical resolution.
func (p Platform) SupportsExtendedScreen() bool {
	return p == SCHIP || p == XOCHIP
}

// MemorySize returns the addressable memory size in bytes for the
// platform.
func (p Platform) MemorySize() int {
	if p == XOCHIP {
		return 0x10000
	}
	return 0x1000
}
