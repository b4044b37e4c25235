package chip8

import "testing"

func TestMemoryOutOfRangeFaultsOnCHIP8(t *testing.T) {
	m := NewMemory(CHIP8)
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic reading past 4 KiB on CHIP-8")
		}
	}()
	m.Read(0x1000)
}

func TestMemoryXOCHIPAddressSpaceIsFullyAddressable(t *testing.T) {
	m := NewMemory(XOCHIP)
	m.Write(0xFFFF, 0x42)
	if got := m.Read(0xFFFF); got != 0x42 {
		t.Fatalf("Read(0xFFFF) = %02X, want 42", got)
	}
}

func TestLoadProgramOversizeReturnsError(t *testing.T) {
	m := NewMemory(CHIP8)
	if err := m.LoadProgram(make([]byte, m.Size())); err == nil {
		t.Fatal("expected an error loading a program larger than mem_size - 0x200")
	}
}

func TestDigitAddressesDoNotOverlap(t *testing.T) {
	m := NewMemory(SCHIP)
	small := m.DigitAddress(0xF)
	big := m.LargeDigitAddress(0xF)
	if small == big {
		t.Fatal("small and large font tables must not overlap")
	}
}

func TestLargeDigitFaultsOnPlainCHIP8(t *testing.T) {
	m := NewMemory(CHIP8)
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic requesting the big font on plain CHIP-8")
		}
	}()
	m.LargeDigitAddress(0)
}
