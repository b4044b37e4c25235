package chip8

import "fmt"

// Disassemble renders the mnemonic for the instruction word, consulting
// wordAfter only for the XO-CHIP 0xF000 32-bit-load form. It is a
// diagnostic aid for --debug=asm and never affects execution.
func Disassemble(word uint16, wordAfter uint16) string {
	x := uint8((word & 0x0F00) >> 8)
	y := uint8((word & 0x00F0) >> 4)
	n := uint8(word & 0x000F)
	nn := uint8(word & 0x00FF)
	nnn := word & 0x0FFF

	switch word >> 12 {
	case 0x0:
		switch word & 0x0FFF {
		case 0x0E0:
			return "CLS"
		case 0x0EE:
			return "RET"
		case 0x0FB:
			return "SCR"
		case 0x0FC:
			return "SCL"
		case 0x0FD:
			return "EXIT"
		case 0x0FE:
			return "LOW"
		case 0x0FF:
			return "HIGH"
		}
		switch word & 0x0FF0 {
		case 0x0C0:
			return fmt.Sprintf("SCD %d", n)
		case 0x0D0:
			return fmt.Sprintf("SCU %d", n)
		}
		return fmt.Sprintf("SYS %03X", nnn)
	case 0x1:
		return fmt.Sprintf("JP %03X", nnn)
	case 0x2:
		return fmt.Sprintf("CALL %03X", nnn)
	case 0x3:
		return fmt.Sprintf("SE V%X, %02X", x, nn)
	case 0x4:
		return fmt.Sprintf("SNE V%X, %02X", x, nn)
	case 0x5:
		switch n {
		case 0x2:
			return fmt.Sprintf("SAVE V%X..V%X", x, y)
		case 0x3:
			return fmt.Sprintf("LOAD V%X..V%X", x, y)
		}
		return fmt.Sprintf("SE V%X, V%X", x, y)
	case 0x6:
		return fmt.Sprintf("LD V%X, %02X", x, nn)
	case 0x7:
		return fmt.Sprintf("ADD V%X, %02X", x, nn)
	case 0x8:
		switch n {
		case 0x0:
			return fmt.Sprintf("LD V%X, V%X", x, y)
		case 0x1:
			return fmt.Sprintf("OR V%X, V%X", x, y)
		case 0x2:
			return fmt.Sprintf("AND V%X, V%X", x, y)
		case 0x3:
			return fmt.Sprintf("XOR V%X, V%X", x, y)
		case 0x4:
			return fmt.Sprintf("ADD V%X, V%X", x, y)
		case 0x5:
			return fmt.Sprintf("SUB V%X, V%X", x, y)
		case 0x6:
			return fmt.Sprintf("SHR V%X, V%X", x, y)
		case 0x7:
			return fmt.Sprintf("SUBN V%X, V%X", x, y)
		case 0xE:
			return fmt.Sprintf("SHL V%X, V%X", x, y)
		}
		return fmt.Sprintf("DATA %04X", word)
	case 0x9:
		return fmt.Sprintf("SNE V%X, V%X", x, y)
	case 0xA:
		return fmt.Sprintf("LD I, %03X", nnn)
	case 0xB:
		return fmt.Sprintf("JP V0, %03X", nnn)
	case 0xC:
		return fmt.Sprintf("RND V%X, %02X", x, nn)
	case 0xD:
		return fmt.Sprintf("DRW V%X, V%X, %X", x, y, n)
	case 0xE:
		switch nn {
		case 0x9E:
			return fmt.Sprintf("SKP V%X", x)
		case 0xA1:
			return fmt.Sprintf("SKNP V%X", x)
		}
		return fmt.Sprintf("DATA %04X", word)
	case 0xF:
		switch nn {
		case 0x00:
			if word == 0xF000 {
				return fmt.Sprintf("LD I, %04X", wordAfter)
			}
		case 0x01:
			return fmt.Sprintf("PLANE %X", x)
		case 0x02:
			return "LD AUDIO, [I]"
		case 0x07:
			return fmt.Sprintf("LD V%X, DT", x)
		case 0x0A:
			return fmt.Sprintf("LD V%X, K", x)
		case 0x15:
			return fmt.Sprintf("LD DT, V%X", x)
		case 0x18:
			return fmt.Sprintf("LD ST, V%X", x)
		case 0x1E:
			return fmt.Sprintf("ADD I, V%X", x)
		case 0x29:
			return fmt.Sprintf("LD F, V%X", x)
		case 0x30:
			return fmt.Sprintf("LD HF, V%X", x)
		case 0x33:
			return fmt.Sprintf("LD B, V%X", x)
		case 0x55:
			return fmt.Sprintf("LD [I], V0..V%X", x)
		case 0x65:
			return fmt.Sprintf("LD V0..V%X, [I]", x)
		case 0x75:
			return fmt.Sprintf("LD R, V0..V%X", x)
		case 0x85:
			return fmt.Sprintf("LD V0..V%X, R", x)
		}
		return fmt.Sprintf("DATA %04X", word)
	}
	return fmt.Sprintf("DATA %04X", word)
}
