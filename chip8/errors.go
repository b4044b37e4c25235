package chip8

import "fmt"

// UnsupportedError is returned by Step when the fetched opcode is not
// implemented on the active platform. PC still advances past the
// offending word; execution can continue in non-strict mode.
type UnsupportedError struct {
	Opcode   uint16
	PC       uint16
	Platform Platform
	Hint     string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported opcode %04X at %04X on platform %s: %s",
		e.Opcode, e.PC, e.Platform, e.Hint)
}

// ResourceFault marks a fatal condition per spec.md §7: an out-of-range
// memory access on CHIP-8/SCHIP, an empty-stack RET, or a stack
// overflow. Memory accesses and Interpreter.Step raise it via panic;
// the Frame Driver recovers it around each field's batch of steps and
// ends the run.
type ResourceFault struct {
	Message string
}

func (e *ResourceFault) Error() string {
	return e.Message
}

func faultf(format string, args ...any) {
	panic(&ResourceFault{Message: fmt.Sprintf(format, args...)})
}
