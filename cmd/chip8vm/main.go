// Command chip8vm runs a CHIP-8/SUPER-CHIP/XO-CHIP program image in a
// window, per the CLI contract in spec.md §6.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"chip8vm/audio"
	"chip8vm/chip8"
	"chip8vm/driver"
	"chip8vm/video"
)

// multiFlag collects repeated occurrences of a flag, e.g. multiple
// --quirk or --debug options ORed into one mask.
type multiFlag []string

func (m *multiFlag) String() string     { return fmt.Sprint([]string(*m)) }
func (m *multiFlag) Set(v string) error { *m = append(*m, v); return nil }

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// --color takes two tokens (index, hex color); pull those out
	// before handing the rest to flag.FlagSet, which only supports
	// single-token flag values.
	args, colors, err := extractColorFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	fs := flag.NewFlagSet("chip8vm", flag.ContinueOnError)
	rate := fs.Int("rate", 7, "interpreter steps per 60 Hz field")
	platformName := fs.String("platform", "chip8", "chip8, schip or xochip")
	rotation := fs.Int("rotation", 0, "screen rotation: 0, 90, 180 or 270")
	var quirkNames multiFlag
	fs.Var(&quirkNames, "quirk", "shift|loadstore|jump|clip|vforder|logic (repeatable)")
	var debugNames multiFlag
	fs.Var(&debugNames, "debug", "state|asm|draw|insn|keys (repeatable; insn also makes an unsupported opcode fatal)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <rom file>\n", os.Args[0])
		fs.PrintDefaults()
		return 2
	}
	romPath := fs.Arg(0)

	platform, err := chip8.ParsePlatform(*platformName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	var quirks chip8.Quirks
	for _, name := range quirkNames {
		bit, err := chip8.ParseQuirk(name)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		quirks |= bit
	}

	var debug chip8.DebugFlags
	for _, name := range debugNames {
		bit, err := chip8.ParseDebugFlag(name)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		debug |= bit
	}

	if *rotation != 0 && *rotation != 90 && *rotation != 180 && *rotation != 270 {
		fmt.Fprintf(os.Stderr, "--rotation must be 0, 90, 180 or 270\n")
		return 2
	}

	program, err := os.ReadFile(romPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	mem := chip8.NewMemory(platform)
	fb := chip8.NewFramebuffer()
	for _, c := range colors {
		fb.SetPalette(c.index, c.rgb)
	}
	core := chip8.NewInterpreter(mem, fb, platform, quirks, time.Now().UnixNano())
	core.Debug = debug
	core.Logger = log.New(os.Stderr, "", log.Ltime)
	if err := core.Reset(program); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	latch := chip8.NewLatch()
	win, err := video.NewWindow(fmt.Sprintf("chip8vm: %s", romPath), *rotation, latch)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer win.Close()

	sink, err := audio.NewSink(440)
	if err != nil {
		log.Printf("audio disabled: %v", err)
		sink = nil
	}

	io := driver.NewIOAdapter(latch, soundOrSilence(sink))

	d := driver.New(core, io, win, driver.Config{Rate: *rate, Strict: debug.Has(chip8.DebugInsn)})
	return d.Run()
}

type paletteEntry struct {
	index int
	rgb   [3]uint8
}

func extractColorFlags(args []string) (remaining []string, colors []paletteEntry, err error) {
	for i := 0; i < len(args); i++ {
		if args[i] != "--color" {
			remaining = append(remaining, args[i])
			continue
		}
		if i+2 >= len(args) {
			return nil, nil, fmt.Errorf("--color requires a palette index and an RRGGBB hex value")
		}
		index, convErr := strconv.Atoi(args[i+1])
		if convErr != nil || index < 0 || index > 3 {
			return nil, nil, fmt.Errorf("--color index must be 0..3, got %q", args[i+1])
		}
		rgb, hexErr := parseHexColor(args[i+2])
		if hexErr != nil {
			return nil, nil, hexErr
		}
		colors = append(colors, paletteEntry{index: index, rgb: rgb})
		i += 2
	}
	return remaining, colors, nil
}

func parseHexColor(s string) ([3]uint8, error) {
	var v uint64
	_, err := fmt.Sscanf(s, "%06x", &v)
	if err != nil {
		return [3]uint8{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return [3]uint8{uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
}

// soundSilencer is the Sound used when audio.NewSink fails to open a
// device: the run continues with sound signals swallowed.
type soundSilencer struct{}

func (soundSilencer) Start()                       {}
func (soundSilencer) Stop()                        {}
func (soundSilencer) LoadPattern(pattern [16]byte) {}

func soundOrSilence(s *audio.Sink) driver.Sound {
	if s == nil {
		return soundSilencer{}
	}
	return s
}
