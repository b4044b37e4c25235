// Command chip8launcher translates a JSON program catalog entry into
// the chip8vm command line described in spec.md §6, or lists the
// catalog when no program is chosen.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// colorsByName is the small named-color table the catalog's color
// fields may reference instead of a hex string.
var colorsByName = map[string]uint32{
	"aquamarine": 0x7fffd4,
	"black":      0x000000,
	"coral":      0xFF7F50,
	"deeppink":   0xFF1493,
	"gray":       0x808080,
	"hotpink":    0xFF69B4,
	"lavender":   0xE6E6FA,
	"lightcyan":  0xE0FFFF,
	"lightgray":  0xD3D3D3,
	"navy":       0x000080,
	"powderblue": 0xB0E0E6,
	"red":        0xFF0000,
	"white":      0xFFFFFF,
}

type program struct {
	Title    string          `json:"title"`
	Desc     string          `json:"desc"`
	Platform string          `json:"platform"`
	Options  json.RawMessage `json:"options"`
}

type catalog map[string]program

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s programs.json [romsdir programToRun]\n", os.Args[0])
		return 1
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	var programs catalog
	if err := json.Unmarshal(data, &programs); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if len(args) < 3 {
		listCatalog(programs)
		return 0
	}

	romsDir, chosen := args[1], args[2]
	p, ok := programs[chosen]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown program %q\n", chosen)
		return 1
	}

	line, err := buildCommandLine(p, romsDir, chosen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(line)
	return 0
}

func listCatalog(programs catalog) {
	names := make([]string, 0, len(programs))
	width := 0
	for name := range programs {
		names = append(names, name)
		if len(name) > width {
			width = len(name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		p := programs[name]
		fmt.Printf("%-*s : %s\n", width, name, p.Title)
		fmt.Printf("%-*s   %s\n", width, "", p.Desc)
	}
}

func buildCommandLine(p program, romsDir, chosen string) (string, error) {
	var opts map[string]any
	if len(p.Options) > 0 {
		if err := json.Unmarshal(p.Options, &opts); err != nil {
			return "", fmt.Errorf("options for %q: %w", chosen, err)
		}
	}

	args := []string{"chip8vm"}

	switch p.Platform {
	case "schip":
		args = append(args, "--platform", "schip")
	case "xochip":
		args = append(args, "--platform", "xochip")
	}

	if v, ok := opts["tickrate"]; ok {
		rate, err := intOption(v)
		if err != nil {
			return "", fmt.Errorf("tickrate: %w", err)
		}
		args = append(args, "--rate", strconv.Itoa(rate))
	}

	colorFields := []struct {
		key   string
		index string
	}{
		{"backgroundColor", "0"},
		{"fillColor", "1"},
		{"fillColor2", "2"},
		{"blendColor", "3"},
	}
	for _, cf := range colorFields {
		if v, ok := opts[cf.key]; ok {
			name, ok := v.(string)
			if !ok {
				return "", fmt.Errorf("%s must be a string", cf.key)
			}
			hex, err := convertToHexColor(name)
			if err != nil {
				return "", fmt.Errorf("%s: %w", cf.key, err)
			}
			args = append(args, "--color", cf.index, hex)
		}
	}

	if v, ok := opts["screenRotation"]; ok {
		rot, err := intOption(v)
		if err != nil {
			return "", fmt.Errorf("screenRotation: %w", err)
		}
		args = append(args, "--rotation", strconv.Itoa(rot))
	}

	quirkFields := []struct {
		key   string
		quirk string
	}{
		{"shiftQuirks", "shift"},
		{"loadStoreQuirks", "loadstore"},
		{"logicQuirks", "logic"},
		{"vfOrderQuirks", "vforder"},
		{"clipQuirks", "clip"},
		{"jumpQuirks", "jump"},
	}
	for _, qf := range quirkFields {
		if hasTrueOption(opts, qf.key) {
			args = append(args, "--quirk", qf.quirk)
		}
	}

	args = append(args, fmt.Sprintf("%s/%s.ch8", romsDir, chosen))

	return strings.Join(args, " "), nil
}

func intOption(v any) (int, error) {
	switch t := v.(type) {
	case float64:
		return int(t), nil
	case string:
		return strconv.Atoi(t)
	default:
		return 0, fmt.Errorf("want a number or numeric string, got %T", v)
	}
}

func hasTrueOption(opts map[string]any, name string) bool {
	v, ok := opts[name]
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	default:
		return false
	}
}

// convertToHexColor accepts a #RRGGBB, #RGB, bare RRGGBB/RGB hex string
// or a name from colorsByName, and returns a 6-digit lowercase hex
// string with no leading '#'.
func convertToHexColor(name string) (string, error) {
	var color uint32

	if strings.HasPrefix(name, "#") {
		digits := name[1:]
		v, err := strconv.ParseUint(digits, 16, 32)
		if err != nil {
			return "", fmt.Errorf("invalid hex color %q", name)
		}
		color = uint32(v)
		if len(digits) < 4 {
			color = expand12BitColorTo24(color)
		}
	} else if v, err := strconv.ParseUint(name, 16, 32); err == nil && isHexDigits(name) {
		color = uint32(v)
		if len(name) < 4 {
			color = expand12BitColorTo24(color)
		}
	} else if c, ok := colorsByName[name]; ok {
		color = c
	} else {
		return "", fmt.Errorf("unknown color %q", name)
	}

	return fmt.Sprintf("%06x", color), nil
}

func isHexDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

func expand12BitColorTo24(color uint32) uint32 {
	r := (color & 0xF00) >> 8
	r = (r << 4) | r
	g := (color & 0x0F0) >> 4
	g = (g << 4) | g
	b := color & 0x00F
	b = (b << 4) | b
	return (r << 16) | (g << 8) | b
}
