package main

import "testing"

func TestConvertToHexColorNamedAndHex(t *testing.T) {
	cases := map[string]string{
		"white":   "ffffff",
		"black":   "000000",
		"#fff":    "ffffff",
		"#001122": "001122",
		"ff00ff":  "ff00ff",
	}
	for in, want := range cases {
		got, err := convertToHexColor(in)
		if err != nil {
			t.Fatalf("convertToHexColor(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("convertToHexColor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConvertToHexColorUnknown(t *testing.T) {
	if _, err := convertToHexColor("notacolor"); err == nil {
		t.Fatal("expected an error for an unrecognized color name")
	}
}

func TestBuildCommandLineTranslatesQuirksAndColors(t *testing.T) {
	p := program{
		Platform: "xochip",
		Options:  []byte(`{"tickrate": 20, "backgroundColor": "black", "fillColor": "#fff", "shiftQuirks": true, "jumpQuirks": 1, "logicQuirks": false}`),
	}
	line, err := buildCommandLine(p, "roms", "breakout")
	if err != nil {
		t.Fatal(err)
	}
	want := "chip8vm --platform xochip --rate 20 --color 0 000000 --color 1 ffffff --quirk shift --quirk jump roms/breakout.ch8"
	if line != want {
		t.Fatalf("buildCommandLine =\n%q\nwant\n%q", line, want)
	}
}

func TestBuildCommandLineStringTickrate(t *testing.T) {
	p := program{Options: []byte(`{"tickrate": "15"}`)}
	line, err := buildCommandLine(p, "roms", "pong")
	if err != nil {
		t.Fatal(err)
	}
	want := "chip8vm --rate 15 roms/pong.ch8"
	if line != want {
		t.Fatalf("buildCommandLine = %q, want %q", line, want)
	}
}
