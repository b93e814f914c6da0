package cubeportal

import "testing"

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{"#fff", Color{1, 1, 1, 1}},
		{"#000000", Color{0, 0, 0, 1}},
		{"ff0000", Color{1, 0, 0, 1}},
		{"#00ff0080", Color{0, 1, 0, 128.0 / 255}},
		{" #0af ", Color{0, 170.0 / 255, 1, 1}},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if err != nil {
			t.Errorf("ParseHex(%q) error: %v", tt.in, err)
			continue
		}
		if !approxEqual(got.R, tt.want.R, 1e-12) || !approxEqual(got.G, tt.want.G, 1e-12) ||
			!approxEqual(got.B, tt.want.B, 1e-12) || !approxEqual(got.A, tt.want.A, 1e-12) {
			t.Errorf("ParseHex(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseHexInvalid(t *testing.T) {
	for _, in := range []string{"", "#ff", "#12345", "#gggggg"} {
		if _, err := ParseHex(in); err == nil {
			t.Errorf("ParseHex(%q) should fail", in)
		}
	}
}

func TestHexPanicsOnMalformed(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for malformed literal")
		}
	}()
	Hex("nope")
}

func TestColorString(t *testing.T) {
	if got := Hex("#aa0").String(); got != "#aaaa00" {
		t.Errorf("String() = %q, want %q", got, "#aaaa00")
	}
	if got := Hex("#10203040").String(); got != "#10203040" {
		t.Errorf("String() = %q, want %q", got, "#10203040")
	}
}

func TestSRGBRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 0.01, 0.2, 0.5, 0.8, 1} {
		got := linearToSRGB(srgbToLinear(v))
		if !approxEqual(got, v, 1e-9) {
			t.Errorf("linearToSRGB(srgbToLinear(%v)) = %v", v, got)
		}
	}
}

func TestToRGBAPremultiplies(t *testing.T) {
	c := Color{R: 1, G: 0.5, B: 0, A: 0.5}.toRGBA()
	if c.R != 127 || c.A != 127 {
		t.Errorf("toRGBA = %+v, want R=127 A=127", c)
	}
}

func TestClamp(t *testing.T) {
	if clamp(5, 0, 1) != 1 || clamp(-5, 0, 1) != 0 || clamp(0.5, 0, 1) != 0.5 {
		t.Error("clamp out of range")
	}
}
