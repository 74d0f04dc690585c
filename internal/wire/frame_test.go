package wire

import (
	"errors"
	"testing"
)

func mustPort(t *testing.T, code string) Port {
	t.Helper()
	p, err := ParsePort(code)
	if err != nil {
		t.Fatalf("ParsePort(%q): %v", code, err)
	}
	return p
}

func TestEncodeSetLevel(t *testing.T) {
	p := mustPort(t, "07")
	if got := EncodeSetLevel(p, true); got != "07:H" {
		t.Errorf("EncodeSetLevel(07, true) = %q, want %q", got, "07:H")
	}
	if got := EncodeSetLevel(p, false); got != "07:L" {
		t.Errorf("EncodeSetLevel(07, false) = %q, want %q", got, "07:L")
	}
}

func TestLevel_RoundTrip(t *testing.T) {
	for _, on := range []bool{true, false} {
		got, err := ParseLevel(FormatLevel(on))
		if err != nil {
			t.Fatalf("ParseLevel(FormatLevel(%v)): %v", on, err)
		}
		if got != on {
			t.Errorf("level round trip: got %v, want %v", got, on)
		}
	}
	if _, err := ParseLevel("X"); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("ParseLevel(X) = %v, want ErrMalformedResponse", err)
	}
}

func TestValue_RoundTrip(t *testing.T) {
	for v := 0; v < 256; v++ {
		got, err := ParseValue(FormatValue(v))
		if err != nil {
			t.Fatalf("ParseValue(FormatValue(%d)): %v", v, err)
		}
		if got != v {
			t.Errorf("value round trip: got %d, want %d", got, v)
		}
	}
}

func TestFormatValue_Negative(t *testing.T) {
	if got := FormatValue(-26); got != "-1a" {
		t.Errorf("FormatValue(-26) = %q, want %q", got, "-1a")
	}
}

func TestEncodeSetValue(t *testing.T) {
	tests := []struct {
		port  string
		value int
		want  string
	}{
		{"03", 0, "03:0"},
		{"13", 255, "13:ff"},
		{"A2", 26, "A2:1a"},
	}
	for _, tt := range tests {
		got, err := EncodeSetValue(mustPort(t, tt.port), tt.value)
		if err != nil {
			t.Fatalf("EncodeSetValue(%s, %d): %v", tt.port, tt.value, err)
		}
		if got != tt.want {
			t.Errorf("EncodeSetValue(%s, %d) = %q, want %q", tt.port, tt.value, got, tt.want)
		}
	}

	for _, v := range []int{-1, 256, 1000} {
		if _, err := EncodeSetValue(mustPort(t, "03"), v); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("EncodeSetValue(03, %d) = %v, want ErrInvalidValue", v, err)
		}
	}
}

func TestEncodeSetMode(t *testing.T) {
	tests := []struct {
		port string
		mode Mode
		want string
	}{
		{"02", ModeInput, "02-I"},
		{"02", ModeOutput, "02-O"},
		{"M1", ModeBrake, "M1-S"},
		{"M1", ModeRelease, "M1-R"},
		{"M1", ModeForward, "M1-F"},
		{"M1", ModeBackward, "M1-B"},
		{"A0", ModeMatrix, "A0-X"},
	}
	for _, tt := range tests {
		if got := EncodeSetMode(mustPort(t, tt.port), tt.mode); got != tt.want {
			t.Errorf("EncodeSetMode(%s, %v) = %q, want %q", tt.port, tt.mode, got, tt.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	for name, want := range map[string]Mode{
		"INPUT": ModeInput, "OUTPUT": ModeOutput, "BRAKE": ModeBrake,
		"RELEASE": ModeRelease, "FORWARD": ModeForward, "BACKWARD": ModeBackward,
		"MATRIX": ModeMatrix,
		"I":      ModeInput, "O": ModeOutput, "S": ModeBrake,
		"R": ModeRelease, "F": ModeForward, "B": ModeBackward, "X": ModeMatrix,
	} {
		got, err := ParseMode(name)
		if err != nil {
			t.Fatalf("ParseMode(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("ParseMode(%q) = %v, want %v", name, got, want)
		}
	}

	for _, bad := range []string{"", "input", "Q", "HIGH"} {
		if _, err := ParseMode(bad); !errors.Is(err, ErrInvalidMode) {
			t.Errorf("ParseMode(%q) = %v, want ErrInvalidMode", bad, err)
		}
	}
}

func TestEncodeSetSpeed(t *testing.T) {
	// Stepper channels use the 2-digit decimal form.
	got, err := EncodeSetSpeed(mustPort(t, "S0"), 7)
	if err != nil {
		t.Fatalf("EncodeSetSpeed(S0, 7): %v", err)
	}
	if got != "S0-07" {
		t.Errorf("EncodeSetSpeed(S0, 7) = %q, want %q", got, "S0-07")
	}

	got, err = EncodeSetSpeed(mustPort(t, "S1"), 42)
	if err != nil {
		t.Fatalf("EncodeSetSpeed(S1, 42): %v", err)
	}
	if got != "S1-42" {
		t.Errorf("EncodeSetSpeed(S1, 42) = %q, want %q", got, "S1-42")
	}

	// DC motor channels take speed as a plain value write.
	got, err = EncodeSetSpeed(mustPort(t, "M2"), 200)
	if err != nil {
		t.Fatalf("EncodeSetSpeed(M2, 200): %v", err)
	}
	if got != "M2:c8" {
		t.Errorf("EncodeSetSpeed(M2, 200) = %q, want %q", got, "M2:c8")
	}

	// Everything else is rejected before formatting.
	for _, code := range []string{"05", "A0"} {
		if _, err := EncodeSetSpeed(mustPort(t, code), 50); !errors.Is(err, ErrUnsupportedSpeedPort) {
			t.Errorf("EncodeSetSpeed(%s, 50) = %v, want ErrUnsupportedSpeedPort", code, err)
		}
	}

	for _, speed := range []int{0, -5, 256} {
		if _, err := EncodeSetSpeed(mustPort(t, "S0"), speed); !errors.Is(err, ErrInvalidSpeed) {
			t.Errorf("EncodeSetSpeed(S0, %d) = %v, want ErrInvalidSpeed", speed, err)
		}
	}
}

func TestEncodeRead(t *testing.T) {
	if got := EncodeRead(mustPort(t, "A0")); got != "A0?" {
		t.Errorf("EncodeRead(A0) = %q, want %q", got, "A0?")
	}
	if got := EncodeRead(mustPort(t, "04")); got != "04?" {
		t.Errorf("EncodeRead(04) = %q, want %q", got, "04?")
	}
}

func TestDecodeValueResponse(t *testing.T) {
	tests := []struct {
		line    string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{"0", 0, false},
		{"255\r", 255, false},
		{" 42 ", 42, false},
		{"", 0, true},
		{"abc", 0, true},
		{"1.5", 0, true},
	}
	for _, tt := range tests {
		got, err := DecodeValueResponse(tt.line)
		if tt.wantErr {
			if !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("DecodeValueResponse(%q) = %v, want ErrMalformedResponse", tt.line, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("DecodeValueResponse(%q): %v", tt.line, err)
		}
		if got != tt.want {
			t.Errorf("DecodeValueResponse(%q) = %d, want %d", tt.line, got, tt.want)
		}
	}
}
