package avr

import "testing"

func TestEncodeResetJump(t *testing.T) {
	tests := []struct {
		name   string
		target WordAddr
		want   uint16
	}{
		{
			name:   "application at word 1",
			target: 1,
			want:   0xC000,
		},
		{
			name:   "typical application entry",
			target: 0x0010,
			want:   0xC00F,
		},
		{
			name:   "loader at top of an 8K part",
			target: 0x1BC0 / 2,
			want:   0xCDDF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeResetJump(tt.target)
			if got != tt.want {
				t.Errorf("EncodeResetJump(%#x) = %#04x, want %#04x", tt.target, got, tt.want)
			}
			if !IsRJMP(got) {
				t.Errorf("EncodeResetJump(%#x) = %#04x, not an RJMP", tt.target, got)
			}
		})
	}
}

func TestDecodeResetJump(t *testing.T) {
	for _, target := range []WordAddr{1, 2, 0x0010, 0x0123, 0x0DE0, 0x0FFF} {
		w := EncodeResetJump(target)
		got := DecodeResetJump(w)
		if got != target {
			t.Errorf("DecodeResetJump(EncodeResetJump(%#x)) = %#x, want %#x", target, got, target)
		}
	}
}

func TestIsRJMP(t *testing.T) {
	tests := []struct {
		name string
		w    uint16
		want bool
	}{
		{"rjmp zero displacement", 0xC000, true},
		{"rjmp max displacement", 0xCFFF, true},
		{"jmp-like word", 0x940C, false},
		{"erased flash", 0xFFFF, false},
		{"zero word", 0x0000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRJMP(tt.w); got != tt.want {
				t.Errorf("IsRJMP(%#04x) = %v, want %v", tt.w, got, tt.want)
			}
		})
	}
}

func TestAddressConversion(t *testing.T) {
	if got := ByteAddr(0x1BC0).Word(); got != 0x0DE0 {
		t.Errorf("ByteAddr(0x1BC0).Word() = %#x, want 0xDE0", got)
	}
	if got := WordAddr(0x0DE0).Byte(); got != 0x1BC0 {
		t.Errorf("WordAddr(0xDE0).Byte() = %#x, want 0x1BC0", got)
	}
}
