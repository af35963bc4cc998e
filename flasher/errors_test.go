package flasher

import (
	"strings"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "region",
			err:  &RegionError{Page: 111, FirstLoaderPage: 111},
			want: []string{"page 111", "loader region"},
		},
		{
			name: "vector",
			err:  &VectorError{Word: 0x1234},
			want: []string{"0x1234", "not a relative jump"},
		},
		{
			name: "range",
			err:  &RangeError{End: 513, Size: 512},
			want: []string{"513", "512"},
		},
		{
			name: "verify",
			err:  &VerifyError{Page: 2, Offset: 5, Expected: 0xAB, Actual: 0xFF},
			want: []string{"page 2", "offset 5", "0xAB", "0xFF"},
		},
		{
			name: "entry mismatch",
			err:  &EntryMismatchError{Expected: 0x20, Actual: 0x40},
			want: []string{"0x40", "0x20"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.want {
				if !strings.Contains(msg, want) {
					t.Errorf("%q does not contain %q", msg, want)
				}
			}
		})
	}
}
