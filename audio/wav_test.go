package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

func TestWriteWAV(t *testing.T) {
	levels := []bool{false, true, true, false}
	path := filepath.Join(t.TempDir(), "signal.wav")

	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating file: %v", err)
	}
	err = WriteWAV(out, levels,
		WithSampleRate(8000),
		WithSamplesPerHalfCell(2),
		WithAmplitude(1.0))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		t.Fatalf("writing wav: %v", err)
	}

	in, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening file: %v", err)
	}
	defer in.Close()

	dec := wav.NewDecoder(in)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decoding wav: %v", err)
	}

	if buf.Format.SampleRate != 8000 {
		t.Errorf("sample rate = %d, want 8000", buf.Format.SampleRate)
	}
	if buf.Format.NumChannels != 1 {
		t.Errorf("channels = %d, want mono", buf.Format.NumChannels)
	}
	if len(buf.Data) != len(levels)*2 {
		t.Fatalf("samples = %d, want %d", len(buf.Data), len(levels)*2)
	}

	for i, s := range buf.Data {
		want := -32767
		if levels[i/2] {
			want = 32767
		}
		if s != want {
			t.Errorf("sample %d = %d, want %d", i, s, want)
		}
	}
}

func TestWriteWAVDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signal.wav")
	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating file: %v", err)
	}
	defer out.Close()

	levels := []bool{true, false, true}
	if err := WriteWAV(out, levels); err != nil {
		t.Fatalf("writing wav: %v", err)
	}

	in, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening file: %v", err)
	}
	defer in.Close()

	buf, err := wav.NewDecoder(in).FullPCMBuffer()
	if err != nil {
		t.Fatalf("decoding wav: %v", err)
	}
	if buf.Format.SampleRate != DefaultSampleRate {
		t.Errorf("sample rate = %d, want %d", buf.Format.SampleRate, DefaultSampleRate)
	}
	if len(buf.Data) != len(levels)*DefaultSamplesPerHalfCell {
		t.Errorf("samples = %d, want %d", len(buf.Data), len(levels)*DefaultSamplesPerHalfCell)
	}

	hi := int(DefaultAmplitude * 32767)
	if buf.Data[0] != hi {
		t.Errorf("first sample = %d, want %d", buf.Data[0], hi)
	}
}

func TestWriteWAVEmptyStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signal.wav")
	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating file: %v", err)
	}
	defer out.Close()

	if err := WriteWAV(out, nil); err == nil {
		t.Fatal("expected an error for an empty stream")
	}
}
