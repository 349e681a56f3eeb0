package audio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEncodeWAVRoundTrip(t *testing.T) {
	in := []float32{0, 0.25, -0.25, 0.5, -0.5, 1, -1}
	data, err := EncodeWAV(in, 16000)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if len(data) != 44+len(in)*2 {
		t.Fatalf("encoded size %d, want %d", len(data), 44+len(in)*2)
	}

	out, rate, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if rate != 16000 {
		t.Fatalf("sample rate %d, want 16000", rate)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d samples, want %d", len(out), len(in))
	}
	for i := range in {
		if math.Abs(float64(out[i]-in[i])) > 1.0/32767 {
			t.Fatalf("sample %d: got %v, want %v within one quantization step", i, out[i], in[i])
		}
	}
}

func TestEncodeWAVClampsOutOfRange(t *testing.T) {
	data, err := EncodeWAV([]float32{2.0, -3.0}, 16000)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	out, _, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if out[0] != 1 || out[1] != -1 {
		t.Fatalf("clamped samples decode to %v/%v, want 1/-1", out[0], out[1])
	}
}

func TestEncodeWAVRejectsBadInput(t *testing.T) {
	if _, err := EncodeWAV(nil, 16000); err == nil {
		t.Fatal("expected error for empty samples")
	}
	if _, err := EncodeWAV([]float32{0.1}, 0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestDecodeWAVRejectsMalformedData(t *testing.T) {
	if _, _, err := DecodeWAV([]byte("short")); err == nil {
		t.Fatal("expected error for truncated data")
	}
	garbage := make([]byte, 64)
	copy(garbage, "NOTARIFF")
	if _, _, err := DecodeWAV(garbage); err == nil {
		t.Fatal("expected error for missing RIFF marker")
	}
}

func TestSaveWAVEmptyBuffer(t *testing.T) {
	_, err := SaveWAV(nil, 16000, t.TempDir(), "out.wav")
	if !errors.Is(err, ErrNothingToSave) {
		t.Fatalf("got %v, want ErrNothingToSave", err)
	}
}

func TestSaveWAVAutoGeneratesName(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveWAV([]float32{0.1, 0.2}, 16000, dir, "")
	if err != nil {
		t.Fatalf("SaveWAV: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("saved outside output dir: %s", path)
	}
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "recording_") || !strings.HasSuffix(name, ".wav") {
		t.Fatalf("auto-generated name %q, want recording_*.wav", name)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("saved file missing: %v", err)
	}
}

func TestSaveWAVCreatesMissingDirectories(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "deeper")
	path, err := SaveWAV([]float32{0.1}, 16000, dir, "clip.wav")
	if err != nil {
		t.Fatalf("SaveWAV: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if _, _, err := DecodeWAV(data); err != nil {
		t.Fatalf("saved file does not decode: %v", err)
	}
}

func TestWAVDuration(t *testing.T) {
	data, err := EncodeWAV(make([]float32, 8000), 16000)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	d, err := WAVDuration(data)
	if err != nil {
		t.Fatalf("WAVDuration: %v", err)
	}
	if d != 500*time.Millisecond {
		t.Fatalf("duration %v, want 500ms", d)
	}
}

func TestEqualizePadsShorterTail(t *testing.T) {
	a, b := equalize([]float32{1, 1, 1}, []float32{2})
	if len(a) != 3 || len(b) != 3 {
		t.Fatalf("lengths %d/%d, want 3/3", len(a), len(b))
	}
	if b[1] != 0 || b[2] != 0 {
		t.Fatalf("padding %v/%v, want zeros", b[1], b[2])
	}
	if a[2] != 1 {
		t.Fatal("longer buffer must not be modified")
	}
}

func TestMixAverages(t *testing.T) {
	out := mix([]float32{0.4, -0.4}, []float32{0.2, 0.2})
	if out[0] != 0.3 {
		t.Fatalf("mix[0] = %v, want 0.3", out[0])
	}
	if math.Abs(float64(out[1] - -0.1)) > 1e-7 {
		t.Fatalf("mix[1] = %v, want -0.1", out[1])
	}
}
