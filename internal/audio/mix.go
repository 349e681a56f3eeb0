package audio

import "time"

// equalize pads the shorter buffer with trailing zeros to match the longer
// one. Silence is a safer assumption than dropped speech, so the longer
// buffer is never truncated.
func equalize(a, b []float32) ([]float32, []float32) {
	switch {
	case len(a) < len(b):
		a = append(a, make([]float32, len(b)-len(a))...)
	case len(b) < len(a):
		b = append(b, make([]float32, len(a)-len(b))...)
	}
	return a, b
}

// mix averages two equal-length signals per sample.
func mix(a, b []float32) []float32 {
	out := make([]float32, len(a))
	for i := range a {
		out[i] = (a[i] + b[i]) / 2
	}
	return out
}

func timestamp() string {
	return time.Now().Format("20060102_150405")
}
