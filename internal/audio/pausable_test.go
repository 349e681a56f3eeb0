package audio

import (
	"testing"

	"github.com/rs/zerolog"
)

func newTestPausable(opener *fakeOpener) *PausableRecorder {
	return NewPausableRecorder(RecorderConfig{
		SampleRate: 1000,
		Device:     -1,
		Open:       opener.open,
		Logger:     zerolog.Nop(),
	})
}

func TestPausableExcludesFramesDeliveredWhilePaused(t *testing.T) {
	opener := &fakeOpener{}
	rec := newTestPausable(opener)

	if err := rec.StartRecording(); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}

	kept1 := ramp(100, 0)
	dropped := ramp(100, 1)
	kept2 := ramp(100, 2)

	opener.deliver(kept1)

	if !rec.Pause() {
		t.Fatal("Pause should report a state change")
	}
	opener.deliver(dropped) // callback keeps firing while paused

	if !rec.Resume() {
		t.Fatal("Resume should report a state change")
	}
	opener.deliver(kept2)

	buf, err := rec.StopRecording()
	if err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	if len(buf) != 200 {
		t.Fatalf("expected 200 samples, got %d", len(buf))
	}
	if buf[0] != kept1[0] || buf[100] != kept2[0] {
		t.Fatal("segments concatenated out of order")
	}
	if buf[99] == dropped[99] {
		t.Fatal("paused frame leaked into buffer")
	}
}

func TestPausableRepeatedCycles(t *testing.T) {
	opener := &fakeOpener{}
	rec := newTestPausable(opener)

	if err := rec.StartRecording(); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}

	want := 0
	for cycle := 0; cycle < 3; cycle++ {
		frame := ramp(50, float32(cycle))
		opener.deliver(frame)
		want += len(frame)
		rec.Pause()
		opener.deliver(ramp(50, 99)) // excluded
		rec.Resume()
	}
	opener.deliver(ramp(25, 10))
	want += 25

	buf, err := rec.StopRecording()
	if err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	if len(buf) != want {
		t.Fatalf("expected %d samples, got %d", want, len(buf))
	}
}

func TestPausablePauseAndResumeAreIdempotent(t *testing.T) {
	opener := &fakeOpener{}
	rec := newTestPausable(opener)

	if rec.Pause() {
		t.Fatal("Pause before start should be a no-op")
	}
	if rec.Resume() {
		t.Fatal("Resume before start should be a no-op")
	}

	if err := rec.StartRecording(); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if rec.Resume() {
		t.Fatal("Resume while recording should be a no-op")
	}
	if !rec.Pause() {
		t.Fatal("first Pause should succeed")
	}
	if rec.Pause() {
		t.Fatal("Pause while paused should be a no-op")
	}

	status := rec.Status()
	if status.PauseCount != 1 {
		t.Fatalf("pause count %d, want 1", status.PauseCount)
	}
}

func TestPausableStatusSnapshot(t *testing.T) {
	opener := &fakeOpener{}
	rec := newTestPausable(opener)

	if err := rec.StartRecording(); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}

	opener.deliver(ramp(500, 0)) // 0.5s at 1000 Hz
	rec.Pause()
	rec.Resume()
	opener.deliver(ramp(250, 1)) // in-flight segment, 0.25s

	status := rec.Status()
	if !status.Recording || status.Paused {
		t.Fatalf("unexpected flags: %+v", status)
	}
	if status.Duration != 0.75 {
		t.Fatalf("duration %v, want 0.75 (must include the in-flight segment)", status.Duration)
	}
	if status.Segments != 2 {
		t.Fatalf("segments %d, want 2", status.Segments)
	}
	if status.PauseCount != 1 {
		t.Fatalf("pause count %d, want 1", status.PauseCount)
	}

	if _, err := rec.StopRecording(); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	status = rec.Status()
	if status.Recording {
		t.Fatal("session should be idle after stop")
	}
}

func TestPausableStopSealsInFlightSegment(t *testing.T) {
	opener := &fakeOpener{}
	rec := newTestPausable(opener)

	if err := rec.StartRecording(); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	opener.deliver(ramp(120, 0))

	buf, err := rec.StopRecording()
	if err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	if len(buf) != 120 {
		t.Fatalf("in-flight segment lost: got %d samples", len(buf))
	}

	// Second stop returns the same buffer and is otherwise a no-op.
	again, err := rec.StopRecording()
	if err != nil {
		t.Fatalf("second StopRecording: %v", err)
	}
	if len(again) != 120 {
		t.Fatalf("second stop returned %d samples, want 120", len(again))
	}
	if got := opener.streams[0].stopCount(); got != 1 {
		t.Fatalf("device stopped %d times, want exactly 1", got)
	}
}
