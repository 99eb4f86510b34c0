package attention

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// testClock is a manually advanced clock for deterministic timelines.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) time.Time {
	c.now = c.now.Add(d)
	return c.now
}

func newTestRecorder(clock *testClock) *Recorder {
	return NewRecorder(RecorderConfig{
		DistractionThreshold: 2 * time.Second,
		Log:                  zerolog.Nop(),
		Clock:                clock.Now,
	})
}

func startTracking(t *testing.T, r *Recorder, clock *testClock) {
	t.Helper()
	if err := r.StartTracking(context.Background(), "student-1", "session-1"); err != nil {
		t.Fatalf("StartTracking: %v", err)
	}
}

func TestRecorderFocusAndDistractionAccounting(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
	base := clock.now
	r := newTestRecorder(clock)
	startTracking(t, r, clock)
	signals := r.Signals()

	focused := func(at time.Duration) Sample {
		return Sample{Timestamp: base.Add(at), FaceDetected: true, EyesDetected: 2}
	}
	absent := func(at time.Duration) Sample {
		return Sample{Timestamp: base.Add(at)}
	}

	// Two focused seconds, then a 3 s absence, then two more focused seconds.
	r.Ingest(focused(1 * time.Second))
	r.Ingest(focused(2 * time.Second))
	r.Ingest(absent(3 * time.Second))
	r.Ingest(absent(4 * time.Second))
	r.Ingest(focused(6 * time.Second))
	r.Ingest(focused(7 * time.Second))

	select {
	case sig := <-signals:
		if sig.Reason != "face not detected for 3.0s" {
			t.Errorf("signal reason = %q", sig.Reason)
		}
		if sig.Event.Duration != 3*time.Second {
			t.Errorf("event duration = %v, want 3s", sig.Event.Duration)
		}
		if sig.Event.Severity != SeverityLow {
			t.Errorf("event severity = %q, want low", sig.Event.Severity)
		}
		if !sig.Event.StartedAt.Equal(base.Add(3 * time.Second)) {
			t.Errorf("event started at %v", sig.Event.StartedAt)
		}
	default:
		t.Fatal("expected a pause signal after the 3s absence")
	}

	clock.now = base.Add(10 * time.Second)
	session := r.StopTracking()
	if session == nil {
		t.Fatal("StopTracking returned nil")
	}

	// Focus: the 0-2s window plus the 6-7s window. The 4-6s interval follows
	// an absence span and must not count as focus.
	if session.TotalFocus != 3*time.Second {
		t.Errorf("TotalFocus = %v, want 3s", session.TotalFocus)
	}
	if session.TotalDistraction != 3*time.Second {
		t.Errorf("TotalDistraction = %v, want 3s", session.TotalDistraction)
	}
	if len(session.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(session.Events))
	}
	if session.Duration() != 10*time.Second {
		t.Errorf("Duration = %v, want 10s", session.Duration())
	}

	// 30% focus minus the single low-severity penalty.
	if want := 29.0; session.AttentionScore != want {
		t.Errorf("AttentionScore = %v, want %v", session.AttentionScore, want)
	}
}

func TestRecorderBlinkDiscarded(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
	base := clock.now
	r := newTestRecorder(clock)
	startTracking(t, r, clock)
	signals := r.Signals()

	r.Ingest(Sample{Timestamp: base.Add(1 * time.Second), FaceDetected: true, EyesDetected: 2})
	r.Ingest(Sample{Timestamp: base.Add(1500 * time.Millisecond)})
	r.Ingest(Sample{Timestamp: base.Add(2 * time.Second), FaceDetected: true, EyesDetected: 2})

	select {
	case sig := <-signals:
		t.Fatalf("blink must not emit a pause signal, got %q", sig.Reason)
	default:
	}

	clock.now = base.Add(3 * time.Second)
	session := r.StopTracking()
	if len(session.Events) != 0 {
		t.Errorf("got %d events, want 0", len(session.Events))
	}
	if session.TotalDistraction != 0 {
		t.Errorf("TotalDistraction = %v, want 0", session.TotalDistraction)
	}
	// Only the first interval counts: the 1.5-2s sample closes a blink span.
	if session.TotalFocus != 1*time.Second {
		t.Errorf("TotalFocus = %v, want 1s", session.TotalFocus)
	}
}

func TestRecorderOutOfOrderSampleDropped(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
	base := clock.now
	r := newTestRecorder(clock)
	startTracking(t, r, clock)

	r.Ingest(Sample{Timestamp: base.Add(5 * time.Second), FaceDetected: true, EyesDetected: 2})
	// Stale sample from before the last one. Must not accrue anything.
	r.Ingest(Sample{Timestamp: base.Add(2 * time.Second), FaceDetected: true, EyesDetected: 2})
	r.Ingest(Sample{Timestamp: base.Add(6 * time.Second), FaceDetected: true, EyesDetected: 2})

	clock.now = base.Add(6 * time.Second)
	session := r.StopTracking()
	if session.TotalFocus != 6*time.Second {
		t.Errorf("TotalFocus = %v, want 6s", session.TotalFocus)
	}
}

func TestRecorderClosesOpenSpanAtStop(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
	base := clock.now
	r := newTestRecorder(clock)
	startTracking(t, r, clock)

	r.Ingest(Sample{Timestamp: base.Add(1 * time.Second), FaceDetected: true, EyesDetected: 2})
	r.Ingest(Sample{Timestamp: base.Add(2 * time.Second)})

	clock.now = base.Add(8 * time.Second)
	session := r.StopTracking()

	if len(session.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(session.Events))
	}
	ev := session.Events[0]
	if ev.Duration != 6*time.Second {
		t.Errorf("event duration = %v, want 6s", ev.Duration)
	}
	if ev.Severity != SeverityMedium {
		t.Errorf("event severity = %q, want medium", ev.Severity)
	}
	if session.TotalDistraction != 6*time.Second {
		t.Errorf("TotalDistraction = %v, want 6s", session.TotalDistraction)
	}
}

func TestRecorderGazeStability(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
	base := clock.now
	r := newTestRecorder(clock)
	startTracking(t, r, clock)

	r.Ingest(Sample{Timestamp: base.Add(1 * time.Second), FaceDetected: true, EyesDetected: 2})
	r.Ingest(Sample{Timestamp: base.Add(2 * time.Second), FaceDetected: true, EyesDetected: 2})
	r.Ingest(Sample{Timestamp: base.Add(3 * time.Second), FaceDetected: true, EyesDetected: 1})
	r.Ingest(Sample{Timestamp: base.Add(4 * time.Second), FaceDetected: true, EyesDetected: 0})

	clock.now = base.Add(4 * time.Second)
	session := r.StopTracking()
	if session.GazeStability != 0.5 {
		t.Errorf("GazeStability = %v, want 0.5", session.GazeStability)
	}
	// Eyes below two is not focus time.
	if session.TotalFocus != 2*time.Second {
		t.Errorf("TotalFocus = %v, want 2s", session.TotalFocus)
	}
}

func TestRecorderLifecycle(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
	r := newTestRecorder(clock)

	if r.Tracking() {
		t.Error("new recorder must not be tracking")
	}
	if got := r.StopTracking(); got != nil {
		t.Errorf("StopTracking without session = %+v, want nil", got)
	}

	startTracking(t, r, clock)
	if !r.Tracking() {
		t.Error("Tracking() = false after StartTracking")
	}
	if err := r.StartTracking(context.Background(), "student-1", "session-2"); !errors.Is(err, ErrAlreadyTracking) {
		t.Errorf("second StartTracking = %v, want ErrAlreadyTracking", err)
	}

	signals := r.Signals()
	r.Ingest(Sample{Timestamp: clock.Advance(1 * time.Second), FaceDetected: true, EyesDetected: 2})
	session := r.StopTracking()
	if session == nil || session.SessionID != "session-1" {
		t.Fatalf("unexpected snapshot: %+v", session)
	}
	if !session.Finalized() {
		t.Error("snapshot must be finalized")
	}
	if r.Tracking() {
		t.Error("Tracking() = true after StopTracking")
	}
	if _, open := <-signals; open {
		t.Error("signal channel must be closed after StopTracking")
	}

	// The recorder is reusable for a fresh session.
	startTracking(t, r, clock)
	if !r.Tracking() {
		t.Error("recorder not tracking after restart")
	}
	r.StopTracking()
}

func TestRecorderNoSamplesDiscarded(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
	r := newTestRecorder(clock)
	startTracking(t, r, clock)
	signals := r.Signals()

	// The client opted in but never streamed a sample. There is no timeline
	// to score, so the session must not be reported as tracked.
	clock.Advance(10 * time.Minute)
	if got := r.StopTracking(); got != nil {
		t.Errorf("StopTracking with no samples = %+v, want nil", got)
	}
	if r.Tracking() {
		t.Error("Tracking() = true after StopTracking")
	}
	if _, open := <-signals; open {
		t.Error("signal channel must be closed after StopTracking")
	}

	// A later session with real samples is unaffected.
	startTracking(t, r, clock)
	r.Ingest(Sample{Timestamp: clock.Advance(1 * time.Second), FaceDetected: true, EyesDetected: 2})
	session := r.StopTracking()
	if session == nil {
		t.Fatal("sampled session must produce a snapshot")
	}
	if session.TotalFocus != time.Second {
		t.Errorf("TotalFocus = %v, want 1s", session.TotalFocus)
	}
}

type deniedCamera struct{}

func (deniedCamera) CheckPermissions(context.Context) bool    { return false }
func (deniedCamera) Open(context.Context) error               { return nil }
func (deniedCamera) ReadFrame(context.Context) (Frame, error) { return Frame{}, nil }
func (deniedCamera) Close() error                             { return nil }

type staticDetector struct{ det Detection }

func (d staticDetector) Detect(context.Context, Frame) (Detection, error) { return d.det, nil }

func TestRecorderCameraPermissionDenied(t *testing.T) {
	clock := &testClock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
	r := NewRecorder(RecorderConfig{
		Camera:   deniedCamera{},
		Detector: staticDetector{},
		Log:      zerolog.Nop(),
		Clock:    clock.Now,
	})

	err := r.StartTracking(context.Background(), "student-1", "session-1")
	if !errors.Is(err, ErrTrackingUnavailable) {
		t.Fatalf("StartTracking = %v, want ErrTrackingUnavailable", err)
	}
	if r.Tracking() {
		t.Error("recorder must not be tracking after a failed start")
	}
}
