package attention

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Recorder errors.
var (
	// ErrTrackingUnavailable means the camera permission was denied or the
	// capture pipeline failed to initialize. Callers must treat tracking as
	// optional and continue without it.
	ErrTrackingUnavailable = errors.New("attention tracking unavailable")

	// ErrAlreadyTracking is returned when StartTracking is called while a
	// session is active. The active session is untouched.
	ErrAlreadyTracking = errors.New("tracking session already active")
)

const (
	// DefaultPollInterval is the detection cadence. 100 ms balances
	// responsiveness against camera/CPU load; it also bounds the
	// granularity of distraction durations, so changing it changes how
	// close to the 2 s threshold a span can land.
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultDistractionThreshold is the minimum face-absence span that
	// counts as a distraction. Anything shorter is treated as a blink.
	DefaultDistractionThreshold = 2 * time.Second
)

// PauseSignal is emitted once per qualifying sustained-absence event, at the
// moment the event is recorded. The exam machine owns the pause/resume
// reaction; the recorder keeps tracking through a pause.
type PauseSignal struct {
	Reason string
	Event  DistractionEvent
}

// RecorderConfig configures a Recorder.
//
// Camera and Detector are optional as a pair: when both are set the recorder
// drives its own polling loop; when absent the recorder runs in push mode and
// expects samples via Ingest (the WebSocket stream path, where the client
// runs the detector).
type RecorderConfig struct {
	Camera               Camera
	Detector             Detector
	PollInterval         time.Duration
	DistractionThreshold time.Duration
	Log                  zerolog.Logger

	// Clock overrides time.Now in tests.
	Clock func() time.Time
}

// Recorder owns the attention timeline of at most one active session.
// It is safe for concurrent use: the polling loop, the WebSocket ingest
// path, and StopTracking all serialize on the internal mutex.
type Recorder struct {
	camera    Camera
	detector  Detector
	interval  time.Duration
	threshold time.Duration
	log       zerolog.Logger
	now       func() time.Time

	mu           sync.Mutex
	tracking     bool
	session      *Session
	spanStart    *time.Time
	lastSampleAt time.Time
	samples      int
	faceSamples  int
	eyesSamples  int
	signals      chan PauseSignal

	stopc    chan struct{}
	loopDone chan struct{}
}

// NewRecorder creates a Recorder. See RecorderConfig for the two modes.
func NewRecorder(cfg RecorderConfig) *Recorder {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.DistractionThreshold <= 0 {
		cfg.DistractionThreshold = DefaultDistractionThreshold
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Recorder{
		camera:    cfg.Camera,
		detector:  cfg.Detector,
		interval:  cfg.PollInterval,
		threshold: cfg.DistractionThreshold,
		log:       cfg.Log.With().Str("component", "attention_recorder").Logger(),
		now:       cfg.Clock,
	}
}

// StartTracking begins a fresh attention session. Returns ErrAlreadyTracking
// if a session is active (the call is otherwise a no-op) and
// ErrTrackingUnavailable when the camera cannot be acquired.
func (r *Recorder) StartTracking(ctx context.Context, userID, sessionID string) error {
	r.mu.Lock()
	if r.tracking {
		r.mu.Unlock()
		return ErrAlreadyTracking
	}

	if r.camera != nil {
		if r.detector == nil {
			r.mu.Unlock()
			return fmt.Errorf("%w: no detector configured", ErrTrackingUnavailable)
		}
		if !r.camera.CheckPermissions(ctx) {
			r.mu.Unlock()
			return fmt.Errorf("%w: camera permission denied", ErrTrackingUnavailable)
		}
		if err := r.camera.Open(ctx); err != nil {
			r.mu.Unlock()
			return fmt.Errorf("%w: open camera: %s", ErrTrackingUnavailable, err)
		}
	}

	start := r.now()
	r.session = &Session{
		SessionID: sessionID,
		UserID:    userID,
		StartTime: start,
	}
	r.spanStart = nil
	r.lastSampleAt = start
	r.samples = 0
	r.faceSamples = 0
	r.eyesSamples = 0
	r.signals = make(chan PauseSignal, 8)
	r.tracking = true

	loop := r.camera != nil
	if loop {
		r.stopc = make(chan struct{})
		r.loopDone = make(chan struct{})
	}
	r.mu.Unlock()

	if loop {
		go r.run(ctx)
	}

	r.log.Info().
		Str("session_id", sessionID).
		Str("user_id", userID).
		Bool("polling", loop).
		Msg("Tracking started")
	return nil
}

// Signals returns the pause signal channel for the active session. The
// channel is closed when tracking stops, so subscribers can range over it.
func (r *Recorder) Signals() <-chan PauseSignal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.signals
}

// Tracking reports whether a session is currently active.
func (r *Recorder) Tracking() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tracking
}

// Ingest folds one detection sample into the active session's timeline.
// Samples arriving while no session is active are dropped.
func (r *Recorder) Ingest(sample Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.tracking {
		return
	}
	r.apply(sample)
}

// apply implements the tick model. Within one sample, closing an open
// distraction span happens before anything else; a single tick never both
// closes and opens a span. Caller holds the mutex.
func (r *Recorder) apply(sample Sample) {
	ts := sample.Timestamp
	if ts.IsZero() {
		ts = r.now()
	}
	if ts.Before(r.lastSampleAt) {
		// Out-of-order sample (client clock skew). Drop it rather than
		// corrupt the strictly increasing event order.
		return
	}

	r.samples++
	hadOpenSpan := r.spanStart != nil

	if sample.FaceDetected {
		r.faceSamples++

		if hadOpenSpan {
			r.closeSpan(ts)
		}

		if sample.EyesDetected >= 2 {
			r.eyesSamples++
			// Focus accrues only when the preceding interval was not part
			// of an absence span, so focus and distraction never overlap.
			if !hadOpenSpan {
				r.session.TotalFocus += ts.Sub(r.lastSampleAt)
			}
		}
	} else if !hadOpenSpan {
		start := ts
		r.spanStart = &start
	}

	r.lastSampleAt = ts
}

// closeSpan resolves the open absence span at ts. Spans below the threshold
// are discarded as blinks; qualifying spans become immutable events and fire
// the pause signal. Caller holds the mutex.
func (r *Recorder) closeSpan(ts time.Time) {
	dur := ts.Sub(*r.spanStart)
	if dur >= r.threshold {
		ev := DistractionEvent{
			StartedAt: *r.spanStart,
			Duration:  dur,
			Type:      EventGazeAway,
			Severity:  severityFor(dur),
		}
		r.session.Events = append(r.session.Events, ev)
		r.session.TotalDistraction += dur

		sig := PauseSignal{
			Reason: fmt.Sprintf("face not detected for %.1fs", dur.Seconds()),
			Event:  ev,
		}
		select {
		case r.signals <- sig:
		default:
			// Subscriber is not draining; the exam is likely already
			// paused. Dropping is safe — the event itself is recorded.
			r.log.Warn().Str("session_id", r.session.SessionID).Msg("Pause signal dropped")
		}
	}
	r.spanStart = nil
}

// StopTracking finalizes the active session and returns an immutable
// snapshot. Returns nil if no session is active, or if the session never
// received a single sample (a client that opted in but never streamed has no
// timeline; the exam is scored as untracked). The camera is released, the
// polling loop is stopped, and internal state is cleared so a subsequent
// StartTracking begins fresh.
func (r *Recorder) StopTracking() *Session {
	r.mu.Lock()
	if !r.tracking {
		r.mu.Unlock()
		return nil
	}

	var snapshot *Session
	if r.samples > 0 {
		end := r.now()

		// An absence span still open at shutdown is closed at the session
		// end, so sustained absence right up to submit is not lost.
		if r.spanStart != nil {
			r.closeSpan(end)
		}

		r.session.EndTime = end
		if r.faceSamples > 0 {
			r.session.GazeStability = float64(r.eyesSamples) / float64(r.faceSamples)
		}
		r.session.AttentionScore = computeScore(r.session)
		snapshot = r.session.snapshot()
	}

	sessionID := r.session.SessionID

	close(r.signals)
	r.tracking = false
	r.session = nil
	r.spanStart = nil
	r.signals = nil

	stopc, loopDone := r.stopc, r.loopDone
	r.stopc, r.loopDone = nil, nil
	r.mu.Unlock()

	// Stop scheduling further ticks, then release the camera. The current
	// tick, if any, completes its (now no-op) bookkeeping first.
	if stopc != nil {
		close(stopc)
		<-loopDone
	}
	if r.camera != nil {
		if err := r.camera.Close(); err != nil {
			r.log.Warn().Err(err).Msg("Camera release failed")
		}
	}

	if snapshot == nil {
		r.log.Info().Str("session_id", sessionID).Msg("Tracking stopped with no samples, session discarded")
		return nil
	}

	r.log.Info().
		Str("session_id", snapshot.SessionID).
		Float64("score", snapshot.AttentionScore).
		Int("events", len(snapshot.Events)).
		Msg("Tracking stopped")
	return snapshot
}

// run is the self-rescheduling polling loop: each tick arms the next timer
// only after its own detection work completes, so ticks never overlap. Drift
// under load is acceptable because the distraction threshold is multi-second.
func (r *Recorder) run(ctx context.Context) {
	defer close(r.loopDone)

	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for {
		select {
		case <-r.stopc:
			return
		case <-ctx.Done():
			return
		case <-timer.C:
			r.pollOnce(ctx)
			timer.Reset(r.interval)
		}
	}
}

// pollOnce captures one frame and runs detection, failing open toward
// "absent": a slow or failed detector tick pauses the exam sooner rather
// than silently under-counting distraction.
func (r *Recorder) pollOnce(ctx context.Context) {
	tickCtx, cancel := context.WithTimeout(ctx, r.interval)
	defer cancel()

	sample := Sample{Timestamp: r.now()}

	frame, err := r.camera.ReadFrame(tickCtx)
	if err == nil {
		det, derr := r.detector.Detect(tickCtx, frame)
		if derr == nil {
			sample.FaceDetected = det.FaceDetected
			sample.EyesDetected = det.EyeCount
		} else {
			r.log.Debug().Err(derr).Msg("Detection failed, treating tick as absent")
		}
	} else {
		r.log.Debug().Err(err).Msg("Frame read failed, treating tick as absent")
	}

	r.Ingest(sample)
}
