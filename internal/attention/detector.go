package attention

import (
	"context"
	"time"
)

// Frame is a single captured video frame handed to a Detector.
// Pixel layout is detector-specific; the recorder never inspects Data.
type Frame struct {
	Data       []byte
	Width      int
	Height     int
	CapturedAt time.Time
}

// Detection is the per-frame result reported by a Detector.
type Detection struct {
	FaceDetected bool `json:"face_detected"`
	EyeCount     int  `json:"eye_count"`
}

// Detector classifies a single frame. Implementations must be side-effect
// free beyond reading the frame, and must respect ctx for cancellation —
// a detection that outlives the polling interval is treated as "no face"
// for that tick.
type Detector interface {
	Detect(ctx context.Context, frame Frame) (Detection, error)
}

// Camera abstracts the frame source owned by a Recorder. Open is called
// once at StartTracking and Close exactly once when tracking stops.
// At most one Recorder holds an open Camera at a time.
type Camera interface {
	// CheckPermissions reports whether capture is allowed. Idempotent,
	// callable before Open.
	CheckPermissions(ctx context.Context) bool

	Open(ctx context.Context) error
	ReadFrame(ctx context.Context) (Frame, error)
	Close() error
}

// Sample is one detection observation on the session timeline. Samples are
// ephemeral: the recorder folds each one into its running totals and drops it.
type Sample struct {
	Timestamp    time.Time `json:"timestamp"`
	FaceDetected bool      `json:"face_detected"`
	EyesDetected int       `json:"eyes_detected"`
}
