package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSample Action = "sample"
	ActionPing   Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// SampleRequest is one client-side detection sample. The client runs the
// face detector locally and streams results; the server keeps the timeline.
type SampleRequest struct {
	Action       Action `json:"action"`
	Timestamp    int64  `json:"timestamp"` // Unix milliseconds
	FaceDetected bool   `json:"face_detected"`
	EyesDetected int    `json:"eyes_detected"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError  Event = "error"
	EventState  Event = "state"
	EventPaused Event = "paused"
	EventPong   Event = "pong"
)

// PausedEvent tells the client the exam auto-paused on sustained distraction.
type PausedEvent struct {
	Event  Event  `json:"event"`
	Reason string `json:"reason"`
}

// StateEvent carries the current session snapshot after each sample batch.
type StateEvent struct {
	Event           Event  `json:"event"`
	State           string `json:"state"`
	RemainingTimeMs int64  `json:"remaining_time_ms"`
	TrackingActive  bool   `json:"tracking_active"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
