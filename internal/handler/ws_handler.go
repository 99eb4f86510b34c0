package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/focusloop/focusloop-backend/internal/attention"
	"github.com/focusloop/focusloop-backend/internal/exam"
	"github.com/focusloop/focusloop-backend/internal/middleware"
	"github.com/focusloop/focusloop-backend/internal/service"
	ws "github.com/focusloop/focusloop-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams client-side attention samples into the session's
// recorder and pushes pause notifications back.
type WSHandler struct {
	sessionService *service.ExamSessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.ExamSessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// AttentionStream godoc
// WS /ws/v1/sessions/:session_id/attention
// Upgrades to WebSocket for streaming detection samples. The client runs the
// camera and face detector; the server owns the distraction timeline, so a
// pause decided here reaches the client as a "paused" event.
func (h *WSHandler) AttentionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	machine, err := h.sessionService.Machine(sessionID, claims.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no session"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("student_id", claims.UserID).
		Str("session_id", sessionID.String()).
		Logger()
	wsLog.Info().Msg("Attention stream connected")

	lastState := machine.State()

	for {
		var msg ws.SampleRequest
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Attention stream closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})

		case ws.ActionSample:
			machine.IngestSample(attention.Sample{
				Timestamp:    time.UnixMilli(msg.Timestamp),
				FaceDetected: msg.FaceDetected,
				EyesDetected: msg.EyesDetected,
			})

			// Pauses are decided on the server; surface state transitions to
			// the client that triggered them.
			view := machine.View()
			if view.State != lastState {
				if view.State == exam.StatePaused {
					ws.WriteTyped(conn, ws.PausedEvent{
						Event:  ws.EventPaused,
						Reason: view.PauseReason,
					})
				}
				ws.WriteTyped(conn, ws.StateEvent{
					Event:           ws.EventState,
					State:           string(view.State),
					RemainingTimeMs: view.RemainingTime.Milliseconds(),
					TrackingActive:  view.TrackingActive,
				})
				lastState = view.State
			}

			if view.State == exam.StateFinished {
				wsLog.Info().Msg("Session finished, closing attention stream")
				return
			}

		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}
