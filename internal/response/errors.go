package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Exam sessions ─────────────────────────────────────────────────
	ErrInvalidState     ErrCode = "INVALID_STATE"
	ErrSessionNotPaused ErrCode = "SESSION_NOT_PAUSED"
	ErrPausedNavigation ErrCode = "PAUSED_NAVIGATION"
	ErrInvalidAnswer    ErrCode = "INVALID_ANSWER_OPTION"
	ErrInvalidQuestion  ErrCode = "INVALID_QUESTION_INDEX"
	ErrNoQuestions      ErrCode = "NO_QUESTIONS"
	ErrSessionFinished  ErrCode = "SESSION_FINISHED"
	ErrSessionActiveRun ErrCode = "ACTIVE_SESSION_EXISTS"
	ErrResultNotReady   ErrCode = "RESULT_NOT_READY"

	// ─── Attention tracking ────────────────────────────────────────────
	ErrTrackingUnavailable ErrCode = "TRACKING_UNAVAILABLE"
	ErrNotTracking         ErrCode = "NOT_TRACKING"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrSessionActive:
		return "You are already logged in on another device."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "The request payload is invalid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Exam sessions ─────────────────────────────────────────────────
	case ErrInvalidState:
		return "This action is not allowed in the session's current state."
	case ErrSessionNotPaused:
		return "The session is not paused."
	case ErrPausedNavigation:
		return "Navigation is disabled while the session is paused."
	case ErrInvalidAnswer:
		return "Answer must be one of A, B, C or D."
	case ErrInvalidQuestion:
		return "The question index is out of range."
	case ErrNoQuestions:
		return "This session has no questions."
	case ErrSessionFinished:
		return "This session is already finished."
	case ErrSessionActiveRun:
		return "You already have an active exam session."
	case ErrResultNotReady:
		return "Results are not available until the session finishes."

	// ─── Attention tracking ────────────────────────────────────────────
	case ErrTrackingUnavailable:
		return "Attention tracking is unavailable. The exam will run without it."
	case ErrNotTracking:
		return "Attention tracking is not active for this session."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
