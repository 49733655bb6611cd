package response

// ErrCode is a typed error code enum carried in error_code of ERROR responses.
type ErrCode string

const (
	// ─── Protocol ──────────────────────────────────────────────────────
	ErrInvalidRequest ErrCode = "INVALID_REQUEST"
	ErrInvalidMessage ErrCode = "INVALID_MESSAGE"
	ErrUnknownAction  ErrCode = "UNKNOWN_ACTION"
	ErrHandler        ErrCode = "HANDLER_ERROR"

	// ─── Authentication ────────────────────────────────────────────────
	ErrUnauthorized   ErrCode = "UNAUTHORIZED"
	ErrForbidden      ErrCode = "FORBIDDEN"
	ErrRegisterFailed ErrCode = "REGISTER_FAILED"
	ErrLoginFailed    ErrCode = "LOGIN_FAILED"

	// ─── Rooms ─────────────────────────────────────────────────────────
	ErrCreateFailed  ErrCode = "CREATE_FAILED"
	ErrJoinFailed    ErrCode = "JOIN_FAILED"
	ErrStartFailed   ErrCode = "START_FAILED"
	ErrDetailsFailed ErrCode = "DETAILS_FAILED"
	ErrDeleteFailed  ErrCode = "DELETE_FAILED"
	ErrFinishFailed  ErrCode = "FINISH_FAILED"

	// ─── Exams & practice ──────────────────────────────────────────────
	ErrExamFailed     ErrCode = "EXAM_FAILED"
	ErrTimerFailed    ErrCode = "TIMER_FAILED"
	ErrSubmitFailed   ErrCode = "SUBMIT_FAILED"
	ErrPracticeFailed ErrCode = "PRACTICE_FAILED"

	// ─── Results ───────────────────────────────────────────────────────
	ErrResultFailed  ErrCode = "RESULT_FAILED"
	ErrHistoryFailed ErrCode = "HISTORY_FAILED"

	// ─── HTTP surface ──────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"
	ErrUnavailable       ErrCode = "SERVICE_UNAVAILABLE"
)

// GetMessage returns the default message for codes raised without a
// domain error.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidRequest:
		return "Invalid request"
	case ErrInvalidMessage:
		return "Invalid message"
	case ErrUnknownAction:
		return "Action not supported"
	case ErrHandler:
		return "Internal server error"
	case ErrUnauthorized:
		return "Session not found"
	case ErrForbidden:
		return "Forbidden"
	case ErrRateLimitExceeded:
		return "Too many requests, try again later"
	case ErrUnavailable:
		return "Service unavailable"
	default:
		return "Request failed"
	}
}
