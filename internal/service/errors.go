package service

import "errors"

// Session directory errors.
var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrUserNotFound       = errors.New("User not found")
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrSessionNotFound    = errors.New("Session not found")
	ErrSessionExpired     = errors.New("Session expired")
	ErrInvalidRole        = errors.New("invalid role")
)

// Room errors.
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomDetailsMissing = errors.New("Room not found")
	ErrRoomNotJoinable    = errors.New("room has finished or invalid status")
	ErrWrongRoomPassword  = errors.New("wrong room password")
	ErrCannotStartRoom    = errors.New("Cannot start (not creator or not waiting)")
	ErrNotCreatorFinish   = errors.New("only room creator can finish this room")
	ErrRoomNotInProgress  = errors.New("can only finish rooms that are in progress")
	ErrNotCreatorDelete   = errors.New("only room creator can delete this room")
	ErrRoomInProgress     = errors.New("cannot delete room that is in progress")
	ErrRoomNameRequired   = errors.New("room name is required")
	ErrInvalidDuration    = errors.New("duration must be positive")
	ErrInvalidQuota       = errors.New("question counts must not be negative")
)

// Exam and practice errors.
var (
	ErrRoomNotStarted         = errors.New("room not started yet")
	ErrNotJoined              = errors.New("not joined this room")
	ErrPaperAlreadyRetrieved  = errors.New("You have already retrieved the exam paper. Cannot get it twice.")
	ErrNoQuestions            = errors.New("no questions")
	ErrNotExamOwner           = errors.New("exam not owned by user")
	ErrExamAlreadySubmitted   = errors.New("Exam already submitted")
	ErrExamSealedConcurrently = errors.New("Exam already submitted or not found")
	ErrInvalidExamID          = errors.New("invalid exam_id")
	ErrTimerExamNotFound      = errors.New("exam not found")
	ErrPracticeNotFound       = errors.New("practice run not found")
)

var domainErrors = []error{
	ErrUsernameTaken, ErrUserNotFound, ErrInvalidCredentials, ErrSessionNotFound, ErrSessionExpired, ErrInvalidRole,
	ErrRoomNotFound, ErrRoomDetailsMissing, ErrRoomNotJoinable, ErrWrongRoomPassword, ErrCannotStartRoom,
	ErrNotCreatorFinish, ErrRoomNotInProgress, ErrNotCreatorDelete, ErrRoomInProgress,
	ErrRoomNameRequired, ErrInvalidDuration, ErrInvalidQuota,
	ErrRoomNotStarted, ErrNotJoined, ErrPaperAlreadyRetrieved, ErrNoQuestions, ErrNotExamOwner,
	ErrExamAlreadySubmitted, ErrExamSealedConcurrently, ErrInvalidExamID,
	ErrTimerExamNotFound, ErrPracticeNotFound,
}

// IsDomainError reports whether err is an expected business outcome rather
// than an infrastructure failure.
func IsDomainError(err error) bool {
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return true
		}
	}
	return false
}
