package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stemsi/quizroom/internal/validator"
)

// ErrUnknownAction is returned by ParseRequest for actions outside the catalog.
var ErrUnknownAction = errors.New("unknown action")

// Request is the closed set of actions a client may send. Only types in this
// package implement it.
type Request interface {
	Action() Action
	isRequest()
}

// Authenticated reports whether a request needs a valid session. Logout only
// needs a token, which may already be expired.
func Authenticated(r Request) bool {
	switch r.(type) {
	case *EchoRequest, *RegisterRequest, *LoginRequest, *LogoutRequest:
		return false
	}
	return true
}

// ─── Account ────────────────────────────────────────────────────────

type EchoRequest struct {
	Data json.RawMessage `json:"-"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LogoutRequest carries the token from the message or from data.session_id.
type LogoutRequest struct {
	Token string `json:"session_id" validate:"required"`
}

// ─── Rooms ──────────────────────────────────────────────────────────

type DifficultyDistribution struct {
	Easy   *int `json:"easy" validate:"omitempty,gte=0"`
	Medium *int `json:"medium" validate:"omitempty,gte=0"`
	Hard   *int `json:"hard" validate:"omitempty,gte=0"`
}

type QuestionSettings struct {
	TotalQuestions         *int                   `json:"total_questions" validate:"omitempty,gte=0"`
	DifficultyDistribution DifficultyDistribution `json:"difficulty_distribution"`
}

// Quota returns the requested paper size and per-difficulty counts with
// defaults applied.
func (s QuestionSettings) Quota() (total, easy, medium, hard int) {
	return intOr(s.TotalQuestions, 10),
		intOr(s.DifficultyDistribution.Easy, 3),
		intOr(s.DifficultyDistribution.Medium, 4),
		intOr(s.DifficultyDistribution.Hard, 3)
}

type CreateRoomRequest struct {
	RoomName         string            `json:"room_name" validate:"required"`
	Description      string            `json:"description"`
	RoomPass         string            `json:"room_pass"`
	DurationMinutes  *int              `json:"duration_minutes" validate:"required,gt=0"`
	QuestionSettings *QuestionSettings `json:"question_settings" validate:"required"`
}

type ListRoomsFilter struct {
	Status *string `json:"status" validate:"omitempty,oneof=WAITING IN_PROGRESS FINISHED"`
}

type ListRoomsRequest struct {
	Filter ListRoomsFilter `json:"filter"`
}

type JoinRoomRequest struct {
	RoomID   int64  `json:"room_id" validate:"required,gt=0"`
	RoomPass string `json:"room_pass"`
}

type StartExamRequest struct {
	RoomID int64 `json:"room_id" validate:"required,gt=0"`
}

type GetRoomDetailsRequest struct {
	RoomID int64 `json:"room_id" validate:"required,gt=0"`
}

type DeleteRoomRequest struct {
	RoomID int64 `json:"room_id" validate:"required,gt=0"`
}

type FinishRoomRequest struct {
	RoomID int64 `json:"room_id" validate:"required,gt=0"`
}

// ─── Exams ──────────────────────────────────────────────────────────

// AnswerInput is one selection inside an answers batch.
type AnswerInput struct {
	QuestionID     int64  `json:"question_id"`
	SelectedOption string `json:"selected_option"`
}

// usableAnswers drops entries without a question id or a selection.
func usableAnswers(in []AnswerInput) []AnswerInput {
	out := make([]AnswerInput, 0, len(in))
	for _, a := range in {
		if a.QuestionID > 0 && a.SelectedOption != "" {
			out = append(out, a)
		}
	}
	return out
}

type GetExamPaperRequest struct {
	RoomID int64 `json:"room_id" validate:"required,gt=0"`
}

type GetTimerStatusRequest struct {
	ExamID int64 `json:"exam_id" validate:"required,gt=0"`
}

type SubmitAnswerRequest struct {
	ExamID  int64         `json:"exam_id" validate:"required,gt=0"`
	Answers []AnswerInput `json:"answers" validate:"required"`
}

// Usable returns the answers worth saving.
func (r *SubmitAnswerRequest) Usable() []AnswerInput { return usableAnswers(r.Answers) }

type SubmitExamRequest struct {
	ExamID       int64         `json:"exam_id" validate:"required,gt=0"`
	FinalAnswers []AnswerInput `json:"final_answers" validate:"required"`
}

// Usable returns the answers worth saving.
func (r *SubmitExamRequest) Usable() []AnswerInput { return usableAnswers(r.FinalAnswers) }

type GetRoomResultsRequest struct {
	RoomID int64 `json:"room_id" validate:"required,gt=0"`
}

type GetUserHistoryRequest struct {
	UserID *int64 `json:"user_id" validate:"omitempty,gt=0"`
}

// ─── Practice ───────────────────────────────────────────────────────

type StartPracticeRequest struct {
	QuestionCount    *int     `json:"question_count" validate:"omitempty,gt=0"`
	DurationMinutes  *int     `json:"duration_minutes" validate:"omitempty,gt=0"`
	DifficultyFilter []string `json:"difficulty_filter" validate:"dive,oneof=EASY MEDIUM HARD"`
	TopicFilter      []string `json:"topic_filter" validate:"dive,required"`
}

// Count returns the requested number of questions, 10 by default.
func (r *StartPracticeRequest) Count() int { return intOr(r.QuestionCount, 10) }

// DurationSeconds returns the practice window, 30 minutes by default.
func (r *StartPracticeRequest) DurationSeconds() int64 {
	return int64(intOr(r.DurationMinutes, 30)) * 60
}

type SubmitPracticeRequest struct {
	PracticeID   int64         `json:"practice_id" validate:"required,gt=0"`
	FinalAnswers []AnswerInput `json:"final_answers" validate:"required"`
}

// Usable returns the answers worth grading.
func (r *SubmitPracticeRequest) Usable() []AnswerInput { return usableAnswers(r.FinalAnswers) }

// ─── Variant markers ────────────────────────────────────────────────

func (*EchoRequest) Action() Action           { return ActionEcho }
func (*RegisterRequest) Action() Action       { return ActionRegister }
func (*LoginRequest) Action() Action          { return ActionLogin }
func (*LogoutRequest) Action() Action         { return ActionLogout }
func (*CreateRoomRequest) Action() Action     { return ActionCreateRoom }
func (*ListRoomsRequest) Action() Action      { return ActionListRooms }
func (*JoinRoomRequest) Action() Action       { return ActionJoinRoom }
func (*StartExamRequest) Action() Action      { return ActionStartExam }
func (*GetExamPaperRequest) Action() Action   { return ActionGetExamPaper }
func (*GetTimerStatusRequest) Action() Action { return ActionGetTimerStatus }
func (*SubmitAnswerRequest) Action() Action   { return ActionSubmitAnswer }
func (*SubmitExamRequest) Action() Action     { return ActionSubmitExam }
func (*StartPracticeRequest) Action() Action  { return ActionStartPractice }
func (*SubmitPracticeRequest) Action() Action { return ActionSubmitPractice }
func (*GetRoomResultsRequest) Action() Action { return ActionGetRoomResults }
func (*GetRoomDetailsRequest) Action() Action { return ActionGetRoomDetails }
func (*DeleteRoomRequest) Action() Action     { return ActionDeleteRoom }
func (*FinishRoomRequest) Action() Action     { return ActionFinishRoom }
func (*GetUserHistoryRequest) Action() Action { return ActionGetUserHistory }

func (*EchoRequest) isRequest()           {}
func (*RegisterRequest) isRequest()       {}
func (*LoginRequest) isRequest()          {}
func (*LogoutRequest) isRequest()         {}
func (*CreateRoomRequest) isRequest()     {}
func (*ListRoomsRequest) isRequest()      {}
func (*JoinRoomRequest) isRequest()       {}
func (*StartExamRequest) isRequest()      {}
func (*GetExamPaperRequest) isRequest()   {}
func (*GetTimerStatusRequest) isRequest() {}
func (*SubmitAnswerRequest) isRequest()   {}
func (*SubmitExamRequest) isRequest()     {}
func (*StartPracticeRequest) isRequest()  {}
func (*SubmitPracticeRequest) isRequest() {}
func (*GetRoomResultsRequest) isRequest() {}
func (*GetRoomDetailsRequest) isRequest() {}
func (*DeleteRoomRequest) isRequest()     {}
func (*FinishRoomRequest) isRequest()     {}
func (*GetUserHistoryRequest) isRequest() {}

// ParseRequest resolves the message action to its request variant and
// decodes and validates the data object. Unknown actions yield
// ErrUnknownAction; bad data yields validator.FieldErrors.
func ParseRequest(msg Message) (Request, error) {
	req, err := RequestFor(msg.Action)
	if err != nil {
		return nil, err
	}
	if err := DecodeRequest(msg, req); err != nil {
		return nil, err
	}
	return req, nil
}

// RequestFor returns the empty request variant of action, or
// ErrUnknownAction.
func RequestFor(action string) (Request, error) {
	switch Action(action) {
	case ActionEcho:
		return &EchoRequest{}, nil
	case ActionRegister:
		return &RegisterRequest{}, nil
	case ActionLogin:
		return &LoginRequest{}, nil
	case ActionLogout:
		return &LogoutRequest{}, nil
	case ActionCreateRoom:
		return &CreateRoomRequest{}, nil
	case ActionListRooms:
		return &ListRoomsRequest{}, nil
	case ActionJoinRoom:
		return &JoinRoomRequest{}, nil
	case ActionStartExam:
		return &StartExamRequest{}, nil
	case ActionGetExamPaper:
		return &GetExamPaperRequest{}, nil
	case ActionGetTimerStatus:
		return &GetTimerStatusRequest{}, nil
	case ActionSubmitAnswer:
		return &SubmitAnswerRequest{}, nil
	case ActionSubmitExam:
		return &SubmitExamRequest{}, nil
	case ActionStartPractice:
		return &StartPracticeRequest{}, nil
	case ActionSubmitPractice:
		return &SubmitPracticeRequest{}, nil
	case ActionGetRoomResults:
		return &GetRoomResultsRequest{}, nil
	case ActionGetRoomDetails:
		return &GetRoomDetailsRequest{}, nil
	case ActionDeleteRoom:
		return &DeleteRoomRequest{}, nil
	case ActionFinishRoom:
		return &FinishRoomRequest{}, nil
	case ActionGetUserHistory:
		return &GetUserHistoryRequest{}, nil
	}
	return nil, ErrUnknownAction
}

// DecodeRequest fills req from the data object of msg and validates it.
func DecodeRequest(msg Message, req Request) error {
	if echo, ok := req.(*EchoRequest); ok {
		echo.Data = msg.DataObject()
		return nil
	}

	if err := decodeData(msg.DataObject(), req); err != nil {
		return err
	}

	// The message-level session token wins over data.session_id.
	if logout, ok := req.(*LogoutRequest); ok && msg.SessionID != "" {
		logout.Token = msg.SessionID
	}

	return validator.Struct(req)
}

func decodeData(data json.RawMessage, dst Request) error {
	if err := json.Unmarshal(data, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field := typeErr.Field
			if field == "" {
				field = "data"
			}
			return validator.FieldErrors{
				field: fmt.Sprintf("%s must be %s", field, describeKind(typeErr.Type.Kind().String())),
			}
		}
		return validator.FieldErrors{"data": err.Error()}
	}
	return nil
}

func describeKind(kind string) string {
	switch {
	case strings.HasPrefix(kind, "int"), strings.HasPrefix(kind, "uint"), strings.HasPrefix(kind, "float"):
		return "a number"
	case kind == "string":
		return "a string"
	case kind == "slice":
		return "an array"
	case kind == "struct", kind == "map":
		return "an object"
	case kind == "bool":
		return "a boolean"
	}
	return "a " + kind
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
