package handler

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/model"
	"github.com/stemsi/quizroom/internal/protocol"
	"github.com/stemsi/quizroom/internal/response"
	"github.com/stemsi/quizroom/internal/service"
)

// Actions routes every request variant to its handler. Requests other than
// ECHO, REGISTER, LOGIN and LOGOUT need a valid session.
type Actions struct {
	auth     *service.AuthService
	Auth     *AuthHandler
	Room     *RoomHandler
	Exam     *ExamHandler
	Practice *PracticeHandler
	Result   *ResultHandler
	log      zerolog.Logger
}

// NewActions wires the action handlers.
func NewActions(
	authService *service.AuthService,
	roomService *service.RoomService,
	examService *service.ExamService,
	practiceService *service.PracticeService,
	resultService *service.ResultService,
	log zerolog.Logger,
) *Actions {
	log = log.With().Str("component", "actions").Logger()
	return &Actions{
		auth:     authService,
		Auth:     NewAuthHandler(authService, log),
		Room:     NewRoomHandler(roomService, log),
		Exam:     NewExamHandler(examService, log),
		Practice: NewPracticeHandler(practiceService, log),
		Result:   NewResultHandler(resultService, log),
		log:      log,
	}
}

type sessionKey struct{}

// Authorize implements server.Authorizer. The validated session rides on the
// returned context.
func (a *Actions) Authorize(ctx context.Context, msg protocol.Message) (context.Context, error) {
	sess, err := a.auth.Validate(ctx, msg.SessionID)
	if err != nil {
		if !service.IsDomainError(err) {
			a.log.Error().Err(err).Msg("Session check failed")
		}
		return ctx, err
	}
	return context.WithValue(ctx, sessionKey{}, sess), nil
}

// Handle implements server.ActionHandler.
func (a *Actions) Handle(ctx context.Context, msg protocol.Message, req protocol.Request) protocol.Message {
	sess, _ := ctx.Value(sessionKey{}).(*model.Session)
	if sess == nil && protocol.Authenticated(req) {
		s, err := a.auth.Validate(ctx, msg.SessionID)
		if err != nil {
			return fail(a.log, response.ErrUnauthorized, err)
		}
		sess = s
	}

	switch r := req.(type) {
	case *protocol.EchoRequest:
		return response.Success(r.Data)
	case *protocol.RegisterRequest:
		return a.Auth.Register(ctx, r)
	case *protocol.LoginRequest:
		return a.Auth.Login(ctx, r)
	case *protocol.LogoutRequest:
		return a.Auth.Logout(ctx, r)
	case *protocol.CreateRoomRequest:
		return a.Room.Create(ctx, sess, r)
	case *protocol.ListRoomsRequest:
		return a.Room.List(ctx, r)
	case *protocol.JoinRoomRequest:
		return a.Room.Join(ctx, sess, r)
	case *protocol.StartExamRequest:
		return a.Room.Start(ctx, sess, r)
	case *protocol.GetRoomDetailsRequest:
		return a.Room.Details(ctx, r)
	case *protocol.DeleteRoomRequest:
		return a.Room.Delete(ctx, sess, r)
	case *protocol.FinishRoomRequest:
		return a.Room.Finish(ctx, sess, r)
	case *protocol.GetExamPaperRequest:
		return a.Exam.Paper(ctx, sess, r)
	case *protocol.GetTimerStatusRequest:
		return a.Exam.Timer(ctx, r)
	case *protocol.SubmitAnswerRequest:
		return a.Exam.SubmitAnswers(ctx, sess, r)
	case *protocol.SubmitExamRequest:
		return a.Exam.Submit(ctx, sess, r)
	case *protocol.StartPracticeRequest:
		return a.Practice.Start(ctx, sess, r)
	case *protocol.SubmitPracticeRequest:
		return a.Practice.Submit(ctx, sess, r)
	case *protocol.GetRoomResultsRequest:
		return a.Result.Room(ctx, r)
	case *protocol.GetUserHistoryRequest:
		return a.Result.History(ctx, sess, r)
	}
	return response.Fail(response.ErrUnknownAction, "")
}

// fail builds an ERROR response carrying err's message. Infrastructure
// failures are logged; business outcomes are not.
func fail(log zerolog.Logger, code response.ErrCode, err error) protocol.Message {
	if !service.IsDomainError(err) {
		log.Error().Err(err).Str("code", string(code)).Msg("Action failed")
	}
	return response.FailErr(code, err)
}

func toAnswers(in []protocol.AnswerInput) []model.Answer {
	out := make([]model.Answer, len(in))
	for i, a := range in {
		out[i] = model.Answer{QuestionID: a.QuestionID, SelectedOption: a.SelectedOption}
	}
	return out
}
