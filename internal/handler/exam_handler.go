package handler

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/model"
	"github.com/stemsi/quizroom/internal/protocol"
	"github.com/stemsi/quizroom/internal/response"
	"github.com/stemsi/quizroom/internal/service"
)

// ExamHandler handles exam papers, answers and timers.
type ExamHandler struct {
	examService *service.ExamService
	log         zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{examService: examService, log: log}
}

// Paper handles GET_EXAM_PAPER.
func (h *ExamHandler) Paper(ctx context.Context, sess *model.Session, r *protocol.GetExamPaperRequest) protocol.Message {
	paper, err := h.examService.GetExamPaper(ctx, r.RoomID, sess.UserID)
	if err != nil {
		return fail(h.log, response.ErrExamFailed, err)
	}
	return response.Success(paper)
}

// Timer handles GET_TIMER_STATUS.
func (h *ExamHandler) Timer(ctx context.Context, r *protocol.GetTimerStatusRequest) protocol.Message {
	status, err := h.examService.TimerStatus(ctx, r.ExamID)
	if err != nil {
		return fail(h.log, response.ErrTimerFailed, err)
	}
	return response.Success(status)
}

// SubmitAnswers handles SUBMIT_ANSWER.
func (h *ExamHandler) SubmitAnswers(ctx context.Context, sess *model.Session, r *protocol.SubmitAnswerRequest) protocol.Message {
	saved, err := h.examService.SubmitAnswers(ctx, r.ExamID, sess.UserID, toAnswers(r.Usable()))
	if err != nil {
		return fail(h.log, submitCode(err), err)
	}
	return response.Success(map[string]any{"saved_count": saved})
}

// Submit handles SUBMIT_EXAM.
func (h *ExamHandler) Submit(ctx context.Context, sess *model.Session, r *protocol.SubmitExamRequest) protocol.Message {
	grade, err := h.examService.SubmitExam(ctx, r.ExamID, sess.UserID, toAnswers(r.Usable()))
	if err != nil {
		return fail(h.log, submitCode(err), err)
	}
	return response.Success(map[string]any{
		"exam_id":         r.ExamID,
		"correct_answers": grade.Correct,
		"total_questions": grade.Total,
		"score":           grade.Score,
	})
}

func submitCode(err error) response.ErrCode {
	if errors.Is(err, service.ErrNotExamOwner) {
		return response.ErrForbidden
	}
	return response.ErrSubmitFailed
}
