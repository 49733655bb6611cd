package handler

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/model"
	"github.com/stemsi/quizroom/internal/protocol"
	"github.com/stemsi/quizroom/internal/response"
	"github.com/stemsi/quizroom/internal/service"
)

// PracticeHandler handles practice runs.
type PracticeHandler struct {
	practiceService *service.PracticeService
	log             zerolog.Logger
}

// NewPracticeHandler creates a new PracticeHandler.
func NewPracticeHandler(practiceService *service.PracticeService, log zerolog.Logger) *PracticeHandler {
	return &PracticeHandler{practiceService: practiceService, log: log}
}

// Start handles START_PRACTICE.
func (h *PracticeHandler) Start(ctx context.Context, sess *model.Session, r *protocol.StartPracticeRequest) protocol.Message {
	paper, err := h.practiceService.StartPractice(ctx, sess.UserID, service.PracticeInput{
		QuestionCount: r.Count(),
		DurationSec:   r.DurationSeconds(),
		Difficulties:  r.DifficultyFilter,
		Topics:        r.TopicFilter,
	})
	if err != nil {
		return fail(h.log, response.ErrPracticeFailed, err)
	}
	return response.Success(paper)
}

// Submit handles SUBMIT_PRACTICE.
func (h *PracticeHandler) Submit(ctx context.Context, sess *model.Session, r *protocol.SubmitPracticeRequest) protocol.Message {
	grade, err := h.practiceService.SubmitPractice(ctx, r.PracticeID, sess.UserID, toAnswers(r.Usable()))
	if err != nil {
		return fail(h.log, response.ErrSubmitFailed, err)
	}
	return response.Success(map[string]any{
		"practice_id":     r.PracticeID,
		"correct_answers": grade.Correct,
		"total_questions": grade.Total,
		"score":           grade.Score,
	})
}
