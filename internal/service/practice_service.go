package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/model"
	"github.com/stemsi/quizroom/internal/repository"
)

// PracticeInput configures a practice run.
type PracticeInput struct {
	QuestionCount int
	DurationSec   int64
	Difficulties  []string
	Topics        []string
}

// PracticeService runs on-demand quizzes outside rooms.
type PracticeService struct {
	lock      *StoreLock
	practices *repository.PracticeRepository
	questions *repository.QuestionRepository
	now       Clock
	log       zerolog.Logger
}

// NewPracticeService creates a new PracticeService.
func NewPracticeService(
	lock *StoreLock,
	practices *repository.PracticeRepository,
	questions *repository.QuestionRepository,
	log zerolog.Logger,
) *PracticeService {
	return &PracticeService{
		lock:      lock,
		practices: practices,
		questions: questions,
		now:       time.Now,
		log:       log.With().Str("component", "practice_service").Logger(),
	}
}

// SetClock replaces the time source.
func (s *PracticeService) SetClock(c Clock) { s.now = c }

// StartPractice draws random questions matching the filters and opens a run.
func (s *PracticeService) StartPractice(ctx context.Context, userID int64, in PracticeInput) (*model.PracticePaper, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	questions, err := s.questions.RandomFiltered(ctx, in.Difficulties, in.Topics, in.QuestionCount)
	if err != nil {
		return nil, fmt.Errorf("pick questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	settings, err := json.Marshal(model.PracticeSettings{
		QuestionCount: in.QuestionCount,
		DurationSec:   in.DurationSec,
		Difficulties:  nonNil(in.Difficulties),
		Topics:        nonNil(in.Topics),
	})
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}

	now := s.now().Unix()
	run := &model.PracticeRun{
		UserID:         userID,
		StartAt:        now,
		EndAt:          now + in.DurationSec,
		TotalQuestions: len(questions),
		Settings:       settings,
	}
	if err := s.practices.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create practice run: %w", err)
	}

	s.log.Info().
		Int64("practice_id", run.ID).
		Int64("user_id", userID).
		Int("questions", len(questions)).
		Msg("Practice started")

	return &model.PracticePaper{
		PracticeID: run.ID,
		StartTime:  run.StartAt,
		EndTime:    run.EndAt,
		Questions:  questions,
	}, nil
}

// SubmitPractice grades a practice run against the question bank. The total
// is the number of answers given. Resubmitting regrades the run.
func (s *PracticeService) SubmitPractice(ctx context.Context, practiceID, userID int64, answers []model.Answer) (*model.Grade, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	ids := make([]int64, len(answers))
	for i, a := range answers {
		ids[i] = a.QuestionID
	}
	correctOptions, err := s.questions.CorrectOptions(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load correct options: %w", err)
	}

	correct := 0
	for _, a := range answers {
		if right, ok := correctOptions[a.QuestionID]; ok && right == a.SelectedOption {
			correct++
		}
	}
	grade := model.NewGrade(correct, len(answers))

	ok, err := s.practices.Submit(ctx, practiceID, userID, grade, s.now().Unix())
	if err != nil {
		return nil, fmt.Errorf("submit practice: %w", err)
	}
	if !ok {
		return nil, ErrPracticeNotFound
	}

	s.log.Info().
		Int64("practice_id", practiceID).
		Int64("user_id", userID).
		Float64("score", grade.Score).
		Msg("Practice submitted")
	return &grade, nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
