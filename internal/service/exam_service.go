package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/config"
	"github.com/stemsi/quizroom/internal/database"
	"github.com/stemsi/quizroom/internal/events"
	"github.com/stemsi/quizroom/internal/metrics"
	"github.com/stemsi/quizroom/internal/model"
	"github.com/stemsi/quizroom/internal/repository"
)

// SweepResult counts the outcome of one expiry sweep.
type SweepResult struct {
	Sealed int
	Failed int
}

// ExamService hands out exam papers, stores answers and grades exams.
type ExamService struct {
	db        *database.DB
	lock      *StoreLock
	rooms     *repository.RoomRepository
	exams     *repository.ExamRepository
	questions *repository.QuestionRepository
	pub       events.Publisher
	now       Clock
	log       zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	db *database.DB,
	lock *StoreLock,
	rooms *repository.RoomRepository,
	exams *repository.ExamRepository,
	questions *repository.QuestionRepository,
	pub events.Publisher,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		db:        db,
		lock:      lock,
		rooms:     rooms,
		exams:     exams,
		questions: questions,
		pub:       pub,
		now:       time.Now,
		log:       log.With().Str("component", "exam_service").Logger(),
	}
}

// SetClock replaces the time source.
func (s *ExamService) SetClock(c Clock) { s.now = c }

// GetExamPaper assigns and returns the paper of userID in a running room.
// A paper is handed out at most once per exam.
func (s *ExamService) GetExamPaper(ctx context.Context, roomID, userID int64) (*model.ExamPaper, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	room, err := s.rooms.GetByID(ctx, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	if room.Status != model.RoomStatusInProgress {
		return nil, ErrRoomNotStarted
	}

	joined, err := s.rooms.IsParticipant(ctx, roomID, userID)
	if err != nil {
		return nil, fmt.Errorf("check participant: %w", err)
	}
	if !joined {
		return nil, ErrNotJoined
	}

	now := s.now().Unix()
	if err := s.exams.Ensure(ctx, roomID, userID, now, now+room.DurationSec); err != nil {
		return nil, fmt.Errorf("ensure exam: %w", err)
	}

	var paper *model.ExamPaper
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		exams := s.exams.WithTx(tx)

		exam, err := exams.GetByRoomAndUser(ctx, roomID, userID, true)
		if err != nil {
			return fmt.Errorf("get exam: %w", err)
		}
		if exam.Sealed() {
			return ErrExamAlreadySubmitted
		}

		assigned, err := exams.HasAssignment(ctx, exam.ID)
		if err != nil {
			return fmt.Errorf("check assignment: %w", err)
		}
		if assigned {
			return ErrPaperAlreadyRetrieved
		}

		picked, err := pickQuestions(ctx, s.questions.WithTx(tx), roomQuota(room))
		if err != nil {
			return err
		}
		if len(picked) == 0 {
			return ErrNoQuestions
		}

		ids := make([]int64, len(picked))
		for i, q := range picked {
			ids[i] = q.ID
		}
		if err := exams.Assign(ctx, exam.ID, ids); err != nil {
			return fmt.Errorf("assign questions: %w", err)
		}

		paper = &model.ExamPaper{
			ExamID:    exam.ID,
			RoomID:    roomID,
			StartTime: exam.StartAt,
			EndTime:   exam.EndAt,
			Questions: picked,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("exam_id", paper.ExamID).
		Int64("user_id", userID).
		Int("questions", len(paper.Questions)).
		Msg("Exam paper assigned")
	return paper, nil
}

// SubmitAnswers saves a batch of selections on an unsealed exam owned by
// userID. It returns the number saved.
func (s *ExamService) SubmitAnswers(ctx context.Context, examID, userID int64, answers []model.Answer) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	exam, err := s.ownedExam(ctx, examID, userID)
	if err != nil {
		return 0, err
	}
	if exam.Sealed() {
		return 0, ErrExamAlreadySubmitted
	}

	now := s.now().Unix()
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		return saveAnswers(ctx, s.exams.WithTx(tx), examID, answers, now)
	})
	if err != nil {
		return 0, err
	}
	return len(answers), nil
}

// SubmitExam saves the final selections, grades and seals the exam. An exam
// is graded exactly once.
func (s *ExamService) SubmitExam(ctx context.Context, examID, userID int64, answers []model.Answer) (*model.Grade, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	exam, err := s.ownedExam(ctx, examID, userID)
	if err != nil {
		return nil, err
	}
	if exam.Sealed() {
		return nil, ErrExamAlreadySubmitted
	}

	now := s.now().Unix()
	var grade model.Grade
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		exams := s.exams.WithTx(tx)
		if err := saveAnswers(ctx, exams, examID, answers, now); err != nil {
			return err
		}
		g, err := gradeExam(ctx, exams, examID)
		if err != nil {
			return err
		}
		sealed, err := exams.Seal(ctx, examID, g, now)
		if err != nil {
			return fmt.Errorf("seal exam: %w", err)
		}
		if !sealed {
			return ErrExamSealedConcurrently
		}
		grade = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ExamsSealed(metrics.SourceSubmit, 1)
	s.log.Info().
		Int64("exam_id", examID).
		Int64("user_id", userID).
		Int("correct", grade.Correct).
		Int("total", grade.Total).
		Float64("score", grade.Score).
		Msg("Exam submitted")
	publish(ctx, s.pub, s.log, config.Subject.ExamSubmitted, examEvent(exam, grade, now))
	return &grade, nil
}

// TimerStatus reports the time left on an exam. The remainder goes negative
// once the exam is overdue.
func (s *ExamService) TimerStatus(ctx context.Context, examID int64) (*model.TimerStatus, error) {
	if examID <= 0 {
		return nil, ErrInvalidExamID
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	exam, err := s.exams.GetByID(ctx, examID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTimerExamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}

	now := s.now().Unix()
	duration := exam.EndAt - exam.StartAt
	elapsed := now - exam.StartAt
	if elapsed < 0 {
		elapsed = 0
	}
	return &model.TimerStatus{
		StartedAt:    exam.StartAt,
		DurationSec:  duration,
		RemainingSec: duration - elapsed,
		ServerTime:   now,
	}, nil
}

// ExpireOverdue grades and seals every unsealed exam past its end time from
// the answers saved so far. Failures are counted and skipped.
func (s *ExamService) ExpireOverdue(ctx context.Context) (SweepResult, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	now := s.now().Unix()
	overdue, err := s.exams.ListOverdue(ctx, now)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list overdue exams: %w", err)
	}

	var res SweepResult
	for i := range overdue {
		exam := &overdue[i]
		var grade model.Grade
		var sealed bool
		err := s.db.WithTx(ctx, func(tx *database.Tx) error {
			exams := s.exams.WithTx(tx)
			g, err := gradeExam(ctx, exams, exam.ID)
			if err != nil {
				return err
			}
			grade = g
			sealed, err = exams.Seal(ctx, exam.ID, g, now)
			return err
		})
		if err != nil {
			res.Failed++
			s.log.Error().Err(err).Int64("exam_id", exam.ID).Msg("Failed to seal overdue exam")
			continue
		}
		if !sealed {
			continue
		}
		res.Sealed++
		publish(ctx, s.pub, s.log, config.Subject.ExamExpired, examEvent(exam, grade, now))
	}
	return res, nil
}

// ownedExam must be called with the store lock held. A missing exam is
// reported as not owned.
func (s *ExamService) ownedExam(ctx context.Context, examID, userID int64) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotExamOwner
	}
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if exam.UserID != userID {
		return nil, ErrNotExamOwner
	}
	return exam, nil
}

func saveAnswers(ctx context.Context, exams *repository.ExamRepository, examID int64, answers []model.Answer, now int64) error {
	for _, a := range answers {
		if err := exams.SaveAnswer(ctx, examID, a.QuestionID, a.SelectedOption, now); err != nil {
			return fmt.Errorf("save answer: %w", err)
		}
	}
	return nil
}

// gradeExam counts matches against the assigned questions when the exam has
// an assignment, otherwise against every stored answer.
func gradeExam(ctx context.Context, exams *repository.ExamRepository, examID int64) (model.Grade, error) {
	assigned, err := exams.AssignedCount(ctx, examID)
	if err != nil {
		return model.Grade{}, fmt.Errorf("count assigned: %w", err)
	}
	correct, err := exams.CountCorrect(ctx, examID, assigned > 0)
	if err != nil {
		return model.Grade{}, fmt.Errorf("count correct: %w", err)
	}
	total := assigned
	if total == 0 {
		if total, err = exams.CountAnswers(ctx, examID); err != nil {
			return model.Grade{}, fmt.Errorf("count answers: %w", err)
		}
	}
	return model.NewGrade(correct, total), nil
}

func examEvent(e *model.Exam, g model.Grade, at int64) model.ExamEvent {
	return model.ExamEvent{
		ExamID:  e.ID,
		RoomID:  e.RoomID,
		UserID:  e.UserID,
		Correct: g.Correct,
		Total:   g.Total,
		Score:   g.Score,
		At:      at,
	}
}
