package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stemsi/quizroom/internal/model"
	"github.com/stemsi/quizroom/internal/repository"
)

// ResultService reports room result boards and user histories.
type ResultService struct {
	lock    *StoreLock
	rooms   *repository.RoomRepository
	results *repository.ResultRepository
}

// NewResultService creates a new ResultService.
func NewResultService(lock *StoreLock, rooms *repository.RoomRepository, results *repository.ResultRepository) *ResultService {
	return &ResultService{lock: lock, rooms: rooms, results: results}
}

// RoomResults returns the sealed exams of a room with score statistics.
func (s *ResultService) RoomResults(ctx context.Context, roomID int64) (*model.RoomResults, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("get room: %w", err)
	}

	participants, err := s.results.RoomResults(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	return &model.RoomResults{
		Participants: participants,
		Statistics:   roomStatistics(participants),
	}, nil
}

// UserHistory returns the graded exams and practice runs of a user.
func (s *ResultService) UserHistory(ctx context.Context, userID int64) (*model.UserHistory, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	exams, err := s.results.ExamHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list exam history: %w", err)
	}
	practices, err := s.results.PracticeHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list practice history: %w", err)
	}

	var sum float64
	for _, e := range exams {
		sum += e.Score
	}
	for _, p := range practices {
		sum += p.Score
	}

	h := &model.UserHistory{Exams: exams, Practices: practices}
	if n := len(exams) + len(practices); n > 0 {
		h.AverageScore = sum / float64(n)
	}
	return h, nil
}

func roomStatistics(results []model.ParticipantResult) model.RoomStatistics {
	var st model.RoomStatistics
	if len(results) == 0 {
		return st
	}

	st.HighestScore = results[0].Score
	st.LowestScore = results[0].Score
	var sum float64
	passed := 0
	for _, r := range results {
		sum += r.Score
		if r.Score > st.HighestScore {
			st.HighestScore = r.Score
		}
		if r.Score < st.LowestScore {
			st.LowestScore = r.Score
		}
		if r.Score >= model.PassScore {
			passed++
		}
	}
	st.AverageScore = sum / float64(len(results))
	st.PassRate = float64(passed) * 100 / float64(len(results))
	return st
}
