package repository

import (
	"context"

	"github.com/stemsi/quizroom/internal/database"
	"github.com/stemsi/quizroom/internal/model"
)

// ResultRepository reads graded exams and practice runs.
type ResultRepository struct {
	db database.Querier
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(db database.Querier) *ResultRepository {
	return &ResultRepository{db: db}
}

// RoomResults lists the sealed exams of a room, best score first.
func (r *ResultRepository) RoomResults(ctx context.Context, roomID int64) ([]model.ParticipantResult, error) {
	rows, err := r.db.Query(ctx,
		`SELECT e.user_id, COALESCE(u.username, ''), COALESCE(u.full_name, ''),
		        e.score, e.correct_count, e.total_questions, e.submitted_at
		 FROM exams e
		 LEFT JOIN users u ON u.id = e.user_id
		 WHERE e.room_id = ? AND e.submitted_at IS NOT NULL
		 ORDER BY e.score DESC, e.submitted_at ASC`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []model.ParticipantResult{}
	for rows.Next() {
		var p model.ParticipantResult
		if err := rows.Scan(&p.UserID, &p.Username, &p.FullName, &p.Score, &p.Correct, &p.Total, &p.SubmittedAt); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// ExamHistory lists the sealed exams of a user, newest first.
func (r *ResultRepository) ExamHistory(ctx context.Context, userID int64) ([]model.ExamHistoryItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT e.id, e.room_id, COALESCE(r.name, ''), e.score, e.correct_count, e.total_questions, e.submitted_at
		 FROM exams e
		 LEFT JOIN rooms r ON r.id = e.room_id
		 WHERE e.user_id = ? AND e.submitted_at IS NOT NULL
		 ORDER BY e.submitted_at DESC, e.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.ExamHistoryItem{}
	for rows.Next() {
		var it model.ExamHistoryItem
		if err := rows.Scan(&it.ExamID, &it.RoomID, &it.RoomName, &it.Score, &it.Correct, &it.Total, &it.SubmittedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// PracticeHistory lists the submitted practice runs of a user, newest first.
func (r *ResultRepository) PracticeHistory(ctx context.Context, userID int64) ([]model.PracticeHistoryItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, score, correct_count, total_questions, submitted_at, settings_json
		 FROM practice_runs
		 WHERE user_id = ? AND submitted_at IS NOT NULL
		 ORDER BY submitted_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.PracticeHistoryItem{}
	for rows.Next() {
		var it model.PracticeHistoryItem
		var settings string
		if err := rows.Scan(&it.PracticeID, &it.Score, &it.Correct, &it.Total, &it.SubmittedAt, &settings); err != nil {
			return nil, err
		}
		it.Settings = rawJSON(settings)
		items = append(items, it)
	}
	return items, rows.Err()
}
