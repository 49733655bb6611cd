package repository

import (
	"context"

	"github.com/stemsi/quizroom/internal/database"
	"github.com/stemsi/quizroom/internal/model"
)

// PracticeRepository handles practice runs.
type PracticeRepository struct {
	db database.Querier
}

// NewPracticeRepository creates a new PracticeRepository.
func NewPracticeRepository(db database.Querier) *PracticeRepository {
	return &PracticeRepository{db: db}
}

// Create inserts a practice run and fills in its ID.
func (r *PracticeRepository) Create(ctx context.Context, p *model.PracticeRun) error {
	settings := string(p.Settings)
	if settings == "" {
		settings = "{}"
	}
	return r.db.QueryRow(ctx,
		`INSERT INTO practice_runs (user_id, start_at, end_at, total_questions, settings_json)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING id`,
		p.UserID, p.StartAt, p.EndAt, p.TotalQuestions, settings,
	).Scan(&p.ID)
}

// Submit stores the grade of a practice run owned by userID. It reports
// false when no such run exists.
func (r *PracticeRepository) Submit(ctx context.Context, id, userID int64, g model.Grade, now int64) (bool, error) {
	res, err := r.db.Exec(ctx,
		`UPDATE practice_runs SET submitted_at = ?, total_questions = ?, correct_count = ?, score = ?
		 WHERE id = ? AND user_id = ?`,
		now, g.Total, g.Correct, g.Score, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
