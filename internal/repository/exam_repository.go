package repository

import (
	"context"

	"github.com/stemsi/quizroom/internal/database"
	"github.com/stemsi/quizroom/internal/model"
)

const examColumns = `id, room_id, user_id, start_at, end_at, submitted_at, correct_count, total_questions, score`

// ExamRepository handles exams, their question assignment and answers.
type ExamRepository struct {
	db database.Querier
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(db database.Querier) *ExamRepository {
	return &ExamRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *ExamRepository) WithTx(tx *database.Tx) *ExamRepository {
	return &ExamRepository{db: tx}
}

// Ensure creates the exam of userID in roomID unless it already exists.
func (r *ExamRepository) Ensure(ctx context.Context, roomID, userID, startAt, endAt int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO exams (room_id, user_id, start_at, end_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (room_id, user_id) DO NOTHING`,
		roomID, userID, startAt, endAt)
	return err
}

// GetByRoomAndUser retrieves the exam of a user in a room. With lock set the
// row is locked for the rest of the transaction where the store supports it.
func (r *ExamRepository) GetByRoomAndUser(ctx context.Context, roomID, userID int64, lock bool) (*model.Exam, error) {
	query := `SELECT ` + examColumns + ` FROM exams WHERE room_id = ? AND user_id = ?`
	if lock {
		query += r.db.Dialect().ForUpdate()
	}
	e := &model.Exam{}
	err := r.db.QueryRow(ctx, query, roomID, userID).Scan(
		&e.ID, &e.RoomID, &e.UserID, &e.StartAt, &e.EndAt, &e.SubmittedAt,
		&e.CorrectCount, &e.TotalQuestions, &e.Score)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// GetByID retrieves an exam by ID.
func (r *ExamRepository) GetByID(ctx context.Context, id int64) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.db.QueryRow(ctx, `SELECT `+examColumns+` FROM exams WHERE id = ?`, id).Scan(
		&e.ID, &e.RoomID, &e.UserID, &e.StartAt, &e.EndAt, &e.SubmittedAt,
		&e.CorrectCount, &e.TotalQuestions, &e.Score)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// HasAssignment reports whether questions were already assigned to examID.
func (r *ExamRepository) HasAssignment(ctx context.Context, examID int64) (bool, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM exam_questions WHERE exam_id = ?`, examID).Scan(&n)
	return n > 0, err
}

// Assign stores the ordered question list of an unsealed exam and its size.
// A sealed exam keeps its recorded total.
func (r *ExamRepository) Assign(ctx context.Context, examID int64, questionIDs []int64) error {
	for i, qid := range questionIDs {
		if _, err := r.db.Exec(ctx,
			`INSERT INTO exam_questions (exam_id, question_id, question_order) VALUES (?, ?, ?)`,
			examID, qid, i+1); err != nil {
			return err
		}
	}
	_, err := r.db.Exec(ctx, `UPDATE exams SET total_questions = ? WHERE id = ? AND submitted_at IS NULL`, len(questionIDs), examID)
	return err
}

// AssignedCount returns the number of questions assigned to examID.
func (r *ExamRepository) AssignedCount(ctx context.Context, examID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM exam_questions WHERE exam_id = ?`, examID).Scan(&n)
	return n, err
}

// SaveAnswer upserts one selection; the latest write wins.
func (r *ExamRepository) SaveAnswer(ctx context.Context, examID, questionID int64, option string, now int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO answers (exam_id, question_id, selected_option, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (exam_id, question_id)
		 DO UPDATE SET selected_option = excluded.selected_option, updated_at = excluded.updated_at`,
		examID, questionID, option, now)
	return err
}

// CountCorrect counts stored selections matching the correct option. When
// assignedOnly is set only assigned questions count.
func (r *ExamRepository) CountCorrect(ctx context.Context, examID int64, assignedOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM answers a
		JOIN questions q ON q.id = a.question_id
		WHERE a.exam_id = ? AND a.selected_option = q.correct_option`
	args := []any{examID}
	if assignedOnly {
		query += ` AND a.question_id IN (SELECT question_id FROM exam_questions WHERE exam_id = ?)`
		args = append(args, examID)
	}
	var n int
	err := r.db.QueryRow(ctx, query, args...).Scan(&n)
	return n, err
}

// CountAnswers returns the number of stored selections of an exam.
func (r *ExamRepository) CountAnswers(ctx context.Context, examID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM answers WHERE exam_id = ?`, examID).Scan(&n)
	return n, err
}

// Seal records the grade of an unsealed exam. It reports false when the exam
// was already sealed or does not exist.
func (r *ExamRepository) Seal(ctx context.Context, examID int64, g model.Grade, now int64) (bool, error) {
	res, err := r.db.Exec(ctx,
		`UPDATE exams SET submitted_at = ?, correct_count = ?, total_questions = ?, score = ?
		 WHERE id = ? AND submitted_at IS NULL`,
		now, g.Correct, g.Total, g.Score, examID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListOverdue returns unsealed exams whose end time is before now.
func (r *ExamRepository) ListOverdue(ctx context.Context, now int64) ([]model.Exam, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+examColumns+` FROM exams
		 WHERE end_at < ? AND submitted_at IS NULL
		 ORDER BY end_at ASC`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.RoomID, &e.UserID, &e.StartAt, &e.EndAt, &e.SubmittedAt,
			&e.CorrectCount, &e.TotalQuestions, &e.Score); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}
