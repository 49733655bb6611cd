package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/stemsi/quizroom/internal/database"
	"github.com/stemsi/quizroom/internal/model"
)

const questionColumns = `id, text, options_json, correct_option, difficulty, topic, created_at`

// QuestionRepository handles the question bank.
type QuestionRepository struct {
	db database.Querier
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(db database.Querier) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *QuestionRepository) WithTx(tx *database.Tx) *QuestionRepository {
	return &QuestionRepository{db: tx}
}

// Create inserts a question and fills in its ID.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	options := string(q.Options)
	if options == "" {
		options = "[]"
	}
	return r.db.QueryRow(ctx,
		`INSERT INTO questions (text, options_json, correct_option, difficulty, topic, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING id`,
		q.Text, options, q.CorrectOption, q.Difficulty, q.Topic, q.CreatedAt,
	).Scan(&q.ID)
}

// Count returns the size of the bank.
func (r *QuestionRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n)
	return n, err
}

// RandomByDifficulty picks up to limit questions of one level in random order.
func (r *QuestionRepository) RandomByDifficulty(ctx context.Context, d model.Difficulty, limit int) ([]model.Question, error) {
	if limit <= 0 {
		return nil, nil
	}
	return r.list(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE difficulty = ?
		 ORDER BY RANDOM() LIMIT ?`, d, limit)
}

// RandomExcluding picks up to limit questions of any level that are not in
// exclude.
func (r *QuestionRepository) RandomExcluding(ctx context.Context, exclude []int64, limit int) ([]model.Question, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := `SELECT ` + questionColumns + ` FROM questions`
	var args []any
	if len(exclude) > 0 {
		in, inArgs := inClause(exclude)
		query += ` WHERE id NOT IN (` + in + `)`
		args = append(args, inArgs...)
	}
	query += ` ORDER BY RANDOM() LIMIT ?`
	args = append(args, limit)
	return r.list(ctx, query, args...)
}

// RandomFiltered picks up to limit questions whose difficulty is in
// difficulties and topic is in topics. Empty filters match everything.
func (r *QuestionRepository) RandomFiltered(ctx context.Context, difficulties, topics []string, limit int) ([]model.Question, error) {
	if limit <= 0 {
		return nil, nil
	}
	var where []string
	var args []any
	if len(difficulties) > 0 {
		where = append(where, `difficulty IN (`+strings.TrimSuffix(strings.Repeat("?, ", len(difficulties)), ", ")+`)`)
		args = append(args, stringArgs(difficulties)...)
	}
	if len(topics) > 0 {
		where = append(where, `topic IN (`+strings.TrimSuffix(strings.Repeat("?, ", len(topics)), ", ")+`)`)
		args = append(args, stringArgs(topics)...)
	}

	query := `SELECT ` + questionColumns + ` FROM questions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY RANDOM() LIMIT ?`
	args = append(args, limit)
	return r.list(ctx, query, args...)
}

// CorrectOptions maps each known id in ids to its correct option.
func (r *QuestionRepository) CorrectOptions(ctx context.Context, ids []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	in, args := inClause(ids)
	rows, err := r.db.Query(ctx, `SELECT id, correct_option FROM questions WHERE id IN (`+in+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var correct string
		if err := rows.Scan(&id, &correct); err != nil {
			return nil, err
		}
		out[id] = correct
	}
	return out, rows.Err()
}

func (r *QuestionRepository) list(ctx context.Context, query string, args ...any) ([]model.Question, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func scanQuestion(rows *sql.Rows) (model.Question, error) {
	var q model.Question
	var options string
	if err := rows.Scan(&q.ID, &q.Text, &options, &q.CorrectOption, &q.Difficulty, &q.Topic, &q.CreatedAt); err != nil {
		return q, err
	}
	q.Options = rawJSON(options)
	return q, nil
}

// rawJSON returns stored JSON text unchanged, quoting text that is not
// valid JSON so responses always encode.
func rawJSON(stored string) json.RawMessage {
	if json.Valid([]byte(stored)) {
		return json.RawMessage(stored)
	}
	quoted, _ := json.Marshal(stored)
	return quoted
}
