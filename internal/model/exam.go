package model

import "encoding/json"

// Exam is one student's attempt at a room. It is sealed once SubmittedAt is
// set and never changes afterwards.
type Exam struct {
	ID             int64   `json:"exam_id"`
	RoomID         int64   `json:"room_id"`
	UserID         int64   `json:"user_id"`
	StartAt        int64   `json:"start_time"`
	EndAt          int64   `json:"end_time"`
	SubmittedAt    *int64  `json:"submitted_at"`
	CorrectCount   int     `json:"correct_answers"`
	TotalQuestions int     `json:"total_questions"`
	Score          float64 `json:"score"`
}

// Sealed reports whether the exam has been graded.
func (e *Exam) Sealed() bool {
	return e.SubmittedAt != nil
}

// Answer is a stored selection for one question of an exam.
type Answer struct {
	QuestionID     int64  `json:"question_id"`
	SelectedOption string `json:"selected_option"`
}

// ExamPaper is what a student receives once per exam.
type ExamPaper struct {
	ExamID    int64      `json:"exam_id"`
	RoomID    int64      `json:"room_id"`
	StartTime int64      `json:"start_time"`
	EndTime   int64      `json:"end_time"`
	Questions []Question `json:"questions"`
}

// Grade is the outcome of grading an exam or practice run.
type Grade struct {
	Correct int     `json:"correct_answers"`
	Total   int     `json:"total_questions"`
	Score   float64 `json:"score"`
}

// NewGrade scores correct out of total on a 0..10 scale.
func NewGrade(correct, total int) Grade {
	g := Grade{Correct: correct, Total: total}
	if total > 0 {
		g.Score = float64(correct) * 10.0 / float64(total)
	}
	return g
}

// TimerStatus is the remaining time of an exam as seen by the server.
type TimerStatus struct {
	StartedAt    int64 `json:"started_at"`
	DurationSec  int64 `json:"duration_sec"`
	RemainingSec int64 `json:"remaining_sec"`
	ServerTime   int64 `json:"server_time"`
}

// ExamEvent is published when an exam is sealed.
type ExamEvent struct {
	ExamID  int64   `json:"exam_id"`
	RoomID  int64   `json:"room_id"`
	UserID  int64   `json:"user_id"`
	Correct int     `json:"correct_answers"`
	Total   int     `json:"total_questions"`
	Score   float64 `json:"score"`
	At      int64   `json:"at"`
}

// RoomEvent is published on room lifecycle changes.
type RoomEvent struct {
	RoomID int64      `json:"room_id"`
	UserID int64      `json:"user_id"`
	Status RoomStatus `json:"status"`
	At     int64      `json:"at"`
}

// PracticeSettings is persisted with a practice run.
type PracticeSettings struct {
	QuestionCount int      `json:"question_count"`
	DurationSec   int64    `json:"duration_sec"`
	Difficulties  []string `json:"difficulties"`
	Topics        []string `json:"topics"`
}

// PracticeRun is an on-demand quiz outside any room.
type PracticeRun struct {
	ID             int64           `json:"practice_id"`
	UserID         int64           `json:"user_id"`
	StartAt        int64           `json:"start_time"`
	EndAt          int64           `json:"end_time"`
	SubmittedAt    *int64          `json:"submitted_at"`
	TotalQuestions int             `json:"total_questions"`
	CorrectCount   int             `json:"correct_answers"`
	Score          float64         `json:"score"`
	Settings       json.RawMessage `json:"settings"`
}

// PracticePaper is returned when a practice run starts.
type PracticePaper struct {
	PracticeID int64      `json:"practice_id"`
	StartTime  int64      `json:"start_time"`
	EndTime    int64      `json:"end_time"`
	Questions  []Question `json:"questions"`
}
