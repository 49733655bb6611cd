package model

import "encoding/json"

// PassScore is the lowest score counted as a pass.
const PassScore = 5.0

// ParticipantResult is one sealed exam in a room's results.
type ParticipantResult struct {
	UserID      int64   `json:"user_id"`
	Username    string  `json:"username"`
	FullName    string  `json:"full_name"`
	Score       float64 `json:"score"`
	Correct     int     `json:"correct"`
	Total       int     `json:"total"`
	SubmittedAt int64   `json:"submitted_at"`
}

// RoomStatistics summarises the scores of a room.
type RoomStatistics struct {
	AverageScore float64 `json:"average_score"`
	HighestScore float64 `json:"highest_score"`
	LowestScore  float64 `json:"lowest_score"`
	PassRate     float64 `json:"pass_rate"`
}

// RoomResults is the result board of a room.
type RoomResults struct {
	Participants []ParticipantResult `json:"participants"`
	Statistics   RoomStatistics      `json:"statistics"`
}

// ExamHistoryItem is a sealed exam in a user's history.
type ExamHistoryItem struct {
	ExamID      int64   `json:"exam_id"`
	RoomID      int64   `json:"room_id"`
	RoomName    string  `json:"room_name"`
	Score       float64 `json:"score"`
	Correct     int     `json:"correct"`
	Total       int     `json:"total"`
	SubmittedAt int64   `json:"submitted_at"`
}

// PracticeHistoryItem is a submitted practice run in a user's history.
type PracticeHistoryItem struct {
	PracticeID  int64           `json:"practice_id"`
	Score       float64         `json:"score"`
	Correct     int             `json:"correct"`
	Total       int             `json:"total"`
	SubmittedAt int64           `json:"submitted_at"`
	Settings    json.RawMessage `json:"settings"`
}

// UserHistory is every graded attempt of a user.
type UserHistory struct {
	Exams        []ExamHistoryItem     `json:"exams"`
	Practices    []PracticeHistoryItem `json:"practices"`
	AverageScore float64               `json:"average_score"`
}
