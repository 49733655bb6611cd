package model

import "encoding/json"

// Difficulty enumerates question difficulty levels.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Difficulties lists the levels in paper order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d is a known level.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Question is a bank entry. Options is stored as JSON text and handed to
// clients unchanged.
type Question struct {
	ID            int64           `json:"question_id"`
	Text          string          `json:"question_text"`
	Options       json.RawMessage `json:"options"`
	CorrectOption string          `json:"-"`
	Difficulty    Difficulty      `json:"difficulty"`
	Topic         string          `json:"topic"`
	CreatedAt     int64           `json:"-"`
}
