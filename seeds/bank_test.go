package seeds

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoBank(t *testing.T) {
	b, err := Demo()
	require.NoError(t, err)

	assert.Len(t, b.Users, 4)
	require.Len(t, b.Questions, 33)

	counts := map[string]int{}
	for _, q := range b.Questions {
		counts[strings.ToUpper(q.Difficulty)]++
		assert.Contains(t, q.Options, q.Correct)
	}
	assert.Equal(t, map[string]int{"EASY": 12, "MEDIUM": 12, "HARD": 9}, counts)
}

func TestParseReportsEveryProblem(t *testing.T) {
	doc := `
users:
  - username: ghost
questions:
  - text: ""
    options: {A: x, B: y}
    correct: A
    difficulty: EASY
  - text: "One option"
    options: {A: x}
    correct: A
    difficulty: EASY
  - text: "Bad key"
    options: {A: x, B: y}
    correct: C
    difficulty: EASY
  - text: "Bad level"
    options: {A: x, B: y}
    correct: A
    difficulty: EXTREME
  - text: "Lower-case level is fine"
    options: {A: x, B: y}
    correct: B
    difficulty: medium
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "question 1: text is required")
	assert.Contains(t, msg, "question 2: at least two options")
	assert.Contains(t, msg, `question 3: correct option "C"`)
	assert.Contains(t, msg, `question 4: difficulty "EXTREME"`)
	assert.NotContains(t, msg, "question 5")
	assert.Contains(t, msg, "user 1:")
}

func TestParseRejectsBadYAML(t *testing.T) {
	_, err := Parse([]byte("questions: [unterminated"))
	assert.ErrorContains(t, err, "decode seed file")
}
