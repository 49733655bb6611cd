package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stemsi/quizroom/internal/model"
	"github.com/stemsi/quizroom/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomResultsStatistics(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.standardBank(t)
	room := e.runningRoom(t, e.alice, e.bob)

	alice, err := e.exams.GetExamPaper(ctx, room.ID, e.alice)
	require.NoError(t, err)
	bob, err := e.exams.GetExamPaper(ctx, room.ID, e.bob)
	require.NoError(t, err)

	_, err = e.exams.SubmitExam(ctx, alice.ExamID, e.alice, answerAll(alice, "A")[:8])
	require.NoError(t, err)
	e.clock.Advance(time.Second)
	_, err = e.exams.SubmitExam(ctx, bob.ExamID, e.bob, answerAll(bob, "A")[:3])
	require.NoError(t, err)

	res, err := e.results.RoomResults(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, res.Participants, 2)

	assert.Equal(t, e.alice, res.Participants[0].UserID)
	assert.Equal(t, "Alice", res.Participants[0].FullName)
	assert.Equal(t, 8, res.Participants[0].Correct)
	assert.Equal(t, 10, res.Participants[0].Total)

	st := res.Statistics
	assert.InDelta(t, 5.5, st.AverageScore, 1e-9)
	assert.InDelta(t, 8.0, st.HighestScore, 1e-9)
	assert.InDelta(t, 3.0, st.LowestScore, 1e-9)
	assert.InDelta(t, 50.0, st.PassRate, 1e-9)
}

func TestRoomResultsEmptyRoom(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	room := e.runningRoom(t, e.alice)

	res, err := e.results.RoomResults(ctx, room.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Participants)
	assert.Zero(t, res.Statistics.PassRate)

	_, err = e.results.RoomResults(ctx, 31337)
	assert.ErrorIs(t, err, service.ErrRoomNotFound)
}

func TestUserHistoryAveragesExamsAndPractices(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.standardBank(t)
	room := e.runningRoom(t, e.alice)

	paper, err := e.exams.GetExamPaper(ctx, room.ID, e.alice)
	require.NoError(t, err)
	_, err = e.exams.SubmitExam(ctx, paper.ExamID, e.alice, answerAll(paper, "A")[:6])
	require.NoError(t, err)

	run, err := e.practice.StartPractice(ctx, e.alice, service.PracticeInput{QuestionCount: 2, DurationSec: 60})
	require.NoError(t, err)
	_, err = e.practice.SubmitPractice(ctx, run.PracticeID, e.alice, []model.Answer{
		{QuestionID: run.Questions[0].ID, SelectedOption: "A"},
		{QuestionID: run.Questions[1].ID, SelectedOption: "A"},
	})
	require.NoError(t, err)

	// An unsubmitted run stays out of the history.
	_, err = e.practice.StartPractice(ctx, e.alice, service.PracticeInput{QuestionCount: 2, DurationSec: 60})
	require.NoError(t, err)

	h, err := e.results.UserHistory(ctx, e.alice)
	require.NoError(t, err)
	require.Len(t, h.Exams, 1)
	require.Len(t, h.Practices, 1)
	assert.Equal(t, "Networks midterm", h.Exams[0].RoomName)
	assert.InDelta(t, 6.0, h.Exams[0].Score, 1e-9)
	assert.InDelta(t, 10.0, h.Practices[0].Score, 1e-9)
	assert.InDelta(t, 8.0, h.AverageScore, 1e-9)

	empty, err := e.results.UserHistory(ctx, e.bob)
	require.NoError(t, err)
	assert.Empty(t, empty.Exams)
	assert.Empty(t, empty.Practices)
	assert.Zero(t, empty.AverageScore)
}
