package handler_test

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/events"
	"github.com/stemsi/quizroom/internal/handler"
	"github.com/stemsi/quizroom/internal/model"
	"github.com/stemsi/quizroom/internal/protocol"
	"github.com/stemsi/quizroom/internal/repository"
	"github.com/stemsi/quizroom/internal/response"
	"github.com/stemsi/quizroom/internal/server"
	"github.com/stemsi/quizroom/internal/service"
	"github.com/stemsi/quizroom/internal/testutil"
	"github.com/stemsi/quizroom/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t *testing.T
	d *server.Dispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewDB(t)
	log := zerolog.Nop()
	lock := service.NewStoreLock()
	pub := events.Nop{}

	rooms := repository.NewRoomRepository(db)
	questions := repository.NewQuestionRepository(db)
	actions := handler.NewActions(
		service.NewAuthService(lock, repository.NewUserRepository(db), repository.NewSessionRepository(db), time.Hour, 4, log),
		service.NewRoomService(db, lock, rooms, pub, log),
		service.NewExamService(db, lock, rooms, repository.NewExamRepository(db), questions, pub, log),
		service.NewPracticeService(lock, repository.NewPracticeRepository(db), questions, log),
		service.NewResultService(lock, rooms, repository.NewResultRepository(db)),
		log,
	)

	testutil.CreateUser(t, db, "teacher", model.RoleTeacher)
	testutil.AddQuestions(t, db, model.DifficultyEasy, "net", 4)
	testutil.AddQuestions(t, db, model.DifficultyMedium, "net", 4)
	testutil.AddQuestions(t, db, model.DifficultyHard, "net", 2)

	pool := worker.NewPool(1, log)
	t.Cleanup(pool.Shutdown)
	return &harness{t: t, d: server.NewDispatcher(pool, actions, log)}
}

func (h *harness) call(action protocol.Action, session string, data any) protocol.Message {
	h.t.Helper()
	msg, err := protocol.NewRequest(action, session, data)
	require.NoError(h.t, err)
	return h.d.Process(msg)
}

// ok asserts success and decodes the data object.
func (h *harness) ok(resp protocol.Message) map[string]any {
	h.t.Helper()
	require.Equal(h.t, protocol.StatusSuccess, resp.Status, "%s: %s", resp.ErrorCode, resp.ErrorMessage)
	var out map[string]any
	require.NoError(h.t, json.Unmarshal(resp.Data, &out))
	return out
}

func (h *harness) login(username, password string) string {
	h.t.Helper()
	resp := h.call(protocol.ActionLogin, "", map[string]string{"username": username, "password": password})
	data := h.ok(resp)
	require.Equal(h.t, resp.SessionID, data["session_id"])
	return resp.SessionID
}

func id(v any) int64 {
	return int64(v.(float64))
}

func TestActionsExamFlow(t *testing.T) {
	h := newHarness(t)

	echo := h.ok(h.call(protocol.ActionEcho, "", map[string]string{"ping": "pong"}))
	assert.Equal(t, "pong", echo["ping"])

	resp := h.call(protocol.ActionListRooms, "", nil)
	assert.Equal(t, string(response.ErrUnauthorized), resp.ErrorCode)

	h.ok(h.call(protocol.ActionRegister, "", map[string]string{
		"username": "alice", "password": "pw123", "full_name": "Alice",
	}))
	resp = h.call(protocol.ActionRegister, "", map[string]string{
		"username": "alice", "password": "pw123", "full_name": "Alice",
	})
	assert.Equal(t, string(response.ErrRegisterFailed), resp.ErrorCode)
	assert.Equal(t, service.ErrUsernameTaken.Error(), resp.ErrorMessage)

	teacher := h.login("teacher", "secret")
	alice := h.login("alice", "pw123")

	created := h.ok(h.call(protocol.ActionCreateRoom, teacher, map[string]any{
		"room_name":        "Quiz 1",
		"duration_minutes": 10,
		"question_settings": map[string]any{
			"total_questions":         10,
			"difficulty_distribution": map[string]int{"easy": 4, "medium": 4, "hard": 2},
		},
	}))
	roomID := id(created["room_id"])
	assert.Equal(t, "WAITING", created["status"])
	assert.Equal(t, float64(600), created["duration_seconds"])

	resp = h.call(protocol.ActionGetExamPaper, alice, map[string]any{"room_id": roomID})
	assert.Equal(t, string(response.ErrExamFailed), resp.ErrorCode)

	h.ok(h.call(protocol.ActionJoinRoom, alice, map[string]any{"room_id": roomID}))

	resp = h.call(protocol.ActionStartExam, alice, map[string]any{"room_id": roomID})
	assert.Equal(t, string(response.ErrStartFailed), resp.ErrorCode)
	h.ok(h.call(protocol.ActionStartExam, teacher, map[string]any{"room_id": roomID}))

	paper := h.ok(h.call(protocol.ActionGetExamPaper, alice, map[string]any{"room_id": roomID}))
	examID := id(paper["exam_id"])
	questions := paper["questions"].([]any)
	require.Len(t, questions, 10)

	answers := make([]map[string]any, 0, len(questions))
	for _, q := range questions {
		qm := q.(map[string]any)
		assert.NotContains(t, qm, "correct_option")
		answers = append(answers, map[string]any{"question_id": id(qm["question_id"]), "selected_option": "A"})
	}

	saved := h.ok(h.call(protocol.ActionSubmitAnswer, alice, map[string]any{"exam_id": examID, "answers": answers[:2]}))
	assert.Equal(t, float64(2), saved["saved_count"])

	timer := h.ok(h.call(protocol.ActionGetTimerStatus, alice, map[string]any{"exam_id": examID}))
	assert.Equal(t, float64(600), timer["duration_sec"])

	resp = h.call(protocol.ActionSubmitExam, teacher, map[string]any{"exam_id": examID, "final_answers": answers})
	assert.Equal(t, string(response.ErrForbidden), resp.ErrorCode)

	graded := h.ok(h.call(protocol.ActionSubmitExam, alice, map[string]any{"exam_id": examID, "final_answers": answers}))
	assert.Equal(t, float64(10), graded["score"])
	assert.Equal(t, float64(10), graded["correct_answers"])

	resp = h.call(protocol.ActionSubmitExam, alice, map[string]any{"exam_id": examID, "final_answers": answers})
	assert.Equal(t, string(response.ErrSubmitFailed), resp.ErrorCode)

	results := h.ok(h.call(protocol.ActionGetRoomResults, teacher, map[string]any{"room_id": roomID}))
	assert.Len(t, results["participants"], 1)

	history := h.ok(h.call(protocol.ActionGetUserHistory, alice, nil))
	assert.Len(t, history["exams"], 1)
	assert.Equal(t, float64(10), history["average_score"])

	h.ok(h.call(protocol.ActionFinishRoom, teacher, map[string]any{"room_id": roomID}))
	deleted := h.ok(h.call(protocol.ActionDeleteRoom, teacher, map[string]any{"room_id": roomID}))
	assert.Equal(t, "room deleted successfully", deleted["message"])

	h.ok(h.call(protocol.ActionLogout, alice, nil))
	resp = h.call(protocol.ActionGetUserHistory, alice, nil)
	assert.Equal(t, string(response.ErrUnauthorized), resp.ErrorCode)
}

func TestActionsPractice(t *testing.T) {
	h := newHarness(t)
	teacher := h.login("teacher", "secret")

	paper := h.ok(h.call(protocol.ActionStartPractice, teacher, map[string]any{
		"question_count":    3,
		"difficulty_filter": []string{"EASY"},
	}))
	questions := paper["questions"].([]any)
	require.Len(t, questions, 3)

	answers := make([]map[string]any, 0, len(questions))
	for i, q := range questions {
		option := "A"
		if i == 0 {
			option = "B"
		}
		answers = append(answers, map[string]any{
			"question_id":     id(q.(map[string]any)["question_id"]),
			"selected_option": option,
		})
	}

	graded := h.ok(h.call(protocol.ActionSubmitPractice, teacher, map[string]any{
		"practice_id":   id(paper["practice_id"]),
		"final_answers": answers,
	}))
	assert.Equal(t, float64(2), graded["correct_answers"])
	assert.Equal(t, float64(3), graded["total_questions"])

	resp := h.call(protocol.ActionStartPractice, teacher, map[string]any{"topic_filter": []string{"chemistry"}})
	assert.Equal(t, string(response.ErrPracticeFailed), resp.ErrorCode)
}

func TestActionsRejectsUnknownSession(t *testing.T) {
	h := newHarness(t)

	for _, action := range []protocol.Action{protocol.ActionListRooms, protocol.ActionGetUserHistory} {
		t.Run(string(action), func(t *testing.T) {
			resp := h.call(action, "no-such-token", nil)
			assert.Equal(t, protocol.StatusError, resp.Status)
			assert.Equal(t, string(response.ErrUnauthorized), resp.ErrorCode, fmt.Sprint(resp.ErrorMessage))
		})
	}
}

func TestActionsChecksSessionBeforeRequestData(t *testing.T) {
	h := newHarness(t)

	resp := h.call(protocol.ActionJoinRoom, "no-such-token", map[string]any{"room_id": "abc"})
	assert.Equal(t, string(response.ErrUnauthorized), resp.ErrorCode)

	teacher := h.login("teacher", "secret")
	resp = h.call(protocol.ActionJoinRoom, teacher, map[string]any{"room_id": "abc"})
	assert.Equal(t, string(response.ErrInvalidRequest), resp.ErrorCode)
}
