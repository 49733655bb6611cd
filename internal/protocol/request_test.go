package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/quizroom/internal/validator"
)

func request(action Action, sessionID, data string) Message {
	return Message{
		Type:      TypeRequest,
		Action:    string(action),
		Timestamp: 1,
		SessionID: sessionID,
		Data:      json.RawMessage(data),
	}
}

func TestParseRequestUnknownAction(t *testing.T) {
	_, err := ParseRequest(request("TELEPORT", "", `{}`))
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestParseCreateRoomDefaults(t *testing.T) {
	req, err := ParseRequest(request(ActionCreateRoom, "tok",
		`{"room_name":"Quiz 1","duration_minutes":30,"question_settings":{}}`))
	require.NoError(t, err)

	create, ok := req.(*CreateRoomRequest)
	require.True(t, ok)
	assert.Equal(t, "Quiz 1", create.RoomName)
	assert.Equal(t, 30, *create.DurationMinutes)

	total, easy, medium, hard := create.QuestionSettings.Quota()
	assert.Equal(t, []int{10, 3, 4, 3}, []int{total, easy, medium, hard})
}

func TestParseCreateRoomExplicitQuota(t *testing.T) {
	req, err := ParseRequest(request(ActionCreateRoom, "tok",
		`{"room_name":"Quiz","duration_minutes":30,"question_settings":{"total_questions":10,"difficulty_distribution":{"easy":4,"medium":4,"hard":2}}}`))
	require.NoError(t, err)

	total, easy, medium, hard := req.(*CreateRoomRequest).QuestionSettings.Quota()
	assert.Equal(t, []int{10, 4, 4, 2}, []int{total, easy, medium, hard})
}

func TestParseCreateRoomMissingFields(t *testing.T) {
	_, err := ParseRequest(request(ActionCreateRoom, "tok", `{"room_name":"Quiz"}`))

	var fields validator.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "duration_minutes")
	assert.Contains(t, fields, "question_settings")
}

func TestParseRoomIDMustBeNumber(t *testing.T) {
	_, err := ParseRequest(request(ActionDeleteRoom, "tok", `{"room_id":"12"}`))

	var fields validator.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, "room_id must be a number", fields["room_id"])
}

func TestParseRoomIDRequired(t *testing.T) {
	for _, action := range []Action{ActionJoinRoom, ActionStartExam, ActionGetExamPaper, ActionFinishRoom, ActionGetRoomResults} {
		_, err := ParseRequest(request(action, "tok", `{}`))
		var fields validator.FieldErrors
		require.ErrorAs(t, err, &fields, string(action))
		assert.Contains(t, fields, "room_id")
	}
}

func TestParseLogoutTokenSources(t *testing.T) {
	req, err := ParseRequest(request(ActionLogout, "from-message", `{"session_id":"from-data"}`))
	require.NoError(t, err)
	assert.Equal(t, "from-message", req.(*LogoutRequest).Token)

	req, err = ParseRequest(request(ActionLogout, "", `{"session_id":"from-data"}`))
	require.NoError(t, err)
	assert.Equal(t, "from-data", req.(*LogoutRequest).Token)

	_, err = ParseRequest(request(ActionLogout, "", `{}`))
	assert.Error(t, err)
}

func TestSubmitAnswerSkipsUnusableEntries(t *testing.T) {
	req, err := ParseRequest(request(ActionSubmitAnswer, "tok",
		`{"exam_id":3,"answers":[{"question_id":1,"selected_option":"A"},{"question_id":0,"selected_option":"B"},{"question_id":2,"selected_option":""}]}`))
	require.NoError(t, err)

	usable := req.(*SubmitAnswerRequest).Usable()
	require.Len(t, usable, 1)
	assert.Equal(t, int64(1), usable[0].QuestionID)
}

func TestSubmitAnswerRequiresArray(t *testing.T) {
	_, err := ParseRequest(request(ActionSubmitAnswer, "tok", `{"exam_id":3}`))
	assert.Error(t, err)

	_, err = ParseRequest(request(ActionSubmitAnswer, "tok", `{"exam_id":3,"answers":"A"}`))
	assert.Error(t, err)

	_, err = ParseRequest(request(ActionSubmitAnswer, "tok", `{"exam_id":3,"answers":[]}`))
	assert.NoError(t, err)
}

func TestStartPracticeDefaultsAndFilters(t *testing.T) {
	req, err := ParseRequest(request(ActionStartPractice, "tok", `{}`))
	require.NoError(t, err)
	practice := req.(*StartPracticeRequest)
	assert.Equal(t, 10, practice.Count())
	assert.Equal(t, int64(1800), practice.DurationSeconds())

	_, err = ParseRequest(request(ActionStartPractice, "tok", `{"difficulty_filter":["EASY","IMPOSSIBLE"]}`))
	assert.Error(t, err)
}

func TestAuthenticated(t *testing.T) {
	assert.False(t, Authenticated(&EchoRequest{}))
	assert.False(t, Authenticated(&LoginRequest{}))
	assert.False(t, Authenticated(&RegisterRequest{}))
	assert.False(t, Authenticated(&LogoutRequest{}))
	assert.True(t, Authenticated(&GetExamPaperRequest{}))
}

func TestEchoKeepsData(t *testing.T) {
	req, err := ParseRequest(request(ActionEcho, "", `{"ping":true}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ping":true}`, string(req.(*EchoRequest).Data))
}

func TestRequestForResolvesBeforeDecoding(t *testing.T) {
	_, err := RequestFor("TELEPORT")
	assert.ErrorIs(t, err, ErrUnknownAction)

	req, err := RequestFor(string(ActionJoinRoom))
	require.NoError(t, err)
	assert.True(t, Authenticated(req))

	err = DecodeRequest(request(ActionJoinRoom, "tok", `{"room_id":"abc"}`), req)
	assert.Error(t, err)

	req, err = RequestFor(string(ActionJoinRoom))
	require.NoError(t, err)
	require.NoError(t, DecodeRequest(request(ActionJoinRoom, "tok", `{"room_id":4}`), req))
	assert.Equal(t, int64(4), req.(*JoinRoomRequest).RoomID)
}
