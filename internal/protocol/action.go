package protocol

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionEcho           Action = "ECHO"
	ActionRegister       Action = "REGISTER"
	ActionLogin          Action = "LOGIN"
	ActionLogout         Action = "LOGOUT"
	ActionCreateRoom     Action = "CREATE_ROOM"
	ActionListRooms      Action = "LIST_ROOMS"
	ActionJoinRoom       Action = "JOIN_ROOM"
	ActionStartExam      Action = "START_EXAM"
	ActionGetExamPaper   Action = "GET_EXAM_PAPER"
	ActionGetTimerStatus Action = "GET_TIMER_STATUS"
	ActionSubmitAnswer   Action = "SUBMIT_ANSWER"
	ActionSubmitExam     Action = "SUBMIT_EXAM"
	ActionStartPractice  Action = "START_PRACTICE"
	ActionSubmitPractice Action = "SUBMIT_PRACTICE"
	ActionGetRoomResults Action = "GET_ROOM_RESULTS"
	ActionGetRoomDetails Action = "GET_ROOM_DETAILS"
	ActionDeleteRoom     Action = "DELETE_ROOM"
	ActionFinishRoom     Action = "FINISH_ROOM"
	ActionGetUserHistory Action = "GET_USER_HISTORY"
)

// Difficulty buckets of the question bank.
const (
	DifficultyEasy   = "EASY"
	DifficultyMedium = "MEDIUM"
	DifficultyHard   = "HARD"
)
