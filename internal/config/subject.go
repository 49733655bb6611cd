package config

// SubjectStruct names the NATS subjects domain events are published on.
type SubjectStruct struct {
	RoomStarted   string
	RoomFinished  string
	RoomDeleted   string
	ExamSubmitted string
	ExamExpired   string
}

var Subject = &SubjectStruct{
	RoomStarted:   "quiz.room.started",
	RoomFinished:  "quiz.room.finished",
	RoomDeleted:   "quiz.room.deleted",
	ExamSubmitted: "quiz.exam.submitted",
	ExamExpired:   "quiz.exam.expired",
}
