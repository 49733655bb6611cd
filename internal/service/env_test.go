package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/database"
	"github.com/stemsi/quizroom/internal/model"
	"github.com/stemsi/quizroom/internal/repository"
	"github.com/stemsi/quizroom/internal/service"
	"github.com/stemsi/quizroom/internal/testutil"
	"github.com/stretchr/testify/require"
)

// recorder captures published events.
type recorder struct {
	mu       sync.Mutex
	subjects []string
}

func (r *recorder) Publish(_ context.Context, subject string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects = append(r.subjects, subject)
	return nil
}

func (r *recorder) Close() {}

func (r *recorder) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.subjects...)
}

type env struct {
	db       *database.DB
	clock    *testutil.Clock
	pub      *recorder
	auth     *service.AuthService
	rooms    *service.RoomService
	exams    *service.ExamService
	practice *service.PracticeService
	results  *service.ResultService

	teacher int64
	alice   int64
	bob     int64
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvOn(t, testutil.NewDB(t))
}

func newEnvOn(t *testing.T, db *database.DB) *env {
	t.Helper()

	clock := testutil.NewClock()
	pub := &recorder{}
	lock := service.NewStoreLock()
	log := zerolog.Nop()

	roomRepo := repository.NewRoomRepository(db)
	questionRepo := repository.NewQuestionRepository(db)

	e := &env{
		db:       db,
		clock:    clock,
		pub:      pub,
		auth:     service.NewAuthService(lock, repository.NewUserRepository(db), repository.NewSessionRepository(db), time.Hour, 4, log),
		rooms:    service.NewRoomService(db, lock, roomRepo, pub, log),
		exams:    service.NewExamService(db, lock, roomRepo, repository.NewExamRepository(db), questionRepo, pub, log),
		practice: service.NewPracticeService(lock, repository.NewPracticeRepository(db), questionRepo, log),
		results:  service.NewResultService(lock, roomRepo, repository.NewResultRepository(db)),
	}
	e.auth.SetClock(clock.Now)
	e.rooms.SetClock(clock.Now)
	e.exams.SetClock(clock.Now)
	e.practice.SetClock(clock.Now)

	e.teacher = testutil.CreateUser(t, db, "teacher", model.RoleTeacher)
	e.alice = testutil.CreateUser(t, db, "alice", model.RoleStudent)
	e.bob = testutil.CreateUser(t, db, "bob", model.RoleStudent)
	return e
}

// standardBank adds 4 easy, 4 medium and 2 hard questions, all answered "A".
func (e *env) standardBank(t *testing.T) []int64 {
	t.Helper()
	var ids []int64
	ids = append(ids, testutil.AddQuestions(t, e.db, model.DifficultyEasy, "net", 4)...)
	ids = append(ids, testutil.AddQuestions(t, e.db, model.DifficultyMedium, "net", 4)...)
	ids = append(ids, testutil.AddQuestions(t, e.db, model.DifficultyHard, "sec", 2)...)
	return ids
}

// runningRoom creates a 10 minute room with a 4/4/2 paper, joins the given
// students and starts it.
func (e *env) runningRoom(t *testing.T, students ...int64) *model.Room {
	t.Helper()
	ctx := context.Background()

	room, err := e.rooms.CreateRoom(ctx, e.teacher, service.CreateRoomInput{
		Name:            "Networks midterm",
		DurationMinutes: 10,
		TotalQuestions:  10,
		Easy:            4,
		Medium:          4,
		Hard:            2,
	})
	require.NoError(t, err)
	for _, id := range students {
		require.NoError(t, e.rooms.JoinRoom(ctx, room.ID, id, ""))
	}
	require.NoError(t, e.rooms.StartRoom(ctx, room.ID, e.teacher))
	return room
}

func answerAll(paper *model.ExamPaper, option string) []model.Answer {
	answers := make([]model.Answer, len(paper.Questions))
	for i, q := range paper.Questions {
		answers[i] = model.Answer{QuestionID: q.ID, SelectedOption: option}
	}
	return answers
}
