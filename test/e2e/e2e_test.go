//go:build e2e
// +build e2e

package e2e

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/config"
	"github.com/stemsi/quizroom/internal/database"
	"github.com/stemsi/quizroom/internal/protocol"
	"github.com/stemsi/quizroom/internal/repository"
	"github.com/stemsi/quizroom/internal/seed"
	"github.com/stemsi/quizroom/internal/service"
	"github.com/stemsi/quizroom/seeds"
)

const (
	teacherUser = "teacher"
	teacherPass = "teacher123"
	studentPass = "password123"
)

var (
	addr         string
	studentUser  string
	teacherToken string
	studentToken string
	roomID       int64
	examID       int64
	paper        struct {
		ExamID    int64 `json:"exam_id"`
		Questions []struct {
			ID int64 `json:"question_id"`
		} `json:"questions"`
	}
)

func TestMain(m *testing.M) {
	// Load .env if present (ignore error)
	_ = godotenv.Load("../../.env")

	cfg := config.Load()
	addr = os.Getenv("QUIZ_ADDR")
	if addr == "" {
		addr = net.JoinHostPort("127.0.0.1", cfg.ListenPort)
	}
	studentUser = fmt.Sprintf("e2e_student_%d", time.Now().UnixNano())

	if err := setupStore(cfg); err != nil {
		fmt.Printf("Setup failed: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// setupStore makes sure the demo accounts exist and the bank is not empty.
func setupStore(cfg *config.Config) error {
	ctx := context.Background()
	log := zerolog.Nop()

	db, err := database.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer db.Close()

	bank, err := seeds.Demo()
	if err != nil {
		return err
	}

	count, err := repository.NewQuestionRepository(db).Count(ctx)
	if err != nil {
		return fmt.Errorf("count questions: %w", err)
	}
	if count > 0 {
		bank.Questions = nil
	}

	auth := service.NewAuthService(
		service.NewStoreLock(),
		repository.NewUserRepository(db),
		repository.NewSessionRepository(db),
		cfg.SessionTTL, cfg.BcryptCost, log,
	)
	_, err = seed.NewSeeder(db, auth, log).Apply(ctx, bank)
	return err
}

// ─── Client ─────────────────────────────────────────────────────────

type client struct {
	nc net.Conn
	r  *bufio.Reader
}

func dial(t *testing.T) *client {
	t.Helper()
	nc, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("dial %s: %v", addr, err)
	}
	t.Cleanup(func() { nc.Close() })
	return &client{nc: nc, r: bufio.NewReader(nc)}
}

func (c *client) call(t *testing.T, action protocol.Action, session string, data any) protocol.Message {
	t.Helper()
	msg, err := protocol.NewRequest(action, session, data)
	if err != nil {
		t.Fatalf("build %s: %v", action, err)
	}
	frame, err := protocol.Encode(msg)
	if err != nil {
		t.Fatalf("encode %s: %v", action, err)
	}
	_ = c.nc.SetDeadline(time.Now().Add(10 * time.Second))
	if err := protocol.WriteFrame(c.nc, frame); err != nil {
		t.Fatalf("send %s: %v", action, err)
	}
	reply, err := protocol.ReadFrame(c.r)
	if err != nil {
		t.Fatalf("read %s: %v", action, err)
	}
	resp, err := protocol.Decode(reply)
	if err != nil {
		t.Fatalf("decode %s: %v", action, err)
	}
	return resp
}

func mustSucceed(t *testing.T, resp protocol.Message, out any) {
	t.Helper()
	if resp.Status != protocol.StatusSuccess {
		t.Fatalf("%s failed: %s %s", resp.Action, resp.ErrorCode, resp.ErrorMessage)
	}
	if out != nil {
		if err := json.Unmarshal(resp.Data, out); err != nil {
			t.Fatalf("decode %s data: %v", resp.Action, err)
		}
	}
}

func TestE2EFlow(t *testing.T) {
	c := dial(t)

	// Step 1: Echo without a session
	t.Run("Echo", func(t *testing.T) {
		var body map[string]string
		mustSucceed(t, c.call(t, protocol.ActionEcho, "", map[string]string{"ping": "pong"}), &body)
		if body["ping"] != "pong" {
			t.Fatalf("echo mismatch: %v", body)
		}
	})

	// Step 2: Register and log in
	t.Run("RegisterStudent", func(t *testing.T) {
		mustSucceed(t, c.call(t, protocol.ActionRegister, "", map[string]string{
			"username":  studentUser,
			"password":  studentPass,
			"full_name": "E2E Student",
		}), nil)
	})

	t.Run("RegisterDuplicate", func(t *testing.T) {
		resp := c.call(t, protocol.ActionRegister, "", map[string]string{
			"username":  studentUser,
			"password":  studentPass,
			"full_name": "E2E Student",
		})
		if resp.ErrorCode != "REGISTER_FAILED" {
			t.Fatalf("expected REGISTER_FAILED, got %s", resp.ErrorCode)
		}
	})

	t.Run("Login", func(t *testing.T) {
		resp := c.call(t, protocol.ActionLogin, "", map[string]string{"username": teacherUser, "password": teacherPass})
		mustSucceed(t, resp, nil)
		teacherToken = resp.SessionID

		resp = c.call(t, protocol.ActionLogin, "", map[string]string{"username": studentUser, "password": studentPass})
		mustSucceed(t, resp, nil)
		studentToken = resp.SessionID

		if teacherToken == "" || studentToken == "" {
			t.Fatal("session token missing")
		}
	})

	// Step 3: Room lifecycle
	t.Run("CreateRoom", func(t *testing.T) {
		var body struct {
			RoomID int64 `json:"room_id"`
		}
		mustSucceed(t, c.call(t, protocol.ActionCreateRoom, teacherToken, map[string]any{
			"room_name":        "E2E Room",
			"duration_minutes": 5,
			"room_pass":        "letmein",
			"question_settings": map[string]any{
				"total_questions":         5,
				"difficulty_distribution": map[string]int{"easy": 2, "medium": 2, "hard": 1},
			},
		}), &body)
		roomID = body.RoomID
	})

	t.Run("JoinWithWrongPassword", func(t *testing.T) {
		resp := c.call(t, protocol.ActionJoinRoom, studentToken, map[string]any{"room_id": roomID, "room_pass": "nope"})
		if resp.ErrorCode != "JOIN_FAILED" {
			t.Fatalf("expected JOIN_FAILED, got %s", resp.ErrorCode)
		}
	})

	t.Run("JoinAndStart", func(t *testing.T) {
		mustSucceed(t, c.call(t, protocol.ActionJoinRoom, studentToken, map[string]any{"room_id": roomID, "room_pass": "letmein"}), nil)
		mustSucceed(t, c.call(t, protocol.ActionStartExam, teacherToken, map[string]any{"room_id": roomID}), nil)
	})

	// Step 4: Exam
	t.Run("GetPaperOnce", func(t *testing.T) {
		mustSucceed(t, c.call(t, protocol.ActionGetExamPaper, studentToken, map[string]any{"room_id": roomID}), &paper)
		examID = paper.ExamID
		if len(paper.Questions) != 5 {
			t.Fatalf("expected 5 questions, got %d", len(paper.Questions))
		}

		resp := c.call(t, protocol.ActionGetExamPaper, studentToken, map[string]any{"room_id": roomID})
		if resp.ErrorCode != "EXAM_FAILED" {
			t.Fatalf("second paper should be refused, got %s", resp.ErrorCode)
		}
	})

	t.Run("Timer", func(t *testing.T) {
		var timer struct {
			Remaining int64 `json:"remaining_sec"`
		}
		mustSucceed(t, c.call(t, protocol.ActionGetTimerStatus, studentToken, map[string]any{"exam_id": examID}), &timer)
		if timer.Remaining <= 0 || timer.Remaining > 300 {
			t.Fatalf("unexpected remaining time %d", timer.Remaining)
		}
	})

	t.Run("SubmitExam", func(t *testing.T) {
		answers := make([]map[string]any, 0, len(paper.Questions))
		for _, q := range paper.Questions {
			answers = append(answers, map[string]any{"question_id": q.ID, "selected_option": "A"})
		}
		mustSucceed(t, c.call(t, protocol.ActionSubmitAnswer, studentToken, map[string]any{"exam_id": examID, "answers": answers}), nil)

		var grade struct {
			Total int     `json:"total_questions"`
			Score float64 `json:"score"`
		}
		mustSucceed(t, c.call(t, protocol.ActionSubmitExam, studentToken, map[string]any{"exam_id": examID, "final_answers": answers}), &grade)
		if grade.Total != 5 {
			t.Fatalf("expected 5 graded questions, got %d", grade.Total)
		}
		t.Logf("Score: %.1f", grade.Score)
	})

	// Step 5: Results
	t.Run("Results", func(t *testing.T) {
		var results struct {
			Participants []struct {
				Username string `json:"username"`
			} `json:"participants"`
		}
		mustSucceed(t, c.call(t, protocol.ActionGetRoomResults, teacherToken, map[string]any{"room_id": roomID}), &results)
		if len(results.Participants) != 1 || results.Participants[0].Username != studentUser {
			t.Fatalf("unexpected participants: %+v", results.Participants)
		}

		var history struct {
			Exams []any `json:"exams"`
		}
		mustSucceed(t, c.call(t, protocol.ActionGetUserHistory, studentToken, nil), &history)
		if len(history.Exams) != 1 {
			t.Fatalf("expected 1 exam in history, got %d", len(history.Exams))
		}
	})

	// Step 6: Teardown
	t.Run("FinishAndDelete", func(t *testing.T) {
		mustSucceed(t, c.call(t, protocol.ActionFinishRoom, teacherToken, map[string]any{"room_id": roomID}), nil)
		mustSucceed(t, c.call(t, protocol.ActionDeleteRoom, teacherToken, map[string]any{"room_id": roomID}), nil)
	})

	t.Run("Logout", func(t *testing.T) {
		mustSucceed(t, c.call(t, protocol.ActionLogout, studentToken, nil), nil)
		resp := c.call(t, protocol.ActionListRooms, studentToken, nil)
		if resp.ErrorCode != "UNAUTHORIZED" {
			t.Fatalf("expected UNAUTHORIZED after logout, got %s", resp.ErrorCode)
		}
	})
}
