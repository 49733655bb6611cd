package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/config"
	"github.com/stemsi/quizroom/internal/database"
	"github.com/stemsi/quizroom/internal/events"
	"github.com/stemsi/quizroom/internal/model"
	"github.com/stemsi/quizroom/internal/repository"
)

// CreateRoomInput describes a new room.
type CreateRoomInput struct {
	Name            string
	Description     string
	Password        string
	DurationMinutes int
	TotalQuestions  int
	Easy            int
	Medium          int
	Hard            int
}

// RoomService handles the room lifecycle and membership.
type RoomService struct {
	db    *database.DB
	lock  *StoreLock
	rooms *repository.RoomRepository
	pub   events.Publisher
	now   Clock
	log   zerolog.Logger
}

// NewRoomService creates a new RoomService.
func NewRoomService(
	db *database.DB,
	lock *StoreLock,
	rooms *repository.RoomRepository,
	pub events.Publisher,
	log zerolog.Logger,
) *RoomService {
	return &RoomService{
		db:    db,
		lock:  lock,
		rooms: rooms,
		pub:   pub,
		now:   time.Now,
		log:   log.With().Str("component", "room_service").Logger(),
	}
}

// SetClock replaces the time source.
func (s *RoomService) SetClock(c Clock) { s.now = c }

// CreateRoom creates a WAITING room owned by creatorID.
func (s *RoomService) CreateRoom(ctx context.Context, creatorID int64, in CreateRoomInput) (*model.Room, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, ErrRoomNameRequired
	}
	if in.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	if in.TotalQuestions < 0 || in.Easy < 0 || in.Medium < 0 || in.Hard < 0 {
		return nil, ErrInvalidQuota
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	room := &model.Room{
		Name:           in.Name,
		Description:    in.Description,
		DurationSec:    int64(in.DurationMinutes) * 60,
		TotalQuestions: in.TotalQuestions,
		EasyCount:      in.Easy,
		MediumCount:    in.Medium,
		HardCount:      in.Hard,
		Status:         model.RoomStatusWaiting,
		CreatorID:      creatorID,
		RoomPass:       in.Password,
		CreatedAt:      s.now().Unix(),
	}

	// Codes are random; retry the rare collision.
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		room.Code = newRoomCode()
		if err = s.rooms.Create(ctx, room); err == nil || !database.IsUniqueViolation(err) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}

	s.log.Info().
		Int64("room_id", room.ID).
		Str("code", room.Code).
		Int64("creator_id", creatorID).
		Msg("Room created")
	return room, nil
}

// ListRooms returns rooms newest first, optionally filtered by status.
func (s *RoomService) ListRooms(ctx context.Context, status *model.RoomStatus) ([]model.RoomSummary, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	rooms, err := s.rooms.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// JoinRoom adds userID to a waiting or running room. Joining twice succeeds.
func (s *RoomService) JoinRoom(ctx context.Context, roomID, userID int64, password string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.Joinable() {
		return ErrRoomNotJoinable
	}
	if room.RoomPass != password {
		return ErrWrongRoomPassword
	}

	if err := s.rooms.AddParticipant(ctx, roomID, userID, s.now().Unix()); err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	return nil
}

// StartRoom moves a waiting room to IN_PROGRESS. Only the creator may start it.
func (s *RoomService) StartRoom(ctx context.Context, roomID, userID int64) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	now := s.now().Unix()
	ok, err := s.rooms.Start(ctx, roomID, userID, now)
	if err != nil {
		return fmt.Errorf("start room: %w", err)
	}
	if !ok {
		return ErrCannotStartRoom
	}

	s.log.Info().Int64("room_id", roomID).Msg("Room started")
	publish(ctx, s.pub, s.log, config.Subject.RoomStarted, model.RoomEvent{
		RoomID: roomID, UserID: userID, Status: model.RoomStatusInProgress, At: now,
	})
	return nil
}

// FinishRoom moves a running room to FINISHED. Only the creator may finish it.
func (s *RoomService) FinishRoom(ctx context.Context, roomID, userID int64) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.CreatorID != userID {
		return ErrNotCreatorFinish
	}
	if room.Status != model.RoomStatusInProgress {
		return ErrRoomNotInProgress
	}

	ok, err := s.rooms.Finish(ctx, roomID)
	if err != nil {
		return fmt.Errorf("finish room: %w", err)
	}
	if !ok {
		return ErrRoomNotInProgress
	}

	s.log.Info().Int64("room_id", roomID).Msg("Room finished")
	publish(ctx, s.pub, s.log, config.Subject.RoomFinished, model.RoomEvent{
		RoomID: roomID, UserID: userID, Status: model.RoomStatusFinished, At: s.now().Unix(),
	})
	return nil
}

// DeleteRoom removes a room that is not running, with everything attached
// to it. Only the creator may delete it.
func (s *RoomService) DeleteRoom(ctx context.Context, roomID, userID int64) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.CreatorID != userID {
		return ErrNotCreatorDelete
	}
	if room.Status == model.RoomStatusInProgress {
		return ErrRoomInProgress
	}

	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		return s.rooms.WithTx(tx).Delete(ctx, roomID)
	})
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}

	s.log.Info().Int64("room_id", roomID).Msg("Room deleted")
	publish(ctx, s.pub, s.log, config.Subject.RoomDeleted, model.RoomEvent{
		RoomID: roomID, UserID: userID, Status: room.Status, At: s.now().Unix(),
	})
	return nil
}

// RoomDetails returns a room with its creator and participants.
func (s *RoomService) RoomDetails(ctx context.Context, roomID int64) (*model.RoomDetails, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	d, err := s.rooms.Details(ctx, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomDetailsMissing
	}
	if err != nil {
		return nil, fmt.Errorf("get room details: %w", err)
	}

	d.Participants, err = s.rooms.Participants(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return d, nil
}

// getRoom must be called with the store lock held.
func (s *RoomService) getRoom(ctx context.Context, roomID int64) (*model.Room, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}

// newRoomCode returns ROOM- followed by 8 upper-case hex characters.
func newRoomCode() string {
	return "ROOM-" + strings.ToUpper(uuid.NewString()[:8])
}
