package handler

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/model"
	"github.com/stemsi/quizroom/internal/protocol"
	"github.com/stemsi/quizroom/internal/response"
	"github.com/stemsi/quizroom/internal/service"
)

// RoomHandler handles room lifecycle actions.
type RoomHandler struct {
	roomService *service.RoomService
	log         zerolog.Logger
}

// NewRoomHandler creates a new RoomHandler.
func NewRoomHandler(roomService *service.RoomService, log zerolog.Logger) *RoomHandler {
	return &RoomHandler{roomService: roomService, log: log}
}

// Create handles CREATE_ROOM.
func (h *RoomHandler) Create(ctx context.Context, sess *model.Session, r *protocol.CreateRoomRequest) protocol.Message {
	total, easy, medium, hard := r.QuestionSettings.Quota()
	room, err := h.roomService.CreateRoom(ctx, sess.UserID, service.CreateRoomInput{
		Name:            r.RoomName,
		Description:     r.Description,
		Password:        r.RoomPass,
		DurationMinutes: *r.DurationMinutes,
		TotalQuestions:  total,
		Easy:            easy,
		Medium:          medium,
		Hard:            hard,
	})
	if err != nil {
		return fail(h.log, response.ErrCreateFailed, err)
	}
	return response.Success(map[string]any{
		"room_id":          room.ID,
		"room_code":        room.Code,
		"status":           room.Status,
		"duration_seconds": room.DurationSec,
	})
}

// List handles LIST_ROOMS.
func (h *RoomHandler) List(ctx context.Context, r *protocol.ListRoomsRequest) protocol.Message {
	var status *model.RoomStatus
	if r.Filter.Status != nil {
		s := model.RoomStatus(*r.Filter.Status)
		status = &s
	}
	rooms, err := h.roomService.ListRooms(ctx, status)
	if err != nil {
		return fail(h.log, response.ErrInvalidRequest, err)
	}
	return response.Success(map[string]any{"rooms": rooms})
}

// Join handles JOIN_ROOM.
func (h *RoomHandler) Join(ctx context.Context, sess *model.Session, r *protocol.JoinRoomRequest) protocol.Message {
	if err := h.roomService.JoinRoom(ctx, r.RoomID, sess.UserID, r.RoomPass); err != nil {
		return fail(h.log, response.ErrJoinFailed, err)
	}
	return response.Success(map[string]any{"room_id": r.RoomID, "user_id": sess.UserID})
}

// Start handles START_EXAM.
func (h *RoomHandler) Start(ctx context.Context, sess *model.Session, r *protocol.StartExamRequest) protocol.Message {
	if err := h.roomService.StartRoom(ctx, r.RoomID, sess.UserID); err != nil {
		return fail(h.log, response.ErrStartFailed, err)
	}
	return response.Success(map[string]any{"room_id": r.RoomID, "status": model.RoomStatusInProgress})
}

// Details handles GET_ROOM_DETAILS.
func (h *RoomHandler) Details(ctx context.Context, r *protocol.GetRoomDetailsRequest) protocol.Message {
	d, err := h.roomService.RoomDetails(ctx, r.RoomID)
	if err != nil {
		return fail(h.log, response.ErrDetailsFailed, err)
	}
	return response.Success(d)
}

// Delete handles DELETE_ROOM.
func (h *RoomHandler) Delete(ctx context.Context, sess *model.Session, r *protocol.DeleteRoomRequest) protocol.Message {
	if err := h.roomService.DeleteRoom(ctx, r.RoomID, sess.UserID); err != nil {
		return fail(h.log, response.ErrDeleteFailed, err)
	}
	return response.Success(map[string]any{"message": "room deleted successfully", "room_id": r.RoomID})
}

// Finish handles FINISH_ROOM.
func (h *RoomHandler) Finish(ctx context.Context, sess *model.Session, r *protocol.FinishRoomRequest) protocol.Message {
	if err := h.roomService.FinishRoom(ctx, r.RoomID, sess.UserID); err != nil {
		return fail(h.log, response.ErrFinishFailed, err)
	}
	return response.Success(map[string]any{"message": "room finished successfully", "room_id": r.RoomID})
}
