package handler

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/model"
	"github.com/stemsi/quizroom/internal/protocol"
	"github.com/stemsi/quizroom/internal/response"
	"github.com/stemsi/quizroom/internal/service"
)

// ResultHandler handles result boards and histories.
type ResultHandler struct {
	resultService *service.ResultService
	log           zerolog.Logger
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(resultService *service.ResultService, log zerolog.Logger) *ResultHandler {
	return &ResultHandler{resultService: resultService, log: log}
}

// Room handles GET_ROOM_RESULTS.
func (h *ResultHandler) Room(ctx context.Context, r *protocol.GetRoomResultsRequest) protocol.Message {
	results, err := h.resultService.RoomResults(ctx, r.RoomID)
	if err != nil {
		return fail(h.log, response.ErrResultFailed, err)
	}
	return response.Success(results)
}

// History handles GET_USER_HISTORY. Without user_id the caller's own
// history is returned.
func (h *ResultHandler) History(ctx context.Context, sess *model.Session, r *protocol.GetUserHistoryRequest) protocol.Message {
	userID := sess.UserID
	if r.UserID != nil {
		userID = *r.UserID
	}
	history, err := h.resultService.UserHistory(ctx, userID)
	if err != nil {
		return fail(h.log, response.ErrHistoryFailed, err)
	}
	return response.Success(history)
}
