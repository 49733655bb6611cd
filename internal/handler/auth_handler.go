package handler

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/model"
	"github.com/stemsi/quizroom/internal/protocol"
	"github.com/stemsi/quizroom/internal/response"
	"github.com/stemsi/quizroom/internal/service"
)

// AuthHandler handles account and session actions.
type AuthHandler struct {
	authService *service.AuthService
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

// Register handles REGISTER. Wire registrations are always students.
func (h *AuthHandler) Register(ctx context.Context, r *protocol.RegisterRequest) protocol.Message {
	u, err := h.authService.Register(ctx, service.RegisterInput{
		Username: r.Username,
		Password: r.Password,
		FullName: r.FullName,
		Email:    r.Email,
		Role:     model.RoleStudent,
	})
	if err != nil {
		return fail(h.log, response.ErrRegisterFailed, err)
	}
	return response.Success(map[string]any{"user_id": u.ID})
}

// Login handles LOGIN. The token is returned both in data and as the
// response session_id.
func (h *AuthHandler) Login(ctx context.Context, r *protocol.LoginRequest) protocol.Message {
	sess, err := h.authService.Login(ctx, r.Username, r.Password)
	if err != nil {
		return fail(h.log, response.ErrLoginFailed, err)
	}

	resp := response.Success(map[string]any{
		"user_id":    sess.UserID,
		"username":   sess.Username,
		"role":       sess.Role,
		"expires_at": sess.ExpiresAt,
		"session_id": sess.Token,
	})
	resp.SessionID = sess.Token
	return resp
}

// Logout handles LOGOUT.
func (h *AuthHandler) Logout(ctx context.Context, r *protocol.LogoutRequest) protocol.Message {
	if err := h.authService.Logout(ctx, r.Token); err != nil {
		return fail(h.log, response.ErrInvalidRequest, err)
	}
	return response.Success(map[string]any{"message": "Logged out"})
}
