package response

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizroom/internal/protocol"
)

// Success builds a SUCCESS response carrying data. The dispatcher stamps
// the type, action, timestamp and session.
func Success(data any) protocol.Message {
	msg := protocol.Message{
		Type:   protocol.TypeResponse,
		Status: protocol.StatusSuccess,
	}
	if err := msg.SetData(data); err != nil {
		return Fail(ErrHandler, "encode response: "+err.Error())
	}
	return msg
}

// Fail builds an ERROR response. An empty message falls back to the
// code's default.
func Fail(code ErrCode, message string) protocol.Message {
	if message == "" {
		message = GetMessage(code)
	}
	return protocol.Message{
		Type:         protocol.TypeResponse,
		Status:       protocol.StatusError,
		ErrorCode:    string(code),
		ErrorMessage: message,
	}
}

// FailErr builds an ERROR response from err.
func FailErr(code ErrCode, err error) protocol.Message {
	if err == nil {
		return Fail(code, "")
	}
	return Fail(code, err.Error())
}

// ────────────────────────────────────────────────────────────────────────────
// HTTP envelope for the ops endpoints
// ────────────────────────────────────────────────────────────────────────────

// Response is the JSON envelope of the HTTP endpoints.
type Response struct {
	Data     any        `json:"data"`
	Error    *ErrorBody `json:"error,omitempty"`
	Metadata Metadata   `json:"metadata"`
}

// ErrorBody represents a structured error response.
type ErrorBody struct {
	Code    ErrCode `json:"code"`
	Message string  `json:"message"`
}

// Metadata includes request tracing and timing.
type Metadata struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// JSON sends a successful HTTP response.
func JSON(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, Response{Data: data, Metadata: buildMetadata(c)})
}

// AbortFail aborts the middleware chain and sends an error response.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, Response{
		Error:    &ErrorBody{Code: code, Message: GetMessage(code)},
		Metadata: buildMetadata(c),
	})
}

func buildMetadata(c *gin.Context) Metadata {
	return Metadata{
		RequestID: RequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
