package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/protocol"
	"github.com/stemsi/quizroom/internal/response"
	"github.com/stemsi/quizroom/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler() ActionHandler {
	return HandlerFunc(func(_ context.Context, msg protocol.Message, req protocol.Request) protocol.Message {
		if echo, ok := req.(*protocol.EchoRequest); ok {
			return response.Success(echo.Data)
		}
		return response.Success(map[string]string{"action": msg.Action})
	})
}

func newTestDispatcher(t *testing.T, h ActionHandler) *Dispatcher {
	t.Helper()
	pool := worker.NewPool(2, zerolog.Nop())
	t.Cleanup(pool.Shutdown)
	return NewDispatcher(pool, h, zerolog.Nop())
}

func requestMsg(action, session, data string) protocol.Message {
	return protocol.Message{
		Type:      protocol.TypeRequest,
		Action:    action,
		Timestamp: 1,
		SessionID: session,
		Data:      json.RawMessage(data),
	}
}

func TestProcessEcho(t *testing.T) {
	d := newTestDispatcher(t, echoHandler())

	resp := d.Process(requestMsg("ECHO", "tok", `{"hello":"world"}`))

	assert.Equal(t, protocol.TypeResponse, resp.Type)
	assert.Equal(t, protocol.StatusSuccess, resp.Status)
	assert.Equal(t, "ECHO", resp.Action)
	assert.Equal(t, "tok", resp.SessionID)
	assert.JSONEq(t, `{"hello":"world"}`, string(resp.Data))
	assert.NotZero(t, resp.Timestamp)
}

func TestProcessUnknownAction(t *testing.T) {
	d := newTestDispatcher(t, echoHandler())

	resp := d.Process(requestMsg("TELEPORT", "", `{}`))

	assert.Equal(t, protocol.StatusError, resp.Status)
	assert.Equal(t, string(response.ErrUnknownAction), resp.ErrorCode)
	assert.Equal(t, "TELEPORT", resp.Action)
}

func TestProcessInvalidData(t *testing.T) {
	d := newTestDispatcher(t, echoHandler())

	resp := d.Process(requestMsg("JOIN_ROOM", "tok", `{"room_id":"abc"}`))

	assert.Equal(t, protocol.StatusError, resp.Status)
	assert.Equal(t, string(response.ErrInvalidRequest), resp.ErrorCode)
	assert.NotEmpty(t, resp.ErrorMessage)
}

func TestProcessRecoversFromPanic(t *testing.T) {
	d := newTestDispatcher(t, HandlerFunc(func(context.Context, protocol.Message, protocol.Request) protocol.Message {
		panic("nil map")
	}))

	resp := d.Process(requestMsg("ECHO", "", `{}`))

	assert.Equal(t, protocol.StatusError, resp.Status)
	assert.Equal(t, string(response.ErrHandler), resp.ErrorCode)
	assert.Contains(t, resp.ErrorMessage, "nil map")
}

func TestProcessKeepsHandlerSession(t *testing.T) {
	d := newTestDispatcher(t, HandlerFunc(func(context.Context, protocol.Message, protocol.Request) protocol.Message {
		resp := response.Success(nil)
		resp.SessionID = "fresh"
		return resp
	}))

	resp := d.Process(requestMsg("LOGIN", "", `{"username":"a","password":"b"}`))
	assert.Equal(t, "fresh", resp.SessionID)
	assert.JSONEq(t, `{}`, string(resp.Data))
}

func TestProcessHandlerContextHasNoDeadline(t *testing.T) {
	var hasDeadline bool
	d := newTestDispatcher(t, HandlerFunc(func(ctx context.Context, _ protocol.Message, _ protocol.Request) protocol.Message {
		_, hasDeadline = ctx.Deadline()
		return response.Success(nil)
	}))

	resp := d.Process(requestMsg("ECHO", "", `{}`))

	require.Equal(t, protocol.StatusSuccess, resp.Status)
	assert.False(t, hasDeadline)
}

type sessionKey struct{}

// gatedHandler rejects every token except "good" and records what reaches
// Handle.
type gatedHandler struct {
	authorized int
	handled    []string
}

func (g *gatedHandler) Authorize(ctx context.Context, msg protocol.Message) (context.Context, error) {
	g.authorized++
	if msg.SessionID != "good" {
		return ctx, errors.New("Session not found")
	}
	return context.WithValue(ctx, sessionKey{}, msg.SessionID), nil
}

func (g *gatedHandler) Handle(ctx context.Context, msg protocol.Message, _ protocol.Request) protocol.Message {
	sess, _ := ctx.Value(sessionKey{}).(string)
	g.handled = append(g.handled, msg.Action+":"+sess)
	return response.Success(nil)
}

func TestProcessChecksSessionBeforeData(t *testing.T) {
	h := &gatedHandler{}
	d := newTestDispatcher(t, h)

	resp := d.Process(requestMsg("JOIN_ROOM", "bad", `{"room_id":"abc"}`))
	assert.Equal(t, string(response.ErrUnauthorized), resp.ErrorCode)
	assert.Equal(t, "Session not found", resp.ErrorMessage)

	resp = d.Process(requestMsg("JOIN_ROOM", "good", `{"room_id":"abc"}`))
	assert.Equal(t, string(response.ErrInvalidRequest), resp.ErrorCode)

	resp = d.Process(requestMsg("JOIN_ROOM", "good", `{"room_id":7}`))
	assert.Equal(t, protocol.StatusSuccess, resp.Status)

	// Open actions skip the session check.
	resp = d.Process(requestMsg("LOGIN", "", `{}`))
	assert.Equal(t, string(response.ErrInvalidRequest), resp.ErrorCode)

	assert.Equal(t, 3, h.authorized)
	assert.Equal(t, []string{"JOIN_ROOM:good"}, h.handled)
}

type capture struct {
	mu   sync.Mutex
	got  []protocol.Message
	done chan struct{}
	want int
	err  error
}

func newCapture(want int) *capture {
	return &capture{done: make(chan struct{}), want: want}
}

func (c *capture) Send(msg protocol.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, msg)
	if len(c.got) == c.want {
		close(c.done)
	}
	return c.err
}

func (c *capture) RemoteAddr() string { return "test" }

func (c *capture) wait(t *testing.T) []protocol.Message {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("responses never arrived")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]protocol.Message(nil), c.got...)
}

func TestSubmitSendsOneResponsePerRequest(t *testing.T) {
	d := newTestDispatcher(t, echoHandler())
	to := newCapture(20)

	for i := 0; i < 20; i++ {
		require.True(t, d.Submit(to, requestMsg("ECHO", "", `{}`)))
	}

	got := to.wait(t)
	assert.Len(t, got, 20)
	for _, m := range got {
		assert.Equal(t, protocol.StatusSuccess, m.Status)
	}
}

func TestSubmitSurvivesSendFailure(t *testing.T) {
	d := newTestDispatcher(t, echoHandler())
	to := newCapture(1)
	to.err = errors.New("broken pipe")

	require.True(t, d.Submit(to, requestMsg("ECHO", "", `{}`)))
	assert.Len(t, to.wait(t), 1)
}

func TestSubmitAfterPoolShutdown(t *testing.T) {
	pool := worker.NewPool(1, zerolog.Nop())
	d := NewDispatcher(pool, echoHandler(), zerolog.Nop())
	pool.Shutdown()

	assert.False(t, d.Submit(newCapture(1), requestMsg("ECHO", "", `{}`)))
}
