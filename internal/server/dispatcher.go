package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/metrics"
	"github.com/stemsi/quizroom/internal/protocol"
	"github.com/stemsi/quizroom/internal/response"
	"github.com/stemsi/quizroom/internal/worker"
)

// Sender delivers a response to the peer a request came from.
type Sender interface {
	Send(msg protocol.Message) error
	RemoteAddr() string
}

// ActionHandler turns a parsed request into a response.
type ActionHandler interface {
	Handle(ctx context.Context, msg protocol.Message, req protocol.Request) protocol.Message
}

// HandlerFunc adapts a function to ActionHandler.
type HandlerFunc func(ctx context.Context, msg protocol.Message, req protocol.Request) protocol.Message

func (f HandlerFunc) Handle(ctx context.Context, msg protocol.Message, req protocol.Request) protocol.Message {
	return f(ctx, msg, req)
}

// Authorizer is implemented by handlers that check the session of a message
// before its data is decoded. The returned context is the one passed to
// Handle.
type Authorizer interface {
	Authorize(ctx context.Context, msg protocol.Message) (context.Context, error)
}

// Dispatcher runs every request on the worker pool and sends exactly one
// response per request.
type Dispatcher struct {
	pool    *worker.Pool
	handler ActionHandler
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher feeding pool.
func NewDispatcher(pool *worker.Pool, handler ActionHandler, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		pool:    pool,
		handler: handler,
		log:     log.With().Str("component", "dispatcher").Logger(),
	}
}

// Submit queues msg for processing; the response goes back through to.
// It returns false when the pool is shutting down.
func (d *Dispatcher) Submit(to Sender, msg protocol.Message) bool {
	return d.pool.Enqueue(func() {
		resp := d.Process(msg)
		if err := to.Send(resp); err != nil {
			d.log.Debug().
				Err(err).
				Str("remote", to.RemoteAddr()).
				Str("action", msg.Action).
				Msg("Response dropped, peer gone")
		}
	})
}

// Process handles one request synchronously and returns its response. Once
// dispatched a request runs to completion; its context carries no deadline.
func (d *Dispatcher) Process(msg protocol.Message) protocol.Message {
	start := time.Now()
	label := msg.Action

	resp := d.process(context.Background(), msg)
	if resp.ErrorCode == string(response.ErrUnknownAction) {
		label = "unknown"
	}

	resp = stamp(resp, msg)
	metrics.ObserveRequest(label, string(resp.Status), time.Since(start))
	return resp
}

func (d *Dispatcher) process(ctx context.Context, msg protocol.Message) protocol.Message {
	req, err := protocol.RequestFor(msg.Action)
	if errors.Is(err, protocol.ErrUnknownAction) {
		return response.Fail(response.ErrUnknownAction, "")
	}

	if auth, ok := d.handler.(Authorizer); ok && protocol.Authenticated(req) {
		if ctx, err = auth.Authorize(ctx, msg); err != nil {
			return response.FailErr(response.ErrUnauthorized, err)
		}
	}

	if err := protocol.DecodeRequest(msg, req); err != nil {
		return response.Fail(response.ErrInvalidRequest, err.Error())
	}
	return d.invoke(ctx, msg, req)
}

// invoke runs the handler, turning a panic into HANDLER_ERROR.
func (d *Dispatcher) invoke(ctx context.Context, msg protocol.Message, req protocol.Request) (resp protocol.Message) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().
				Str("action", msg.Action).
				Interface("panic", r).
				Msg("Handler panicked")
			resp = response.Fail(response.ErrHandler, fmt.Sprintf("handler error: %v", r))
		}
	}()
	return d.handler.Handle(ctx, msg, req)
}

// stamp forces the response shape: RESPONSE type, a fresh timestamp and the
// request's action and session when the handler left them empty.
func stamp(resp, req protocol.Message) protocol.Message {
	resp.Type = protocol.TypeResponse
	resp.Timestamp = protocol.Now()
	if resp.Action == "" {
		resp.Action = req.Action
	}
	if resp.SessionID == "" {
		resp.SessionID = req.SessionID
	}
	if resp.Status == protocol.StatusNone {
		resp.Status = protocol.StatusSuccess
	}
	return resp
}
