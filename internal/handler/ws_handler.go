package handler

import (
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/metrics"
	"github.com/stemsi/quizroom/internal/protocol"
	"github.com/stemsi/quizroom/internal/response"
	"github.com/stemsi/quizroom/internal/server"
	ws "github.com/stemsi/quizroom/internal/websocket"
)

// invalidMessageAction labels replies to frames that could not be decoded.
const invalidMessageAction = "UNKNOWN"

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler bridges browser WebSocket clients onto the dispatcher. Each
// text message carries one JSON message body.
type WSHandler struct {
	dispatcher *server.Dispatcher
	upgrader   websocket.Upgrader
	active     atomic.Int64
	log        zerolog.Logger
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(dispatcher *server.Dispatcher, allowedOrigins []string, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		dispatcher: dispatcher,
		upgrader:   buildUpgrader(allowedOrigins),
		log:        log.With().Str("component", "ws_handler").Logger(),
	}
}

// Active returns the number of open gateway connections.
func (h *WSHandler) Active() int {
	return int(h.active.Load())
}

// Stream godoc
// WS /ws
// Upgrades to WebSocket and serves protocol messages until the peer leaves.
func (h *WSHandler) Stream(c *gin.Context) {
	wsConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(wsConn)
	defer conn.Close()

	h.active.Add(1)
	metrics.ConnectionOpened()
	defer func() {
		h.active.Add(-1)
		metrics.ConnectionClosed()
	}()

	wsLog := h.log.With().Str("remote", conn.RemoteAddr()).Logger()
	wsLog.Info().Msg("Gateway client connected")

	for {
		body, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		msg, err := protocol.DecodeBody(body)
		if err != nil {
			metrics.FrameError(protocol.ErrorKind(err))
			if err := conn.Send(invalidMessage(err)); err != nil {
				return
			}
			continue
		}

		if !h.dispatcher.Submit(conn, msg) {
			wsLog.Debug().Msg("Dispatcher closed, dropping client")
			return
		}
	}
}

func invalidMessage(err error) protocol.Message {
	resp := response.FailErr(response.ErrInvalidMessage, err)
	resp.Action = invalidMessageAction
	resp.Timestamp = protocol.Now()
	return resp
}
