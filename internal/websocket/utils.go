package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stemsi/quizroom/internal/protocol"
)

const (
	writeWait = 10 * time.Second
	readWait  = 5 * time.Minute
)

// Conn carries protocol messages as WebSocket text frames. Writes are
// serialized; gorilla connections allow only one concurrent writer.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

// NewConn wraps an upgraded connection. Messages larger than a protocol
// frame close the connection with CloseMessageTooBig.
func NewConn(ws *websocket.Conn) *Conn {
	ws.SetReadLimit(protocol.MaxPayloadSize)
	return &Conn{ws: ws}
}

// Send writes msg as one JSON text frame.
func (c *Conn) Send(msg protocol.Message) error {
	body, err := protocol.EncodeBody(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, body)
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}

// ReadMessage reads the next frame. Binary frames are returned as-is and
// decoded like text ones.
func (c *Conn) ReadMessage() ([]byte, error) {
	c.ws.SetReadDeadline(time.Now().Add(readWait))
	_, data, err := c.ws.ReadMessage()
	return data, err
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.ws.Close()
}
