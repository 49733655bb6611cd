package server

import (
	"bufio"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/metrics"
	"github.com/stemsi/quizroom/internal/protocol"
)

const writeTimeout = 10 * time.Second

// Conn is one client connection. Reads happen on its own goroutine; sends
// may come from any worker and are serialised by sendMu.
type Conn struct {
	id     string
	nc     net.Conn
	sendMu sync.Mutex
	once   sync.Once
	log    zerolog.Logger
}

func newConn(nc net.Conn, log zerolog.Logger) *Conn {
	id := uuid.NewString()
	return &Conn{
		id: id,
		nc: nc,
		log: log.With().
			Str("conn_id", id).
			Str("remote", nc.RemoteAddr().String()).
			Logger(),
	}
}

// RemoteAddr is the peer address.
func (c *Conn) RemoteAddr() string {
	return c.nc.RemoteAddr().String()
}

// Send encodes msg and writes it as one frame.
func (c *Conn) Send(msg protocol.Message) error {
	frame, err := protocol.Encode(msg)
	if err != nil {
		c.log.Error().Err(err).Str("action", msg.Action).Msg("Failed to encode response")
		return err
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	_ = c.nc.SetWriteDeadline(time.Now().Add(writeTimeout))
	return protocol.WriteFrame(c.nc, frame)
}

// Close shuts the connection. Safe to call more than once.
func (c *Conn) Close() {
	c.once.Do(func() {
		_ = c.nc.Close()
	})
}

// readLoop decodes frames until the peer leaves or the stream breaks. Bad
// frames are skipped; an oversize length prefix ends the connection because
// the stream cannot be resynchronised.
func (c *Conn) readLoop(d *Dispatcher) {
	r := bufio.NewReader(c.nc)
	for {
		frame, err := protocol.ReadFrame(r)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				c.log.Debug().Msg("Client disconnected")
			case errors.Is(err, protocol.ErrPayloadTooLarge):
				metrics.FrameError(protocol.ErrorKind(err))
				c.log.Warn().Err(err).Msg("Oversize frame, closing connection")
			case errors.Is(err, net.ErrClosed):
				c.log.Debug().Msg("Connection closed")
			default:
				c.log.Debug().Err(err).Msg("Read failed")
			}
			return
		}

		msg, err := protocol.Decode(frame)
		if err != nil {
			kind := protocol.ErrorKind(err)
			metrics.FrameError(kind)
			c.log.Warn().Err(err).Str("reason", kind).Msg("Dropping undecodable frame")
			continue
		}

		if !d.Submit(c, msg) {
			return
		}
	}
}
