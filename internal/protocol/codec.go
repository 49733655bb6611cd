package protocol

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"
)

const (
	// FramePrefixBytes is the size of the big-endian length prefix.
	FramePrefixBytes = 4
	// MaxPayloadSize bounds the body of a single frame.
	MaxPayloadSize = 1024 * 1024
)

var (
	ErrFrameTooSmall   = errors.New("frame shorter than length prefix")
	ErrPayloadTooLarge = errors.New("payload exceeds maximum size")
	ErrLengthMismatch  = errors.New("declared length does not match payload")
	ErrInvalidUTF8     = errors.New("payload is not valid UTF-8")
	ErrMalformedBody   = errors.New("payload is not a JSON object")
)

// SchemaError reports a body that parsed as JSON but is not a valid message.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid message: %s %s", e.Field, e.Reason)
}

// Encode renders msg as a length-prefixed frame.
func Encode(msg Message) ([]byte, error) {
	body, err := EncodeBody(msg)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, FramePrefixBytes+len(body))
	binary.BigEndian.PutUint32(frame, uint32(len(body)))
	copy(frame[FramePrefixBytes:], body)
	return frame, nil
}

// EncodeBody renders msg as a JSON body without the length prefix.
func EncodeBody(msg Message) ([]byte, error) {
	data := msg.DataObject()
	if !isObject(data) {
		return nil, &SchemaError{Field: "data", Reason: "must be an object"}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(wireMessage{
		MessageType:  msg.Type,
		Action:       msg.Action,
		Timestamp:    msg.Timestamp,
		SessionID:    msg.SessionID,
		Data:         data,
		Status:       msg.Status,
		ErrorCode:    msg.ErrorCode,
		ErrorMessage: msg.ErrorMessage,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}

	body := bytes.TrimRight(buf.Bytes(), "\n")
	if len(body) > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}
	if !utf8.Valid(body) {
		return nil, ErrInvalidUTF8
	}
	return body, nil
}

// Decode parses and validates a complete length-prefixed frame.
func Decode(frame []byte) (Message, error) {
	if len(frame) < FramePrefixBytes {
		return Message{}, ErrFrameTooSmall
	}
	declared := binary.BigEndian.Uint32(frame)
	if declared > MaxPayloadSize {
		return Message{}, ErrPayloadTooLarge
	}
	body := frame[FramePrefixBytes:]
	if uint32(len(body)) != declared {
		return Message{}, ErrLengthMismatch
	}
	return DecodeBody(body)
}

// DecodeBody parses and validates a JSON body.
func DecodeBody(body []byte) (Message, error) {
	if len(body) > MaxPayloadSize {
		return Message{}, ErrPayloadTooLarge
	}
	if !utf8.Valid(body) {
		return Message{}, ErrInvalidUTF8
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return Message{}, ErrMalformedBody
	}

	var msg Message

	// message_type
	typ, err := requiredString(fields, "message_type")
	if err != nil {
		return Message{}, err
	}
	msg.Type = MessageType(typ)
	if !msg.Type.valid() {
		return Message{}, &SchemaError{Field: "message_type", Reason: "must be REQUEST, RESPONSE or NOTIFICATION"}
	}

	// action
	if msg.Action, err = requiredString(fields, "action"); err != nil {
		return Message{}, err
	}
	if msg.Action == "" {
		return Message{}, &SchemaError{Field: "action", Reason: "must not be empty"}
	}

	// timestamp
	raw, ok := present(fields, "timestamp")
	if !ok {
		return Message{}, &SchemaError{Field: "timestamp", Reason: "is required"}
	}
	if msg.Timestamp, err = strconv.ParseUint(string(bytes.TrimSpace(raw)), 10, 64); err != nil {
		return Message{}, &SchemaError{Field: "timestamp", Reason: "must be a non-negative integer"}
	}

	if msg.SessionID, err = optionalString(fields, "session_id"); err != nil {
		return Message{}, err
	}

	// data
	msg.Data = emptyObject
	if raw, ok := present(fields, "data"); ok {
		if !isObject(raw) {
			return Message{}, &SchemaError{Field: "data", Reason: "must be an object"}
		}
		msg.Data = raw
	}

	// status
	status, err := optionalString(fields, "status")
	if err != nil {
		return Message{}, err
	}
	if _, ok := present(fields, "status"); ok {
		msg.Status = Status(status)
		if !msg.Status.valid() {
			return Message{}, &SchemaError{Field: "status", Reason: "must be SUCCESS or ERROR"}
		}
	}
	if msg.Type == TypeResponse && msg.Status == StatusNone {
		return Message{}, &SchemaError{Field: "status", Reason: "is required on RESPONSE"}
	}

	if msg.ErrorCode, err = optionalString(fields, "error_code"); err != nil {
		return Message{}, err
	}
	if msg.ErrorMessage, err = optionalString(fields, "error_message"); err != nil {
		return Message{}, err
	}

	return msg, nil
}

// ReadFrame reads one complete frame from r. It returns io.EOF only when the
// stream ends cleanly before a new frame starts.
func ReadFrame(r io.Reader) ([]byte, error) {
	var prefix [FramePrefixBytes]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read frame prefix: %w", err)
	}

	size := binary.BigEndian.Uint32(prefix[:])
	if size > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}

	frame := make([]byte, FramePrefixBytes+int(size))
	copy(frame, prefix[:])
	if _, err := io.ReadFull(r, frame[FramePrefixBytes:]); err != nil {
		return nil, fmt.Errorf("read frame body: %w", err)
	}
	return frame, nil
}

// WriteFrame writes a complete frame to w.
func WriteFrame(w io.Writer, frame []byte) error {
	for len(frame) > 0 {
		n, err := w.Write(frame)
		if err != nil {
			return fmt.Errorf("write frame: %w", err)
		}
		frame = frame[n:]
	}
	return nil
}

// present returns the raw field value, treating JSON null as absent.
func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok || string(bytes.TrimSpace(raw)) == "null" {
		return nil, false
	}
	return raw, true
}

func requiredString(fields map[string]json.RawMessage, key string) (string, error) {
	raw, ok := present(fields, key)
	if !ok {
		return "", &SchemaError{Field: key, Reason: "is required"}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &SchemaError{Field: key, Reason: "must be a string"}
	}
	return s, nil
}

func optionalString(fields map[string]json.RawMessage, key string) (string, error) {
	if _, ok := present(fields, key); !ok {
		return "", nil
	}
	return requiredString(fields, key)
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	return json.Valid(trimmed)
}

// ErrorKind names a decode failure for logs and metrics.
func ErrorKind(err error) string {
	var schemaErr *SchemaError
	switch {
	case errors.Is(err, ErrFrameTooSmall):
		return "frame_too_small"
	case errors.Is(err, ErrPayloadTooLarge):
		return "payload_too_large"
	case errors.Is(err, ErrLengthMismatch):
		return "length_mismatch"
	case errors.Is(err, ErrInvalidUTF8):
		return "invalid_utf8"
	case errors.Is(err, ErrMalformedBody):
		return "malformed_body"
	case errors.As(err, &schemaErr):
		return "schema"
	}
	return "unknown"
}
