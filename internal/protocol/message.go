package protocol

import (
	"encoding/json"
	"time"
)

// ─── Message Kinds ──────────────────────────────────────────────────

type MessageType string

const (
	TypeRequest      MessageType = "REQUEST"
	TypeResponse     MessageType = "RESPONSE"
	TypeNotification MessageType = "NOTIFICATION"
)

func (t MessageType) valid() bool {
	switch t {
	case TypeRequest, TypeResponse, TypeNotification:
		return true
	}
	return false
}

// Status is the outcome carried by a response. The zero value means no status.
type Status string

const (
	StatusNone    Status = ""
	StatusSuccess Status = "SUCCESS"
	StatusError   Status = "ERROR"
)

func (s Status) valid() bool {
	return s == StatusSuccess || s == StatusError
}

// Message is one protocol unit exchanged over a connection.
type Message struct {
	Type         MessageType
	Action       string
	Timestamp    uint64
	SessionID    string
	Data         json.RawMessage
	Status       Status
	ErrorCode    string
	ErrorMessage string
}

// wireMessage is the JSON body layout of a frame.
type wireMessage struct {
	MessageType  MessageType     `json:"message_type"`
	Action       string          `json:"action"`
	Timestamp    uint64          `json:"timestamp"`
	SessionID    string          `json:"session_id,omitempty"`
	Data         json.RawMessage `json:"data"`
	Status       Status          `json:"status,omitempty"`
	ErrorCode    string          `json:"error_code,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

var emptyObject = json.RawMessage("{}")

// NewRequest builds a REQUEST stamped with the current time.
func NewRequest(action Action, sessionID string, data any) (Message, error) {
	raw, err := marshalData(data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Type:      TypeRequest,
		Action:    string(action),
		Timestamp: Now(),
		SessionID: sessionID,
		Data:      raw,
	}, nil
}

// Now returns the protocol timestamp (unix seconds).
func Now() uint64 {
	return uint64(time.Now().Unix())
}

// DataObject returns Data, substituting {} when it is empty.
func (m Message) DataObject() json.RawMessage {
	if len(m.Data) == 0 {
		return emptyObject
	}
	return m.Data
}

// UnmarshalData decodes the data object into v.
func (m Message) UnmarshalData(v any) error {
	return json.Unmarshal(m.DataObject(), v)
}

func marshalData(data any) (json.RawMessage, error) {
	switch d := data.(type) {
	case nil:
		return emptyObject, nil
	case json.RawMessage:
		if len(d) == 0 {
			return emptyObject, nil
		}
		return d, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	if string(raw) == "null" {
		return emptyObject, nil
	}
	return raw, nil
}

// SetData marshals v into the message data object.
func (m *Message) SetData(v any) error {
	raw, err := marshalData(v)
	if err != nil {
		return err
	}
	m.Data = raw
	return nil
}
