package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	// client -> server
	TypeJoinRoom  MessageType = "join-room"
	TypeLeaveRoom MessageType = "leave-room"
	TypePong      MessageType = "pong"

	// server -> client
	TypeMessage    MessageType = "message"
	TypeUserJoined MessageType = "user-joined"
	TypeUserLeft   MessageType = "user-left"
	TypeRoomUsers  MessageType = "room-users"
	TypePing       MessageType = "ping"
	TypeError      MessageType = "error"
)

// Message is the envelope of every frame in both directions. RoomID carries
// the room reference as the client sent it inbound and the canonical room
// name outbound.
type Message struct {
	Type      MessageType     `json:"type"`
	RoomID    string          `json:"room_id,omitempty"`
	UserID    uuid.UUID       `json:"user_id"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// JoinPayload is the optional data of a join-room frame.
type JoinPayload struct {
	Key string `json:"key,omitempty"`
}

// EncodeFrame builds a serialized envelope.
func EncodeFrame(msgType MessageType, room string, userID uuid.UUID, data interface{}) ([]byte, error) {
	msg := Message{
		Type:      msgType,
		RoomID:    room,
		UserID:    userID,
		Timestamp: time.Now(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}
	return json.Marshal(msg)
}
