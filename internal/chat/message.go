package chat

import (
	"encoding/json"

	"github.com/hanish78780/skillbridge-chat/internal/models"
)

// Event names of the realtime protocol.
const (
	EventRegister    = "register"
	EventJoinRoom    = "join-room"
	EventLeaveRoom   = "leave-room"
	EventSendMessage = "send-message"

	EventReceiveMessage = "receive-message"
	EventOnlineUsers    = "get-online-users"
	EventNotification   = "notification"
	EventError          = "error"
)

// Envelope is one websocket frame in either direction.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SendMessage is the payload of a send-message event. Sender is accepted as
// an alias of SenderID.
type SendMessage struct {
	ConversationID string              `json:"conversationId"`
	SenderID       string              `json:"senderId,omitempty"`
	Sender         string              `json:"sender,omitempty"`
	Text           string              `json:"text"`
	Attachments    []models.Attachment `json:"attachments,omitempty"`
	ClientID       string              `json:"clientId,omitempty"` // echoed back on failure
}

func (p *SendMessage) senderID() string {
	if p.SenderID != "" {
		return p.SenderID
	}
	return p.Sender
}

// ErrorEvent tells the originating connection that one of its events was
// refused or failed.
type ErrorEvent struct {
	Event          string `json:"event"`
	ConversationID string `json:"conversationId,omitempty"`
	ClientID       string `json:"clientId,omitempty"`
	Message        string `json:"message"`
}

func encode(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Envelope{Event: event, Data: raw})
}
