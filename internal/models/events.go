package models

import "encoding/json"

// Realtime event names shared between client and server.
const (
	EventJoinChat    = "join_chat"
	EventLeaveChat   = "leave_chat"
	EventSendMessage = "send_message"
	EventTyping      = "typing"

	EventJoinedChat  = "joined_chat"
	EventLeftChat    = "left_chat"
	EventMessage     = "message"
	EventUserOnline  = "userOnline"
	EventUserOffline = "userOffline"
	EventError       = "error"
)

// ClientEvent is an inbound frame on a realtime connection.
type ClientEvent struct {
	Type     string          `json:"type"`
	ChatID   int             `json:"chatId,omitempty"`
	Content  string          `json:"content,omitempty"`
	MsgType  string          `json:"msgType,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
	IsTyping bool            `json:"isTyping,omitempty"`
}

// ServerEvent is an outbound frame on a realtime connection.
type ServerEvent struct {
	Type     string       `json:"type"`
	ChatID   int          `json:"chatId,omitempty"`
	UserID   int          `json:"userId,omitempty"`
	IsTyping bool         `json:"isTyping,omitempty"`
	Message  *MessageView `json:"message,omitempty"`
	Error    string       `json:"error,omitempty"`
}
