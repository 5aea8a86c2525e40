package model

import "google.golang.org/protobuf/proto"

// MessageKey identifies a message within a conversation.
type MessageKey struct {
	ChatID string
	ID     string
	FromMe bool
}

// IncomingMessage is one received message. Content is the raw protocol
// payload; its populated top-level fields are the message's content kinds.
type IncomingMessage struct {
	Key     MessageKey
	Sender  string
	Content proto.Message
}

// MessageBatch is a group of messages delivered together.
type MessageBatch struct {
	Type     BatchType
	Messages []IncomingMessage
}
