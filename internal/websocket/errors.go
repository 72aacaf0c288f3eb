package websocket

import "errors"

var (
	ErrClientQueueFull = errors.New("client message queue is full")
	ErrClientClosed    = errors.New("client is disconnected")
	ErrInvalidMessage  = errors.New("invalid message format")
	ErrUnsupportedType = errors.New("unsupported message type")
)
