package server

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocketClient wraps a preview WebSocket connection. Each inbound text
// message is one JSON generation request; each reply is one JSON message.
type WebSocketClient struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes
}

// NewWebSocketClient creates a new WebSocketClient from a WebSocket connection.
// maxMessageSize caps inbound messages; 0 leaves the limit unset.
func NewWebSocketClient(conn *websocket.Conn, maxMessageSize int64) *WebSocketClient {
	if maxMessageSize > 0 {
		conn.SetReadLimit(maxMessageSize)
	}
	return &WebSocketClient{conn: conn}
}

// ReadMessage returns the next non-blank message (blocking).
func (c *WebSocketClient) ReadMessage() ([]byte, error) {
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if trimmed := bytes.TrimSpace(message); len(trimmed) > 0 {
			return trimmed, nil
		}
	}
}

// ReadRequest reads and decodes the next generation request.
func (c *WebSocketClient) ReadRequest() (GenerateRequest, error) {
	var req GenerateRequest
	msg, err := c.ReadMessage()
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(msg, &req); err != nil {
		return req, &requestError{err: err}
	}
	return req, nil
}

// WriteJSON sends v as a single text message.
func (c *WebSocketClient) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close closes the WebSocket connection.
func (c *WebSocketClient) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the remote address as a string.
func (c *WebSocketClient) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
