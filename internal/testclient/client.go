// Package testclient drives a running preview server over its WebSocket
// endpoint. The smoke-test runner uses it to exercise /ws end to end.
package testclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/dungeontopo/internal/server"
	"github.com/lawnchairsociety/dungeontopo/internal/topology"
)

// ErrNoReply is returned when the server does not answer in time.
var ErrNoReply = errors.New("testclient: no reply")

// Reply is one server answer: either a topology or an error.
type Reply struct {
	*topology.Result
	Fingerprint string `json:"fingerprint"`
	ID          string `json:"id"`

	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Failed reports whether the server answered with an error.
func (r *Reply) Failed() bool {
	return r.Error != ""
}

// TestClient represents a test client connection to the preview server
type TestClient struct {
	Name    string
	conn    *websocket.Conn
	replies chan *Reply
	mu      sync.Mutex // serializes writes
	done    chan struct{}
	err     error
}

// NewTestClient dials ws://address/ws.
func NewTestClient(name, address string) (*TestClient, error) {
	u := url.URL{Scheme: "ws", Host: address, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	client := &TestClient{
		Name:    name,
		conn:    conn,
		replies: make(chan *Reply, 16),
		done:    make(chan struct{}),
	}

	// Start reading replies in background
	go client.readReplies()

	return client, nil
}

func (c *TestClient) readReplies() {
	defer close(c.done)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.err = err
			return
		}
		var reply Reply
		if err := json.Unmarshal(msg, &reply); err != nil {
			reply.Error = fmt.Sprintf("undecodable reply: %v", err)
			reply.Kind = "client"
		}
		c.replies <- &reply
	}
}

// Send writes one raw text message.
func (c *TestClient) Send(msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

// SendRequest writes req as JSON.
func (c *TestClient) SendRequest(req server.GenerateRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return c.Send(string(data))
}

// WaitForReply returns the next reply, or ErrNoReply after timeout.
func (c *TestClient) WaitForReply(timeout time.Duration) (*Reply, error) {
	select {
	case reply := <-c.replies:
		return reply, nil
	case <-c.done:
		if c.err != nil {
			return nil, fmt.Errorf("connection closed: %w", c.err)
		}
		return nil, ErrNoReply
	case <-time.After(timeout):
		return nil, ErrNoReply
	}
}

// Generate sends req and waits for its reply.
func (c *TestClient) Generate(req server.GenerateRequest, timeout time.Duration) (*Reply, error) {
	if err := c.SendRequest(req); err != nil {
		return nil, err
	}
	return c.WaitForReply(timeout)
}

// Close closes the connection
func (c *TestClient) Close() error {
	return c.conn.Close()
}
