package server

import (
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketClient reads command lines from and writes replies to one
// websocket connection.
type WebSocketClient struct {
	conn    *websocket.Conn
	pending []string // remaining lines of a multi-line message

	writeMu sync.Mutex
}

// NewWebSocketClient wraps conn.
func NewWebSocketClient(conn *websocket.Conn) *WebSocketClient {
	return &WebSocketClient{conn: conn}
}

// ReadLine returns the next non-blank trimmed line. A message holding several
// lines is returned one line per call.
func (c *WebSocketClient) ReadLine() (string, error) {
	for len(c.pending) == 0 {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		for _, line := range strings.Split(string(message), "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				c.pending = append(c.pending, trimmed)
			}
		}
	}

	line := c.pending[0]
	c.pending = c.pending[1:]
	return line, nil
}

// WriteLine sends message as one text frame.
func (c *WebSocketClient) WriteLine(message string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, []byte(message))
}

// WriteJSON sends v encoded as JSON in one text frame.
func (c *WebSocketClient) WriteJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// Close sends a close frame with reason and closes the connection. It may be
// called while another goroutine is reading.
func (c *WebSocketClient) Close(reason string) error {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}

// RemoteAddr returns the remote address as a string.
func (c *WebSocketClient) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
