package api

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FathimaMehrinVS/FixTheGap/internal/simulate"
)

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// StatusNotifier fans submission lifecycle events out to websocket clients.
// It implements simulate.Notifier.
type StatusNotifier struct {
	mu         sync.Mutex
	clients    map[*wsClient]struct{}
	lastStatus *simulate.Event
}

// NewStatusNotifier constructs a notifier instance.
func NewStatusNotifier() *StatusNotifier {
	return &StatusNotifier{clients: make(map[*wsClient]struct{})}
}

// Register attaches a websocket connection and replays the last known status
// so late joiners see the in-flight submission state.
func (n *StatusNotifier) Register(conn *websocket.Conn) *wsClient {
	client := &wsClient{conn: conn}
	n.mu.Lock()
	n.clients[client] = struct{}{}
	status := n.lastStatus
	n.mu.Unlock()

	if status != nil {
		_ = client.writeJSON(*status)
	}
	return client
}

// Unregister removes the websocket client and closes the socket.
func (n *StatusNotifier) Unregister(client *wsClient) {
	if client == nil {
		return
	}
	n.mu.Lock()
	delete(n.clients, client)
	n.mu.Unlock()
	_ = client.conn.Close()
}

// Broadcast sends the supplied event to all registered websocket clients.
func (n *StatusNotifier) Broadcast(event simulate.Event) {
	n.mu.Lock()
	snapshot := event
	n.lastStatus = &snapshot

	for client := range n.clients {
		if err := client.writeJSON(event); err != nil {
			delete(n.clients, client)
			_ = client.conn.Close()
		}
	}
	n.mu.Unlock()
}

// LastStatus returns a copy of the most recent event, if any.
func (n *StatusNotifier) LastStatus() *simulate.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.lastStatus == nil {
		return nil
	}
	copy := *n.lastStatus
	return &copy
}

func (c *wsClient) writeJSON(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(payload)
}
