package handlers

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/gommon/log"
)

// ChatClient is one live connection attached to a room's broadcast group.
type ChatClient struct {
	ID     string // connection handle (UUID)
	UserID uint
	Conn   *websocket.Conn
	Group  *ChatGroup
	Send   chan *Frame // outbound queue, closed by the group
	ctx    context.Context
	cancel context.CancelFunc
}

func newChatClient(userID uint, conn *websocket.Conn) *ChatClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &ChatClient{
		ID:     uuid.New().String(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan *Frame, 256),
		ctx:    ctx,
		cancel: cancel,
	}
}

// ChatGroup fans frames out to every client attached to one room code.
// Register, unregister and broadcast all pass through the run loop, so the
// client set is only ever mutated from a single goroutine.
type ChatGroup struct {
	Code       string
	Clients    map[string]*ChatClient
	mu         sync.RWMutex
	Broadcast  chan *Frame
	Register   chan *ChatClient
	Unregister chan *ChatClient
	ctx        context.Context
	cancel     context.CancelFunc
}

// ChatHub is the process-wide registry of broadcast groups, keyed by room
// code. It is constructed once at startup and injected into the handlers
// that need it.
type ChatHub struct {
	groups map[string]*ChatGroup
	mu     sync.RWMutex
}

func NewChatHub() *ChatHub {
	return &ChatHub{
		groups: make(map[string]*ChatGroup),
	}
}

// getOrCreateGroup lazily creates the group for a room code on first attach.
func (h *ChatHub) getOrCreateGroup(code string) *ChatGroup {
	h.mu.Lock()
	defer h.mu.Unlock()

	if group, exists := h.groups[code]; exists {
		return group
	}

	ctx, cancel := context.WithCancel(context.Background())
	group := &ChatGroup{
		Code:       code,
		Clients:    make(map[string]*ChatClient),
		Broadcast:  make(chan *Frame, 256),
		Register:   make(chan *ChatClient, 16),
		Unregister: make(chan *ChatClient, 16),
		ctx:        ctx,
		cancel:     cancel,
	}
	h.groups[code] = group

	go group.run()

	return group
}

// Attach adds a client to the group for code, creating the group if this is
// the first connection for that room.
func (h *ChatHub) Attach(code string, client *ChatClient) {
	group := h.getOrCreateGroup(code)
	client.Group = group
	select {
	case group.Register <- client:
	case <-group.ctx.Done():
	}
}

// Detach removes the client from its group. Safe to call after the group
// has been torn down.
func (h *ChatHub) Detach(client *ChatClient) {
	group := client.Group
	if group == nil {
		return
	}
	select {
	case group.Unregister <- client:
	case <-group.ctx.Done():
	}
}

// Broadcast delivers a frame to every client currently attached to the
// room's group, the sender included. A dead room code is a no-op.
func (h *ChatHub) Broadcast(code string, frame *Frame) {
	h.mu.RLock()
	group, exists := h.groups[code]
	h.mu.RUnlock()
	if !exists {
		return
	}

	select {
	case group.Broadcast <- frame:
	case <-group.ctx.Done():
	}
}

// CloseRoom tears down the group for a dissolved room. Attached clients get
// their send queues closed, which makes their write pumps send a close
// frame and exit.
func (h *ChatHub) CloseRoom(code string) {
	h.mu.Lock()
	group, exists := h.groups[code]
	if exists {
		delete(h.groups, code)
	}
	h.mu.Unlock()

	if exists {
		group.cancel()
	}
}

// ClientCount reports how many clients are attached to the group for code.
func (h *ChatHub) ClientCount(code string) int {
	h.mu.RLock()
	group, exists := h.groups[code]
	h.mu.RUnlock()
	if !exists {
		return 0
	}

	group.mu.RLock()
	defer group.mu.RUnlock()
	return len(group.Clients)
}

// run is the group's dispatch loop.
func (g *ChatGroup) run() {
	for {
		select {
		case <-g.ctx.Done():
			g.mu.Lock()
			for id, client := range g.Clients {
				delete(g.Clients, id)
				close(client.Send)
			}
			g.mu.Unlock()
			return

		case client := <-g.Register:
			g.mu.Lock()
			g.Clients[client.ID] = client
			g.mu.Unlock()

		case client := <-g.Unregister:
			g.remove(client)

		case frame := <-g.Broadcast:
			g.mu.RLock()
			clients := make([]*ChatClient, 0, len(g.Clients))
			for _, client := range g.Clients {
				clients = append(clients, client)
			}
			g.mu.RUnlock()

			for _, client := range clients {
				select {
				case client.Send <- frame:
				default:
					// Delivery is fire-and-forget: a client that cannot
					// keep up is dropped, the rest still receive.
					log.Warnf("Client %s send buffer full, disconnecting", client.ID)
					g.remove(client)
				}
			}
		}
	}
}

func (g *ChatGroup) remove(client *ChatClient) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.Clients[client.ID]; ok {
		delete(g.Clients, client.ID)
		close(client.Send)
	}
}
