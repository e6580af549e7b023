// Package ws fans roster events out to streaming clients subscribed per
// match.
package ws

// Subscriber abstracts one streaming client.
type Subscriber interface {
	Send([]byte) error
	Close()
}

// Hub manages stream subscriptions keyed by match id.
type Hub struct {
	clients   map[string]map[Subscriber]struct{}
	register  chan subscription
	unreg     chan subscription
	broadcast chan event
}

type event struct {
	matchID string
	payload []byte
}

type subscription struct {
	matchID string
	client  Subscriber
}

// NewHub creates a Hub and starts its dispatch loop.
func NewHub() *Hub {
	h := &Hub{
		clients:   make(map[string]map[Subscriber]struct{}),
		register:  make(chan subscription),
		unreg:     make(chan subscription),
		broadcast: make(chan event),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case sub := <-h.register:
			if _, ok := h.clients[sub.matchID]; !ok {
				h.clients[sub.matchID] = make(map[Subscriber]struct{})
			}
			h.clients[sub.matchID][sub.client] = struct{}{}
		case sub := <-h.unreg:
			if clients, ok := h.clients[sub.matchID]; ok {
				delete(clients, sub.client)
				if len(clients) == 0 {
					delete(h.clients, sub.matchID)
				}
			}
		case ev := <-h.broadcast:
			clients, ok := h.clients[ev.matchID]
			if !ok {
				continue
			}
			for c := range clients {
				if err := c.Send(ev.payload); err != nil {
					c.Close()
					delete(clients, c)
				}
			}
			if len(clients) == 0 {
				delete(h.clients, ev.matchID)
			}
		}
	}
}

// Register subscribes a client to one match's event stream.
func (h *Hub) Register(matchID string, client Subscriber) {
	h.register <- subscription{matchID: matchID, client: client}
}

// Unregister removes a client from a match stream.
func (h *Hub) Unregister(matchID string, client Subscriber) {
	h.unreg <- subscription{matchID: matchID, client: client}
}

// Broadcast delivers payload to every client watching the match.
func (h *Hub) Broadcast(matchID string, payload []byte) {
	h.broadcast <- event{matchID: matchID, payload: payload}
}
