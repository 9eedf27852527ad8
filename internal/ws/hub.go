// Package ws fans task events out to live WebSocket and SSE subscribers.
package ws

import "sync"

const (
	// outboxSize is how many payloads a subscriber may lag behind before it is dropped.
	outboxSize = 32
	// backlogSize bounds broadcasts waiting for the hub loop; beyond it events are discarded.
	backlogSize = 256
)

// Subscriber abstracts a streaming client.
type Subscriber interface {
	Send([]byte) error
	Close()
}

// Hub routes payloads to the subscribers of one owner. Owners never see each other's streams.
// The loop never writes to a connection itself: every subscriber has an outbox drained by its
// own goroutine, so a stalled client only ever blocks that goroutine.
type Hub struct {
	streams   map[string]map[Subscriber]chan []byte
	register  chan subscription
	unreg     chan subscription
	broadcast chan event
	counts    chan countRequest
	done      chan struct{}
	stopOnce  sync.Once
}

type event struct {
	ownerID string
	payload []byte
}

type subscription struct {
	ownerID string
	client  Subscriber
}

type countRequest struct {
	ownerID string
	reply   chan int
}

// NewHub creates a Hub and starts its loop.
func NewHub() *Hub {
	h := &Hub{
		streams:   make(map[string]map[Subscriber]chan []byte),
		register:  make(chan subscription),
		unreg:     make(chan subscription),
		broadcast: make(chan event, backlogSize),
		counts:    make(chan countRequest),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			for _, clients := range h.streams {
				for _, outbox := range clients {
					close(outbox)
				}
			}
			h.streams = nil
			return
		case sub := <-h.register:
			clients, ok := h.streams[sub.ownerID]
			if !ok {
				clients = make(map[Subscriber]chan []byte)
				h.streams[sub.ownerID] = clients
			}
			if _, exists := clients[sub.client]; exists {
				continue
			}
			outbox := make(chan []byte, outboxSize)
			clients[sub.client] = outbox
			go h.pump(sub.ownerID, sub.client, outbox)
		case sub := <-h.unreg:
			h.drop(sub.ownerID, sub.client)
		case ev := <-h.broadcast:
			for c, outbox := range h.streams[ev.ownerID] {
				select {
				case outbox <- ev.payload:
				default:
					// The pump may be stuck mid-write; closing the client releases it.
					h.drop(ev.ownerID, c)
					go c.Close()
				}
			}
		case req := <-h.counts:
			req.reply <- len(h.streams[req.ownerID])
		}
	}
}

// pump delivers queued payloads to client and closes it once the outbox is closed or a send fails.
func (h *Hub) pump(ownerID string, client Subscriber, outbox <-chan []byte) {
	defer client.Close()
	for payload := range outbox {
		if err := client.Send(payload); err != nil {
			h.Unregister(ownerID, client)
			return
		}
	}
}

func (h *Hub) drop(ownerID string, client Subscriber) {
	clients, ok := h.streams[ownerID]
	if !ok {
		return
	}
	outbox, ok := clients[client]
	if !ok {
		return
	}
	close(outbox)
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.streams, ownerID)
	}
}

// Register adds client to the stream of ownerID.
func (h *Hub) Register(ownerID string, client Subscriber) {
	select {
	case h.register <- subscription{ownerID: ownerID, client: client}:
	case <-h.done:
		client.Close()
	}
}

// Unregister removes client from the stream of ownerID and closes it.
func (h *Hub) Unregister(ownerID string, client Subscriber) {
	select {
	case h.unreg <- subscription{ownerID: ownerID, client: client}:
	case <-h.done:
	}
}

// Broadcast queues payload for every subscriber of ownerID. It never blocks: when the
// hub is saturated the event is discarded.
func (h *Hub) Broadcast(ownerID string, payload []byte) {
	select {
	case <-h.done:
		return
	default:
	}
	select {
	case h.broadcast <- event{ownerID: ownerID, payload: payload}:
	default:
	}
}

// Subscribers reports how many clients follow ownerID.
func (h *Hub) Subscribers(ownerID string) int {
	select {
	case <-h.done:
		return 0
	default:
	}
	req := countRequest{ownerID: ownerID, reply: make(chan int, 1)}
	select {
	case h.counts <- req:
		return <-req.reply
	case <-h.done:
		return 0
	}
}

// Stop closes every subscriber and ends the loop.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}
