package server

import (
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kuidando/kuidando/models"
)

// Event is one change notification on the reports table. Subscribers treat
// any event as a signal to refetch the list.
type Event struct {
	Type       string                 `json:"type"`
	ReportID   uuid.UUID              `json:"report_id,omitempty"`
	Report     *models.ReportResponse `json:"report,omitempty"`
	Supporters int                    `json:"supporters,omitempty"`
}

const (
	EventReportCreated   = "report_created"
	EventReportUpdated   = "report_updated"
	EventReportDeleted   = "report_deleted"
	EventReportSupported = "report_supported"
)

// Hub fans report events out to subscribed websocket clients. A client
// whose send queue fills up is dropped rather than backpressuring the rest.
type Hub struct {
	mu      sync.Mutex
	clients map[*hubClient]bool
	stopped bool
}

type hubClient struct {
	send chan Event
	conn *websocket.Conn
}

const clientQueueSize = 32

func NewHub() *Hub {
	return &Hub{clients: make(map[*hubClient]bool)}
}

func (h *Hub) subscribe(conn *websocket.Conn) *hubClient {
	client := &hubClient{
		send: make(chan Event, clientQueueSize),
		conn: conn,
	}
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		close(client.send)
		return client
	}
	h.clients[client] = true
	h.mu.Unlock()
	return client
}

func (h *Hub) unsubscribe(client *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *Hub) broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	for client := range h.clients {
		select {
		case client.send <- ev:
		default:
			// Slow consumer: drop it so the rest keep flowing.
			delete(h.clients, client)
			close(client.send)
		}
	}
}

// Stop closes every client queue. No events are delivered afterwards.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	h.stopped = true
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}

// ClientCount reports how many subscribers are connected.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Hub implements services.Broadcaster.

func (h *Hub) ReportCreated(report models.ReportResponse) {
	h.broadcast(Event{Type: EventReportCreated, ReportID: report.ID, Report: &report})
}

func (h *Hub) ReportUpdated(report models.ReportResponse) {
	h.broadcast(Event{Type: EventReportUpdated, ReportID: report.ID, Report: &report})
}

func (h *Hub) ReportDeleted(reportID uuid.UUID) {
	h.broadcast(Event{Type: EventReportDeleted, ReportID: reportID})
}

func (h *Hub) ReportSupported(reportID uuid.UUID, supporters int) {
	h.broadcast(Event{Type: EventReportSupported, ReportID: reportID, Supporters: supporters})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleChangefeed upgrades the connection and streams report events until
// the client goes away.
func (s *Server) handleChangefeed() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("changefeed upgrade failed: %v", err)
			return
		}

		client := s.Feed.subscribe(conn)
		defer func() {
			s.Feed.unsubscribe(client)
			conn.Close()
		}()

		// Reader goroutine: we ignore inbound frames but need the read loop
		// to notice the close handshake.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case ev, ok := <-client.send:
				if !ok {
					return
				}
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}
}
