package server

import (
	"log"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kuidando/kuidando/mapsync"
	"github.com/kuidando/kuidando/models"
)

// liveMapCommand is one outbound instruction for the client-side map.
type liveMapCommand struct {
	Op       string          `json:"op"`
	Marker   *mapsync.Marker `json:"marker,omitempty"`
	ID       string          `json:"id,omitempty"`
	Lat      float64         `json:"lat,omitempty"`
	Lng      float64         `json:"lng,omitempty"`
	Zoom     float64         `json:"zoom,omitempty"`
	OffsetY  int             `json:"offset_y,omitempty"`
	ReportID string          `json:"report_id,omitempty"`
	Open     bool            `json:"open,omitempty"`
}

// liveMapMessage is one inbound client gesture.
type liveMapMessage struct {
	Type     string  `json:"type"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	ReportID string  `json:"report_id"`
	Mode     string  `json:"mode"`
}

// wsSurface turns Surface calls into outbound websocket commands. It is the
// production implementation of mapsync.Surface.
type wsSurface struct {
	mu   sync.Mutex
	conn *websocket.Conn
	err  error
}

func (w *wsSurface) send(cmd liveMapCommand) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return
	}
	w.err = w.conn.WriteJSON(cmd)
}

func (w *wsSurface) AddMarker(m mapsync.Marker) {
	w.send(liveMapCommand{Op: "add_marker", Marker: &m})
}

func (w *wsSurface) MoveMarker(id string, lat, lng float64) {
	w.send(liveMapCommand{Op: "move_marker", ID: id, Lat: lat, Lng: lng})
}

func (w *wsSurface) RemoveMarker(id string) {
	w.send(liveMapCommand{Op: "remove_marker", ID: id})
}

func (w *wsSurface) RemovePopup() {
	w.send(liveMapCommand{Op: "remove_popup"})
}

func (w *wsSurface) FlyTo(lat, lng float64, zoom float64, offsetY int) {
	w.send(liveMapCommand{Op: "fly_to", Lat: lat, Lng: lng, Zoom: zoom, OffsetY: offsetY})
}

// handleLiveMap owns one synchronizer per connection. The session loads the
// current reports, mirrors every later change event onto the client's map
// and feeds client gestures back into the synchronizer. Everything the
// session placed on the surface is released when the connection closes.
func (s *Server) handleLiveMap() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("live map upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		surface := &wsSurface{conn: conn}
		syncer := mapsync.New(surface)
		defer syncer.Close()

		syncer.OnSelectionChanged(func(lat, lng float64) {
			surface.send(liveMapCommand{Op: "selection_changed", Lat: lat, Lng: lng})
		})
		syncer.OnPanelChanged(func(reportID uuid.UUID, open bool) {
			surface.send(liveMapCommand{Op: "panel", ReportID: reportID.String(), Open: open})
		})

		userID := currentUserID(c)
		syncer.SetReports(s.loadMapReports(userID))

		feedClient := s.Feed.subscribe(conn)
		defer s.Feed.unsubscribe(feedClient)

		inbound := make(chan liveMapMessage)
		readDone := make(chan struct{})
		quit := make(chan struct{})
		defer close(quit)
		go func() {
			defer close(readDone)
			for {
				var msg liveMapMessage
				if err := conn.ReadJSON(&msg); err != nil {
					return
				}
				select {
				case inbound <- msg:
				case <-quit:
					return
				}
			}
		}()

		for {
			select {
			case msg := <-inbound:
				s.dispatchMapMessage(syncer, msg)
			case _, ok := <-feedClient.send:
				if !ok {
					return
				}
				// Any report change invalidates the whole list.
				syncer.SetReports(s.loadMapReports(userID))
			case <-readDone:
				return
			}
		}
	}
}

func (s *Server) dispatchMapMessage(syncer *mapsync.Synchronizer, msg liveMapMessage) {
	switch msg.Type {
	case "map_click":
		syncer.MapClicked(msg.Lat, msg.Lng)
	case "marker_click":
		if id, err := uuid.Parse(msg.ReportID); err == nil {
			syncer.MarkerClicked(id)
		}
	case "drag_end":
		syncer.DragEnd(msg.Lat, msg.Lng)
	case "set_mode":
		if msg.Mode == "select" {
			syncer.SetMode(mapsync.ModeSelect)
		} else {
			syncer.SetMode(mapsync.ModeView)
		}
	case "user_panned":
		syncer.UserPanned()
	case "geolocation":
		syncer.GeolocationFix(msg.Lat, msg.Lng)
	}
}

func (s *Server) loadMapReports(userID uint) []models.Report {
	responses, apiErr := s.ReportService.ListReports(1, 500, userID)
	if apiErr != nil {
		log.Printf("live map report load failed: %v", apiErr)
		return nil
	}
	reports := make([]models.Report, 0, len(responses))
	for _, r := range responses {
		reports = append(reports, r.Report)
	}
	return reports
}
