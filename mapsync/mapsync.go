// Package mapsync keeps a map surface in step with the current report list
// and with the user's selection gestures. It is transport-agnostic: the
// Surface interface is implemented by the websocket live-map session in
// production and by a fake in tests.
package mapsync

import (
	"sync"

	"github.com/google/uuid"
	"github.com/kuidando/kuidando/models"
)

const (
	// DefaultZoom is the initial viewport zoom over the city.
	DefaultZoom = 14
	// FocusZoom is applied when a single report or location is focused.
	FocusZoom = 16
	// PanelOffsetY shifts the focused marker up so the detail panel does
	// not cover it.
	PanelOffsetY = -150

	selectionMarkerID = "selection"
)

// Mode switches the synchronizer between browsing and picking a location.
type Mode int

const (
	ModeView Mode = iota
	ModeSelect
)

// Marker is one pin on the surface.
type Marker struct {
	ID        string  `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Color     string  `json:"color"`
	Draggable bool    `json:"draggable"`
}

// Surface is the capability set the synchronizer needs from a map. All
// calls happen with the synchronizer lock held; implementations must not
// call back into the synchronizer.
type Surface interface {
	AddMarker(m Marker)
	MoveMarker(id string, lat, lng float64)
	RemoveMarker(id string)
	RemovePopup()
	FlyTo(lat, lng float64, zoom float64, offsetY int)
}

type markerPos struct {
	lat, lng float64
	color    string
}

// Synchronizer owns every marker it ever placed on its surface and removes
// them all on Close.
type Synchronizer struct {
	mu      sync.Mutex
	surface Surface

	markers      map[uuid.UUID]markerPos
	hasSelection bool
	selLat       float64
	selLng       float64

	mode         Mode
	activeReport uuid.UUID
	userPanned   bool
	closed       bool

	onSelectionChanged func(lat, lng float64)
	onPanelChanged     func(reportID uuid.UUID, open bool)
}

func New(surface Surface) *Synchronizer {
	return &Synchronizer{
		surface: surface,
		markers: make(map[uuid.UUID]markerPos),
	}
}

// OnSelectionChanged registers the callback fired when the selection marker
// lands somewhere new, by click or by drag.
func (s *Synchronizer) OnSelectionChanged(fn func(lat, lng float64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSelectionChanged = fn
}

// OnPanelChanged registers the callback fired when the detail panel opens
// or closes.
func (s *Synchronizer) OnPanelChanged(fn func(reportID uuid.UUID, open bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPanelChanged = fn
}

// SetReports reconciles the surface against the given list: one marker per
// unique report id, stale markers removed, moved reports moved. Duplicate
// ids in the input collapse to one marker. If the active report is gone
// from the new list the detail panel closes.
func (s *Synchronizer) SetReports(reports []models.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	next := make(map[uuid.UUID]markerPos, len(reports))
	for _, r := range reports {
		if _, dup := next[r.ID]; dup {
			continue
		}
		next[r.ID] = markerPos{
			lat:   r.Latitude,
			lng:   r.Longitude,
			color: models.SeverityColor(r.Severity),
		}
	}

	for id, cur := range s.markers {
		want, ok := next[id]
		if !ok {
			s.surface.RemoveMarker(id.String())
			delete(s.markers, id)
			continue
		}
		if want.color != cur.color {
			// Color changes need a fresh pin.
			s.surface.RemoveMarker(id.String())
			s.surface.AddMarker(Marker{
				ID:        id.String(),
				Latitude:  want.lat,
				Longitude: want.lng,
				Color:     want.color,
			})
		} else if want.lat != cur.lat || want.lng != cur.lng {
			s.surface.MoveMarker(id.String(), want.lat, want.lng)
		}
		s.markers[id] = want
	}
	for id, want := range next {
		if _, ok := s.markers[id]; ok {
			continue
		}
		s.surface.AddMarker(Marker{
			ID:        id.String(),
			Latitude:  want.lat,
			Longitude: want.lng,
			Color:     want.color,
		})
		s.markers[id] = want
	}

	if s.activeReport != uuid.Nil {
		if _, ok := s.markers[s.activeReport]; !ok {
			s.closePanelLocked()
		}
	}
}

// SetMode switches between browsing and location selection. Leaving
// selection mode removes the selection marker.
func (s *Synchronizer) SetMode(mode Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.mode == mode {
		return
	}
	s.mode = mode
	if mode == ModeView && s.hasSelection {
		s.surface.RemoveMarker(selectionMarkerID)
		s.hasSelection = false
	}
}

// SelectLocation places or moves the single draggable selection marker and
// recenters on it. There is never more than one selection marker.
func (s *Synchronizer) SelectLocation(lat, lng float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.selectLocationLocked(lat, lng)
}

func (s *Synchronizer) selectLocationLocked(lat, lng float64) {
	if s.hasSelection {
		s.surface.MoveMarker(selectionMarkerID, lat, lng)
	} else {
		s.surface.AddMarker(Marker{
			ID:        selectionMarkerID,
			Latitude:  lat,
			Longitude: lng,
			Draggable: true,
		})
		s.hasSelection = true
	}
	s.selLat, s.selLng = lat, lng
	s.surface.FlyTo(lat, lng, FocusZoom, 0)
}

// MapClicked handles a tap on empty map. In selection mode it moves the
// selection there and notifies once; in view mode it only closes the open
// detail panel.
func (s *Synchronizer) MapClicked(lat, lng float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.mode == ModeSelect {
		s.selectLocationLocked(lat, lng)
		if s.onSelectionChanged != nil {
			s.onSelectionChanged(lat, lng)
		}
		return
	}
	if s.activeReport != uuid.Nil {
		s.closePanelLocked()
	}
}

// MarkerClicked activates a report: the detail panel opens and the
// viewport recenters with a vertical offset so the panel leaves the marker
// visible. Unknown ids are ignored.
func (s *Synchronizer) MarkerClicked(reportID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	pos, ok := s.markers[reportID]
	if !ok {
		return
	}
	s.activeReport = reportID
	s.surface.FlyTo(pos.lat, pos.lng, FocusZoom, PanelOffsetY)
	if s.onPanelChanged != nil {
		s.onPanelChanged(reportID, true)
	}
}

// DragEnd lands a drag of the selection marker. The selection-changed
// callback fires exactly once per gesture.
func (s *Synchronizer) DragEnd(lat, lng float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.hasSelection {
		return
	}
	s.selLat, s.selLng = lat, lng
	if s.onSelectionChanged != nil {
		s.onSelectionChanged(lat, lng)
	}
}

// GeolocationFix recenters on a resolved device position, unless the user
// has already panned manually this session.
func (s *Synchronizer) GeolocationFix(lat, lng float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.userPanned {
		return
	}
	s.surface.FlyTo(lat, lng, DefaultZoom, 0)
}

// UserPanned marks that the user moved the map by hand. Auto-recentering
// stays off for the rest of the session.
func (s *Synchronizer) UserPanned() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userPanned = true
}

// ActiveReport returns the report whose panel is open, or uuid.Nil.
func (s *Synchronizer) ActiveReport() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeReport
}

// Selection returns the current selection coordinate, if any.
func (s *Synchronizer) Selection() (lat, lng float64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selLat, s.selLng, s.hasSelection
}

// Close removes every marker, the selection marker and any popup from the
// surface. The synchronizer is unusable afterwards.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id := range s.markers {
		s.surface.RemoveMarker(id.String())
		delete(s.markers, id)
	}
	if s.hasSelection {
		s.surface.RemoveMarker(selectionMarkerID)
		s.hasSelection = false
	}
	s.surface.RemovePopup()
	s.activeReport = uuid.Nil
}

func (s *Synchronizer) closePanelLocked() {
	closed := s.activeReport
	s.activeReport = uuid.Nil
	s.surface.RemovePopup()
	if s.onPanelChanged != nil {
		s.onPanelChanged(closed, false)
	}
}
