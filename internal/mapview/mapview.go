// Package mapview models the map surface the itinerary renders onto: marker
// and path state per map handle plus the viewport fit for the current
// content. A handle is created, drawn on and released by the view that uses
// it, never held at package scope.
package mapview

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/qwfeng/ai-trip-planner-backend/internal/domain"
)

var (
	// ErrNotConfigured means the mapping SDK key is absent; creating a map is
	// the dependent operation that fails, nothing else does.
	ErrNotConfigured = errors.New("map SDK key is not configured")

	ErrReleased = errors.New("map handle has been released")
)

// Default view over Beijing, matching the SDK loader's defaults.
var (
	DefaultCenter = LngLat{Lng: 116.397428, Lat: 39.90923}
	DefaultZoom   = 11.0
)

type LngLat struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Location is a named point taken from an itinerary activity.
type Location struct {
	Name     string `json:"name"`
	Position LngLat `json:"position"`
}

type Marker struct {
	Title    string `json:"title"`
	Position LngLat `json:"position"`
}

// Viewport is the fitted view for the current content.
type Viewport struct {
	Center LngLat  `json:"center"`
	Zoom   float64 `json:"zoom"`
}

// Map is one owned map handle. Draw replaces its content wholesale; Release
// invalidates it.
type Map struct {
	mu sync.Mutex

	id          int64
	containerID string
	markers     []Marker
	path        []LngLat
	viewport    Viewport
	released    bool
}

// Manager creates and releases map handles. It owns nothing beyond the key
// and the live-handle count.
type Manager struct {
	key string

	mu     sync.Mutex
	nextID int64
	live   map[int64]*Map
}

func NewManager(key string) *Manager {
	return &Manager{key: key, live: make(map[int64]*Map)}
}

// Create builds a new map handle over the given container with the default
// center and zoom. It fails only when the SDK key is missing.
func (m *Manager) Create(containerID string) (*Map, error) {
	if strings.TrimSpace(m.key) == "" {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(containerID) == "" {
		return nil, errors.New("mapview: empty container id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	handle := &Map{
		id:          m.nextID,
		containerID: containerID,
		viewport:    Viewport{Center: DefaultCenter, Zoom: DefaultZoom},
	}
	m.live[handle.id] = handle
	return handle, nil
}

// Release tears a handle down. The handle must not be drawn on afterwards.
func (m *Manager) Release(handle *Map) {
	if handle == nil {
		return
	}
	handle.mu.Lock()
	handle.released = true
	handle.markers = nil
	handle.path = nil
	handle.mu.Unlock()

	m.mu.Lock()
	delete(m.live, handle.id)
	m.mu.Unlock()
}

// LiveCount reports how many handles have not been released.
func (m *Manager) LiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Draw clears all prior markers and paths, adds one marker per location, and
// when more than one location is present draws a connecting path through them
// in array order, then fits the viewport to the new content. An empty input
// clears the map and leaves the viewport where it was.
func (h *Map) Draw(locations []Location) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return fmt.Errorf("mapview: draw on container %q: %w", h.containerID, ErrReleased)
	}

	h.markers = h.markers[:0]
	h.path = h.path[:0]

	for _, loc := range locations {
		h.markers = append(h.markers, Marker{Title: loc.Name, Position: loc.Position})
	}
	if len(locations) > 1 {
		for _, loc := range locations {
			h.path = append(h.path, loc.Position)
		}
	}
	if len(h.markers) > 0 {
		h.viewport = fitView(h.markers)
	}
	return nil
}

// Markers returns a snapshot of the current markers.
func (h *Map) Markers() []Marker {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Marker(nil), h.markers...)
}

// Path returns a snapshot of the connecting path, nil when fewer than two
// locations are drawn.
func (h *Map) Path() []LngLat {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.path) == 0 {
		return nil
	}
	return append([]LngLat(nil), h.path...)
}

func (h *Map) Viewport() Viewport {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.viewport
}

// LocationsFromPlan flattens a plan's activities into draw input in array
// order. Activities lacking coordinates are silently excluded.
func LocationsFromPlan(plan *domain.TripPlan) []Location {
	if plan == nil {
		return nil
	}
	var out []Location
	for _, day := range plan.DailyPlan {
		for _, act := range day.Activities {
			if act.Coordinates == nil {
				continue
			}
			out = append(out, Location{
				Name: act.Location,
				Position: LngLat{
					Lng: act.Coordinates.Longitude,
					Lat: act.Coordinates.Latitude,
				},
			})
		}
	}
	return out
}

// fitView centers on the marker bounding box and picks a zoom that keeps the
// box in frame, clamped to street and world scale.
func fitView(markers []Marker) Viewport {
	minLng, maxLng := markers[0].Position.Lng, markers[0].Position.Lng
	minLat, maxLat := markers[0].Position.Lat, markers[0].Position.Lat
	for _, mk := range markers[1:] {
		minLng = math.Min(minLng, mk.Position.Lng)
		maxLng = math.Max(maxLng, mk.Position.Lng)
		minLat = math.Min(minLat, mk.Position.Lat)
		maxLat = math.Max(maxLat, mk.Position.Lat)
	}

	center := LngLat{Lng: (minLng + maxLng) / 2, Lat: (minLat + maxLat) / 2}
	span := math.Max(maxLng-minLng, maxLat-minLat)
	if span <= 0 {
		return Viewport{Center: center, Zoom: 15}
	}

	zoom := math.Floor(math.Log2(360 / span))
	if zoom > 18 {
		zoom = 18
	}
	if zoom < 3 {
		zoom = 3
	}
	return Viewport{Center: center, Zoom: zoom}
}
