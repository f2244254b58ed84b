package picker

import (
	"sync"

	"github.com/tseten14/cvscan/pkg/geo"
)

// Package picker owns the single map marker. The map surface itself belongs
// to the client's mapping library; we only track the authoritative marker
// state that the rest of the pipeline consumes.

// Marker is the one movable marker on the map
type Marker struct {
	Point geo.Point `json:"point"`
	Moves int       `json:"moves"` // number of times the marker has been repositioned since creation
}

// Picker tracks the single selected point. Repeated selections reposition the
// existing marker rather than creating a new one, so there is never more than
// one marker regardless of how many times the user clicks.
type Picker struct {
	lock   sync.Mutex
	marker *Marker
}

func NewPicker() *Picker {
	return &Picker{}
}

// Select places or repositions the marker at 'point' and returns the marker.
// Idempotent with respect to marker count: the first selection creates the
// marker, every subsequent selection moves it.
func (p *Picker) Select(point geo.Point) *Marker {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.marker == nil {
		p.marker = &Marker{Point: point}
	} else {
		p.marker.Point = point
		p.marker.Moves++
	}
	m := *p.marker
	return &m
}

// Marker returns a copy of the current marker, or nil if no point has been
// selected yet
func (p *Picker) Marker() *Marker {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.marker == nil {
		return nil
	}
	m := *p.marker
	return &m
}

// MarkerCount is 0 before the first selection and 1 forever after (until Clear)
func (p *Picker) MarkerCount() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.marker == nil {
		return 0
	}
	return 1
}

// Clear removes the marker (pipeline reset)
func (p *Picker) Clear() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.marker = nil
}
