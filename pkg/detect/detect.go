package detect

import (
	"fmt"
	"sort"
	"time"
)

// Package detect holds the detection result model that the backend client,
// the local fallback detector, and the overlay layer all speak.

// Result is the outcome of one object detection run over a single image.
// Detections are sorted by descending confidence. That is a display-order
// convention, not a contract that consumers may rely on for anything else.
type Result struct {
	ImageWidth       int         `json:"image_width"`
	ImageHeight      int         `json:"image_height"`
	Detections       []Detection `json:"detections"`
	ProcessingTimeMS int64       `json:"processing_time_ms"`
}

// Detection is one identified region of interest in the image.
// Box is always present. Polygon is strictly optional per-detection metadata;
// backends mix rectangle-only and polygon detections freely, so never assume
// consistency across a result.
type Detection struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Confidence float32 `json:"confidence"`
	Box        Box     `json:"bbox"`
	Polygon    Polygon `json:"polygon,omitempty"`
}

// Validate checks the structural invariants of a result.
// We run this on anything that crosses a process boundary (i.e. the backend
// response), so the rest of the code can assume well-formed geometry.
func (r *Result) Validate() error {
	if r.ImageWidth <= 0 || r.ImageHeight <= 0 {
		return fmt.Errorf("invalid image dimensions %vx%v", r.ImageWidth, r.ImageHeight)
	}
	if r.ProcessingTimeMS < 0 {
		return fmt.Errorf("negative processing time %v", r.ProcessingTimeMS)
	}
	seen := map[string]bool{}
	for i, d := range r.Detections {
		if d.ID == "" {
			return fmt.Errorf("detection %v has no id", i)
		}
		if seen[d.ID] {
			return fmt.Errorf("duplicate detection id %v", d.ID)
		}
		seen[d.ID] = true
		if d.Confidence < 0 || d.Confidence > 1 {
			return fmt.Errorf("detection %v confidence %v out of range", d.ID, d.Confidence)
		}
		if !d.Box.IsValid() {
			return fmt.Errorf("detection %v has invalid box %v", d.ID, d.Box)
		}
		if len(d.Polygon) > 0 && len(d.Polygon) < 3 {
			return fmt.Errorf("detection %v polygon has %v points", d.ID, len(d.Polygon))
		}
	}
	return nil
}

// SortByConfidence sorts detections by descending confidence (stable, so
// equal-confidence detections keep their backend order).
func (r *Result) SortByConfidence() {
	sort.SliceStable(r.Detections, func(i, j int) bool {
		return r.Detections[i].Confidence > r.Detections[j].Confidence
	})
}

// Clip clamps all boxes and polygons to the result's image bounds, and drops
// detections whose box degenerates to zero area. Polygons that degenerate to
// fewer than 3 points are dropped from their detection (the box remains).
func (r *Result) Clip() {
	kept := r.Detections[:0]
	for _, d := range r.Detections {
		d.Box = d.Box.Clip(r.ImageWidth, r.ImageHeight)
		if d.Box.Width() <= 0 || d.Box.Height() <= 0 {
			continue
		}
		if len(d.Polygon) != 0 {
			d.Polygon = d.Polygon.Clip(r.ImageWidth, r.ImageHeight)
		}
		kept = append(kept, d)
	}
	r.Detections = kept
}

// Detection lookup by id. Returns nil if not found.
func (r *Result) Find(id string) *Detection {
	for i := range r.Detections {
		if r.Detections[i].ID == id {
			return &r.Detections[i]
		}
	}
	return nil
}

// SetProcessingTime records elapsed wall time, rounding up to at least 1ms so
// that a sub-millisecond local run doesn't report zero work.
func (r *Result) SetProcessingTime(elapsed time.Duration) {
	ms := elapsed.Milliseconds()
	if ms <= 0 {
		ms = 1
	}
	r.ProcessingTimeMS = ms
}
