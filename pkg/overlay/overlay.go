package overlay

import (
	"github.com/tseten14/cvscan/pkg/detect"
)

// Package overlay maps detections from original-image pixel space into the
// screen space of a rendered image. Scale factors are derived per call and
// never stored: the rendered size changes on every browser resize, so the
// client re-requests geometry with its current dimensions and we recompute.

// Scale is rendered-size over original-size, independent per axis.
// Layout does not assume aspect ratio is preserved: a stretched <img> element
// simply yields different X and Y factors.
type Scale struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ComputeScale returns the per-axis scale factor from original to rendered
// dimensions. Zero or negative original dimensions yield a zero scale, which
// collapses all geometry rather than dividing by zero.
func ComputeScale(renderedW, renderedH, origW, origH int) Scale {
	s := Scale{}
	if origW > 0 && renderedW > 0 {
		s.X = float64(renderedW) / float64(origW)
	}
	if origH > 0 && renderedH > 0 {
		s.Y = float64(renderedH) / float64(origH)
	}
	return s
}

type ShapeKind string

const (
	ShapeRect    ShapeKind = "rect"
	ShapePolygon ShapeKind = "polygon"
)

type PointF struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// labelRise is how far (in rendered pixels) the label anchor sits above the
// shape's top edge
const labelRise = 22

// Shape is one detection's screen-space overlay geometry.
// Left/Top/Width/Height are always populated. For a polygon shape they are
// the polygon's bounding box, which is also where the label anchors.
type Shape struct {
	DetectionID string    `json:"detectionID"`
	Label       string    `json:"label"`
	Color       string    `json:"color"`
	Confidence  float32   `json:"confidence"`
	Kind        ShapeKind `json:"kind"`
	Left        float64   `json:"left"`
	Top         float64   `json:"top"`
	Width       float64   `json:"width"`
	Height      float64   `json:"height"`
	Points      []PointF  `json:"points,omitempty"`
	LabelX      float64   `json:"labelX"`
	LabelY      float64   `json:"labelY"`
	Active      bool      `json:"active"`
}

// Layout computes screen-space shapes for every detection in the result,
// at the given scale. activeID marks the single selected detection ("" for
// none). Shapes are returned in the result's detection order.
func Layout(result *detect.Result, scale Scale, activeID string) []Shape {
	shapes := make([]Shape, 0, len(result.Detections))
	for _, d := range result.Detections {
		shape := Shape{
			DetectionID: d.ID,
			Label:       d.Label,
			Color:       detect.ColorForLabel(d.Label),
			Confidence:  d.Confidence,
			Active:      d.ID == activeID,
		}
		if len(d.Polygon) >= 3 {
			shape.Kind = ShapePolygon
			shape.Points = make([]PointF, len(d.Polygon))
			for i, pt := range d.Polygon {
				shape.Points[i] = PointF{
					X: float64(pt.X) * scale.X,
					Y: float64(pt.Y) * scale.Y,
				}
			}
			bounds := d.Polygon.Bounds()
			shape.Left = float64(bounds.XMin) * scale.X
			shape.Top = float64(bounds.YMin) * scale.Y
			shape.Width = float64(bounds.Width()) * scale.X
			shape.Height = float64(bounds.Height()) * scale.Y
		} else {
			shape.Kind = ShapeRect
			shape.Left = float64(d.Box.XMin) * scale.X
			shape.Top = float64(d.Box.YMin) * scale.Y
			shape.Width = float64(d.Box.Width()) * scale.X
			shape.Height = float64(d.Box.Height()) * scale.Y
		}
		// Label anchors at the shape's top-left, offset upward, but never
		// above the frame
		shape.LabelX = shape.Left
		shape.LabelY = max(0, shape.Top-labelRise)
		shapes = append(shapes, shape)
	}
	return shapes
}
