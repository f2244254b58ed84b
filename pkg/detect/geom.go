package detect

type Pt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Box is an axis-aligned bounding box in original-image pixel space.
// Invariant: XMin <= XMax and YMin <= YMax.
type Box struct {
	XMin int `json:"xmin"`
	YMin int `json:"ymin"`
	XMax int `json:"xmax"`
	YMax int `json:"ymax"`
}

func MakeBox(xmin, ymin, xmax, ymax int) Box {
	return Box{XMin: xmin, YMin: ymin, XMax: xmax, YMax: ymax}
}

func (b Box) IsValid() bool {
	return b.XMin <= b.XMax && b.YMin <= b.YMax
}

func (b Box) Width() int {
	return b.XMax - b.XMin
}

func (b Box) Height() int {
	return b.YMax - b.YMin
}

func (b Box) Area() int {
	return b.Width() * b.Height()
}

func (b Box) Intersection(o Box) Box {
	x1 := max(b.XMin, o.XMin)
	y1 := max(b.YMin, o.YMin)
	x2 := min(b.XMax, o.XMax)
	y2 := min(b.YMax, o.YMax)
	return Box{
		XMin: x1,
		YMin: y1,
		XMax: max(x1, x2),
		YMax: max(y1, y2),
	}
}

// Intersection over Union
func (b Box) IOU(o Box) float32 {
	intersection := b.Intersection(o)
	union := b.Area() + o.Area() - intersection.Area()
	if union <= 0 {
		return 0
	}
	return float32(intersection.Area()) / float32(union)
}

// OverlapOfSmaller is intersection area over the smaller box's area.
// This is the suppression metric the door finder uses, where a small door
// candidate entirely inside a larger one must count as a full overlap.
func (b Box) OverlapOfSmaller(o Box) float32 {
	smaller := min(b.Area(), o.Area())
	if smaller <= 0 {
		return 0
	}
	return float32(b.Intersection(o).Area()) / float32(smaller)
}

// Clip clamps the box to [0,w] x [0,h]
func (b Box) Clip(w, h int) Box {
	c := Box{
		XMin: max(0, min(b.XMin, w)),
		YMin: max(0, min(b.YMin, h)),
		XMax: max(0, min(b.XMax, w)),
		YMax: max(0, min(b.YMax, h)),
	}
	if c.XMax < c.XMin {
		c.XMax = c.XMin
	}
	if c.YMax < c.YMin {
		c.YMax = c.YMin
	}
	return c
}

// Polygon is an ordered sequence of points in original-image pixel space.
// A polygon with fewer than 3 points is degenerate and treated as absent.
type Polygon []Pt

// Bounds returns the polygon's axis-aligned bounding box.
// The zero Box is returned for an empty polygon.
func (p Polygon) Bounds() Box {
	if len(p) == 0 {
		return Box{}
	}
	b := Box{XMin: p[0].X, YMin: p[0].Y, XMax: p[0].X, YMax: p[0].Y}
	for _, pt := range p[1:] {
		b.XMin = min(b.XMin, pt.X)
		b.YMin = min(b.YMin, pt.Y)
		b.XMax = max(b.XMax, pt.X)
		b.YMax = max(b.YMax, pt.Y)
	}
	return b
}

// Clip clamps every point to [0,w] x [0,h] and removes consecutive duplicates
// created by the clamping. Returns nil if fewer than 3 distinct points remain,
// so outlines never extend outside the frame and degenerate slivers vanish.
func (p Polygon) Clip(w, h int) Polygon {
	if len(p) == 0 {
		return nil
	}
	clipped := make(Polygon, 0, len(p))
	for _, pt := range p {
		c := Pt{
			X: max(0, min(pt.X, w)),
			Y: max(0, min(pt.Y, h)),
		}
		if len(clipped) > 0 && clipped[len(clipped)-1] == c {
			continue
		}
		clipped = append(clipped, c)
	}
	// The clamp can also make the last point collide with the first
	if len(clipped) > 1 && clipped[0] == clipped[len(clipped)-1] {
		clipped = clipped[:len(clipped)-1]
	}
	if len(clipped) < 3 {
		return nil
	}
	return clipped
}
