package detect

import (
	"testing"
)

func TestIOU(t *testing.T) {
	a := MakeBox(0, 0, 10, 10)
	b := MakeBox(5, 5, 15, 15)
	if a.IOU(b) != 0.25/(0.75+1) {
		t.Errorf("IOU is %v, not 0.25/1.75", a.IOU(b))
	}
	if a.IOU(MakeBox(20, 20, 30, 30)) != 0 {
		t.Errorf("disjoint boxes must have IOU 0")
	}
}

func TestOverlapOfSmaller(t *testing.T) {
	big := MakeBox(0, 0, 100, 100)
	small := MakeBox(10, 10, 20, 20)
	if big.OverlapOfSmaller(small) != 1 {
		t.Errorf("contained box must have overlap 1, got %v", big.OverlapOfSmaller(small))
	}
	if small.OverlapOfSmaller(big) != 1 {
		t.Errorf("OverlapOfSmaller must be symmetric, got %v", small.OverlapOfSmaller(big))
	}
}

func TestBoxClip(t *testing.T) {
	b := MakeBox(-5, -5, 120, 90)
	c := b.Clip(100, 80)
	if c != MakeBox(0, 0, 100, 80) {
		t.Errorf("clip produced %v", c)
	}
	// A box entirely outside the frame collapses to zero area on the edge
	c = MakeBox(150, 150, 200, 200).Clip(100, 80)
	if c.Width() != 0 || c.Height() != 0 {
		t.Errorf("out-of-frame box must collapse, got %v", c)
	}
	if !c.IsValid() {
		t.Errorf("clipped box must stay valid")
	}
}

func TestPolygonBounds(t *testing.T) {
	p := Polygon{{X: 5, Y: 20}, {X: 30, Y: 7}, {X: 12, Y: 40}}
	b := p.Bounds()
	if b != MakeBox(5, 7, 30, 40) {
		t.Errorf("bounds is %v", b)
	}
	if (Polygon{}).Bounds() != (Box{}) {
		t.Errorf("empty polygon must have zero bounds")
	}
}

func TestPolygonClip(t *testing.T) {
	// Points beyond the frame clamp to the edge, and the duplicates created
	// by clamping collapse
	p := Polygon{{X: -10, Y: -10}, {X: -5, Y: -20}, {X: 50, Y: 10}, {X: 30, Y: 60}}
	c := p.Clip(100, 50)
	if len(c) != 3 {
		t.Fatalf("expected 3 points after clip, got %v", len(c))
	}
	if c[0] != (Pt{X: 0, Y: 0}) {
		t.Errorf("first point is %v", c[0])
	}
	for _, pt := range c {
		if pt.X < 0 || pt.X > 100 || pt.Y < 0 || pt.Y > 50 {
			t.Errorf("point %v outside frame", pt)
		}
	}

	// A sliver that collapses below 3 points disappears entirely
	sliver := Polygon{{X: -10, Y: -10}, {X: -20, Y: -5}, {X: -1, Y: -30}}
	if sliver.Clip(100, 50) != nil {
		t.Errorf("degenerate polygon must clip to nil")
	}
}
