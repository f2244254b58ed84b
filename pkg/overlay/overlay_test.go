package overlay

import (
	"image"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tseten14/cvscan/pkg/detect"
)

func TestComputeScale(t *testing.T) {
	s := ComputeScale(320, 240, 640, 480)
	require.Equal(t, Scale{X: 0.5, Y: 0.5}, s)

	// Layout may stretch the image, so the axes are independent
	s = ComputeScale(640, 240, 640, 480)
	require.Equal(t, Scale{X: 1, Y: 0.5}, s)

	// Degenerate originals collapse instead of dividing by zero
	s = ComputeScale(320, 240, 0, 0)
	require.Equal(t, Scale{}, s)
}

// Every overlay rectangle stays inside the rendered frame, as long as the
// source boxes are inside the original image.
func TestLayoutStaysInFrame(t *testing.T) {
	const origW, origH = 1024, 768
	rng := rand.New(rand.NewSource(42))
	result := &detect.Result{ImageWidth: origW, ImageHeight: origH}
	for i := 0; i < 50; i++ {
		x1 := rng.Intn(origW)
		y1 := rng.Intn(origH)
		x2 := x1 + rng.Intn(origW-x1)
		y2 := y1 + rng.Intn(origH-y1)
		result.Detections = append(result.Detections, detect.Detection{
			ID:         string(rune('a' + i%26)),
			Label:      detect.LabelCar,
			Confidence: 0.5,
			Box:        detect.MakeBox(x1, y1, x2, y2),
		})
	}
	for _, rendered := range [][2]int{{1024, 768}, {512, 384}, {640, 768}, {333, 100}} {
		w, h := rendered[0], rendered[1]
		shapes := Layout(result, ComputeScale(w, h, origW, origH), "")
		for _, s := range shapes {
			require.GreaterOrEqual(t, s.Left, 0.0)
			require.LessOrEqual(t, s.Left+s.Width, float64(w)+1e-9)
			require.GreaterOrEqual(t, s.Top, 0.0)
			require.LessOrEqual(t, s.Top+s.Height, float64(h)+1e-9)
		}
	}
}

// The transform is linear: geometry computed at a uniform scale (s,s) and
// divided back by s is identical to geometry at scale (1,1).
func TestLayoutLinearity(t *testing.T) {
	result := &detect.Result{
		ImageWidth:  800,
		ImageHeight: 600,
		Detections: []detect.Detection{
			{ID: "d0", Label: detect.LabelEntrance, Confidence: 0.9, Box: detect.MakeBox(120, 260, 220, 540)},
			{ID: "d1", Label: detect.LabelCar, Confidence: 0.6, Box: detect.MakeBox(400, 380, 700, 560)},
		},
	}
	unit := Layout(result, Scale{X: 1, Y: 1}, "")
	for _, s := range []float64{0.5, 2, 3.25} {
		scaled := Layout(result, Scale{X: s, Y: s}, "")
		require.Len(t, scaled, len(unit))
		for i := range unit {
			require.InDelta(t, unit[i].Left, scaled[i].Left/s, 1e-9)
			require.InDelta(t, unit[i].Top, scaled[i].Top/s, 1e-9)
			require.InDelta(t, unit[i].Width, scaled[i].Width/s, 1e-9)
			require.InDelta(t, unit[i].Height, scaled[i].Height/s, 1e-9)
		}
	}
}

func TestLayoutPolygon(t *testing.T) {
	result := &detect.Result{
		ImageWidth:  100,
		ImageHeight: 100,
		Detections: []detect.Detection{
			{
				ID: "poly", Label: detect.LabelRoad, Confidence: 0.8,
				Box:     detect.MakeBox(10, 20, 60, 80),
				Polygon: detect.Polygon{{X: 10, Y: 20}, {X: 60, Y: 30}, {X: 40, Y: 80}},
			},
			{
				// A degenerate 2-point polygon renders as its rectangle
				ID: "degen", Label: detect.LabelCar, Confidence: 0.7,
				Box:     detect.MakeBox(0, 0, 10, 10),
				Polygon: detect.Polygon{{X: 0, Y: 0}, {X: 10, Y: 10}},
			},
		},
	}
	shapes := Layout(result, Scale{X: 2, Y: 0.5}, "")
	require.Equal(t, ShapePolygon, shapes[0].Kind)
	require.Equal(t, PointF{X: 20, Y: 10}, shapes[0].Points[0])
	require.Equal(t, PointF{X: 120, Y: 15}, shapes[0].Points[1])
	// Label anchors at the polygon's bounding-box top-left, raised
	require.Equal(t, 20.0, shapes[0].LabelX)
	require.Equal(t, 0.0, shapes[0].LabelY)

	require.Equal(t, ShapeRect, shapes[1].Kind)
	require.Empty(t, shapes[1].Points)
}

func TestSelectionToggle(t *testing.T) {
	sel := &Selection{}
	require.Equal(t, "", sel.Active())
	require.Equal(t, "d1", sel.Toggle("d1"))
	// Toggling the active detection again deselects (involution)
	require.Equal(t, "", sel.Toggle("d1"))
	require.Equal(t, "", sel.Active())
	// Selecting a different detection replaces, never stacks
	sel.Toggle("d1")
	require.Equal(t, "d2", sel.Toggle("d2"))
	sel.Clear()
	require.Equal(t, "", sel.Active())
}

func TestAnnotate(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 200, 150))
	result := &detect.Result{
		ImageWidth:  400,
		ImageHeight: 300,
		Detections: []detect.Detection{
			{ID: "d0", Label: detect.LabelEntrance, Confidence: 0.91, Box: detect.MakeBox(100, 80, 180, 290)},
		},
	}
	out := Annotate(src, result, "d0")
	require.Equal(t, 200, out.Bounds().Dx())
	require.Equal(t, 150, out.Bounds().Dy())
}
