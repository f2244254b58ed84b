package detect

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	good := Result{
		ImageWidth:  640,
		ImageHeight: 480,
		Detections: []Detection{
			{ID: "d0", Label: LabelEntrance, Confidence: 0.9, Box: MakeBox(10, 100, 80, 300)},
			{ID: "d1", Label: LabelCar, Confidence: 0.5, Box: MakeBox(200, 200, 400, 380),
				Polygon: Polygon{{X: 200, Y: 200}, {X: 400, Y: 210}, {X: 380, Y: 380}}},
		},
	}
	require.NoError(t, good.Validate())

	bad := good
	bad.ImageWidth = 0
	require.Error(t, bad.Validate())

	dup := good
	dup.Detections = []Detection{
		{ID: "same", Label: LabelCar, Confidence: 0.5, Box: MakeBox(0, 0, 10, 10)},
		{ID: "same", Label: LabelCar, Confidence: 0.4, Box: MakeBox(0, 0, 10, 10)},
	}
	require.Error(t, dup.Validate())

	flipped := good
	flipped.Detections = []Detection{
		{ID: "x", Label: LabelCar, Confidence: 0.5, Box: MakeBox(50, 0, 10, 10)},
	}
	require.Error(t, flipped.Validate())
}

func TestResultClip(t *testing.T) {
	r := Result{
		ImageWidth:  100,
		ImageHeight: 100,
		Detections: []Detection{
			{ID: "inside", Confidence: 0.9, Box: MakeBox(10, 10, 40, 70)},
			{ID: "spill", Confidence: 0.8, Box: MakeBox(80, 80, 140, 140)},
			{ID: "gone", Confidence: 0.7, Box: MakeBox(200, 200, 300, 300)},
		},
	}
	r.Clip()
	require.Len(t, r.Detections, 2)
	require.Equal(t, MakeBox(80, 80, 100, 100), r.Detections[1].Box)
}

func TestNormalizeLabel(t *testing.T) {
	require.Equal(t, "Car", NormalizeLabel("CAR"))
	require.Equal(t, "Car", NormalizeLabel("car"))
	require.Equal(t, "Traffic light", NormalizeLabel("traffic LIGHT"))
	require.Equal(t, "", NormalizeLabel("  "))
}

func TestColorForLabel(t *testing.T) {
	require.Equal(t, labelColors[LabelEntrance], ColorForLabel("entrance"))
	require.Equal(t, labelColors[LabelCar], ColorForLabel("Car"))
	// A typo'd category gets the documented default, never a phantom palette entry
	require.Equal(t, DefaultAccentColor, ColorForLabel("Entrnce"))
	require.Equal(t, DefaultAccentColor, ColorForLabel(""))
}

func TestSortByConfidence(t *testing.T) {
	r := Result{
		ImageWidth:  10,
		ImageHeight: 10,
		Detections: []Detection{
			{ID: "b", Confidence: 0.5, Box: MakeBox(0, 0, 1, 1)},
			{ID: "a", Confidence: 0.9, Box: MakeBox(0, 0, 1, 1)},
			{ID: "c", Confidence: 0.5, Box: MakeBox(0, 0, 1, 1)},
		},
	}
	r.SortByConfidence()
	require.Equal(t, "a", r.Detections[0].ID)
	// Stable: equal confidences keep their original relative order
	require.Equal(t, "b", r.Detections[1].ID)
	require.Equal(t, "c", r.Detections[2].ID)
}
