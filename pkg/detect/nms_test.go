package detect

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNmsSuppressesOverlaps(t *testing.T) {
	input := []Detection{
		{ID: "a", Label: LabelCar, Confidence: 0.9, Box: MakeBox(10, 10, 110, 110)},
		{ID: "b", Label: LabelCar, Confidence: 0.8, Box: MakeBox(15, 15, 115, 115)}, // heavy overlap with a
		{ID: "c", Label: LabelPerson, Confidence: 0.7, Box: MakeBox(300, 10, 360, 150)},
	}
	keep := Nms(input, DefaultNmsIouThreshold, nil)
	require.Len(t, keep, 2)
	require.Equal(t, "a", keep[0].ID)
	require.Equal(t, "c", keep[1].ID)
}

// A disjoint detection sits between the suppressor and its victim in
// confidence order, so the victim's index is not a prefix position of the
// spatial query's hit list. The victim must still be suppressed.
func TestNmsSuppressesAcrossConfidenceGap(t *testing.T) {
	input := []Detection{
		{ID: "a", Label: LabelCar, Confidence: 0.9, Box: MakeBox(10, 10, 110, 110)},
		{ID: "b", Label: LabelPerson, Confidence: 0.8, Box: MakeBox(500, 500, 560, 640)}, // far away
		{ID: "c", Label: LabelCar, Confidence: 0.7, Box: MakeBox(12, 12, 112, 112)},      // IoU with a ~0.92
	}
	keep := Nms(input, DefaultNmsIouThreshold, nil)
	require.Len(t, keep, 2)
	require.Equal(t, "a", keep[0].ID)
	require.Equal(t, "b", keep[1].ID)
}

func TestNmsKeepsDescendingConfidence(t *testing.T) {
	input := []Detection{
		{ID: "low", Label: LabelCar, Confidence: 0.3, Box: MakeBox(0, 0, 50, 50)},
		{ID: "high", Label: LabelPerson, Confidence: 0.9, Box: MakeBox(200, 0, 250, 50)},
	}
	keep := Nms(input, DefaultNmsIouThreshold, nil)
	require.Len(t, keep, 2)
	require.Equal(t, "high", keep[0].ID)
	require.Equal(t, "low", keep[1].ID)
}

func TestNmsPairThreshold(t *testing.T) {
	// Road and sidewalk overlap heavily but must coexist below the raised bar
	road := Detection{ID: "r", Label: LabelRoad, Confidence: 0.9, Box: MakeBox(0, 100, 400, 300)}
	sidewalk := Detection{ID: "s", Label: LabelSidewalk, Confidence: 0.8, Box: MakeBox(0, 120, 400, 320)}

	keep := Nms([]Detection{road, sidewalk}, DefaultNmsIouThreshold, nil)
	require.Len(t, keep, 1, "without the override the sidewalk is suppressed")

	keep = Nms([]Detection{road, sidewalk}, DefaultNmsIouThreshold, DefaultPairThresholds)
	require.Len(t, keep, 2, "with the override both survive")
}

func TestNmsEmpty(t *testing.T) {
	require.Nil(t, Nms(nil, DefaultNmsIouThreshold, nil))
}
