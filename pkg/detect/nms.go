package detect

import (
	"sort"

	flatbush "github.com/bmharper/flatbush-go"
)

const DefaultNmsIouThreshold = 0.5

// PairThreshold overrides the NMS IoU threshold for one unordered label pair.
// Some label pairs legitimately overlap a great deal. Road and sidewalk are
// adjacent surfaces that the backend frequently boxes on top of each other,
// so suppressing one of them needs far more overlap than the default.
type PairThreshold struct {
	LabelA    string
	LabelB    string
	Threshold float32
}

func (p PairThreshold) matches(a, b string) bool {
	return (a == p.LabelA && b == p.LabelB) || (a == p.LabelB && b == p.LabelA)
}

// DefaultPairThresholds is the override set we apply to backend results
var DefaultPairThresholds = []PairThreshold{
	{LabelA: "Road", LabelB: "Sidewalk", Threshold: 0.85},
}

// Nms performs non-maximum suppression over 'input' by descending confidence.
// Two detections suppress each other when their IoU exceeds minIoU, unless a
// PairThreshold raises the bar for that label pair. Returns the retained
// detections, still in descending confidence order.
func Nms(input []Detection, minIoU float32, pairs []PairThreshold) []Detection {
	if len(input) == 0 {
		return nil
	}
	byConf := make([]Detection, len(input))
	copy(byConf, input)
	sort.SliceStable(byConf, func(i, j int) bool {
		return byConf[i].Confidence > byConf[j].Confidence
	})

	// Spatial index to avoid O(N^2) comparisons
	fb := flatbush.NewFlatbush[int32]()
	fb.Reserve(len(byConf))
	for _, d := range byConf {
		fb.Add(int32(d.Box.XMin), int32(d.Box.YMin), int32(d.Box.XMax), int32(d.Box.YMax))
	}
	fb.Finish()

	suppressed := make([]bool, len(byConf))
	keep := make([]Detection, 0, len(byConf))
	for i, d := range byConf {
		if suppressed[i] {
			continue
		}
		keep = append(keep, d)
		// Search yields the indices assigned at Add time, i.e. positions in byConf
		for _, j := range fb.Search(int32(d.Box.XMin), int32(d.Box.YMin), int32(d.Box.XMax), int32(d.Box.YMax)) {
			if j <= i || suppressed[j] {
				continue
			}
			threshold := minIoU
			for _, p := range pairs {
				if p.matches(d.Label, byConf[j].Label) {
					threshold = p.Threshold
					break
				}
			}
			if d.Box.IOU(byConf[j].Box) > threshold {
				suppressed[j] = true
			}
		}
	}
	return keep
}
