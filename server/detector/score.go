package detector

import (
	"sort"

	"github.com/chewxy/math32"

	"github.com/tseten14/cvscan/pkg/detect"
)

// Candidate scoring for the local door finder. Kept free of OpenCV types so
// the heuristics are testable on their own.

// candidate is a door region proposal, in original image coordinates
type candidate struct {
	box   detect.Box
	score float32
}

// scoreDoorCandidate rates a color-segmented region as a potential door.
// Returns 0 for regions the hard filters reject outright.
func scoreDoorCandidate(x, y, cw, ch int, realArea, solidity, colorDist float32, imgW, imgH int) float32 {
	bottomRatio := float32(y+ch) / float32(imgH)
	topRatio := float32(y) / float32(imgH)
	// Regions confined to the top half are windows, and regions that span
	// from the very top are the whole facade.
	if bottomRatio < 0.45 {
		return 0
	}
	if topRatio < 0.08 {
		return 0
	}

	aspect := float32(0)
	if cw > 0 {
		aspect = float32(ch) / float32(cw)
	}

	// Single doors run tall (aspect around 2), double doors squarer
	shapeScore := float32(0.1)
	switch {
	case aspect >= 1.3:
		shapeScore = 1.0
	case aspect >= 0.8:
		shapeScore = 0.7
	case aspect >= 0.5:
		shapeScore = 0.4
	}

	// Doors tend to sit near the horizontal center
	centerX := float32(x) + float32(cw)/2
	horizScore := 1 - math32.Abs(centerX-float32(imgW)/2)/(float32(imgW)/2)

	// And in the middle-to-lower portion vertically
	centerRatio := (float32(y) + float32(ch)/2) / float32(imgH)
	vertScore := float32(0.3)
	switch {
	case centerRatio >= 0.35 && centerRatio <= 0.70:
		vertScore = 1.0
	case centerRatio > 0.70:
		vertScore = 0.6
	}

	sizeScore := math32.Min(realArea/(float32(imgW)*float32(imgH)*0.03), 1)

	return shapeScore*0.30 +
		horizScore*0.25 +
		vertScore*0.15 +
		sizeScore*0.10 +
		colorDist*0.10 +
		solidity*0.10
}

// scoreLinePair rates a pair of vertical edges as a potential door frame
func scoreLinePair(centerX, bottom float32, imgW, imgH int) float32 {
	groundScore := bottom / float32(imgH)
	horizScore := 1 - math32.Abs(centerX-float32(imgW)/2)/(float32(imgW)/2)
	return groundScore*0.45 + horizScore*0.35 + 0.2
}

// suppressOverlaps drops candidates that overlap a better-scoring kept
// candidate by more than maxOverlap of the smaller box. Input need not be
// sorted; output is sorted by descending score.
func suppressOverlaps(candidates []candidate, maxOverlap float32) []candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	kept := []candidate{}
	for _, c := range candidates {
		overlaps := false
		for _, k := range kept {
			if c.box.OverlapOfSmaller(k.box) > maxOverlap {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c)
		}
	}
	return kept
}
