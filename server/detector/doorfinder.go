package detector

import (
	"context"
	"errors"
	"image"
	"math"
	"sort"
	"time"

	"github.com/chewxy/math32"
	"github.com/cyclopcam/logs"
	"gocv.io/x/gocv"

	"github.com/tseten14/cvscan/pkg/detect"
	"github.com/tseten14/cvscan/server/imagesource"
)

// DoorFinder is the local fallback detector. It has no model: it segments the
// image into color regions with k-means, scores tall rectangular regions that
// differ from the dominant facade color, and backs that up with vertical edge
// pairs from a Hough transform. It only ever emits "Entrance" detections,
// at most one per image.
type DoorFinder struct {
	Log logs.Log
}

// doorScoreThreshold is the minimum candidate score we report as a detection
const doorScoreThreshold = 0.62

func NewDoorFinder(log logs.Log) *DoorFinder {
	return &DoorFinder{
		Log: log,
	}
}

func (d *DoorFinder) Name() string {
	return "doorfinder"
}

func (d *DoorFinder) Detect(ctx context.Context, img *imagesource.Image) (*detect.Result, error) {
	start := time.Now()
	mat, err := gocv.IMDecode(img.Data, gocv.IMReadColor)
	if err != nil {
		return nil, err
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("failed to decode image")
	}
	w := mat.Cols()
	h := mat.Rows()
	minArea := float32(w) * float32(h) * 0.01
	maxArea := float32(w) * float32(h) * 0.50

	candidates, err := d.segmentRegions(ctx, mat, minArea, maxArea)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, d.linePairCandidates(mat, minArea)...)
	kept := suppressOverlaps(candidates, 0.4)

	result := detect.Result{
		ImageWidth:  w,
		ImageHeight: h,
		Detections:  []detect.Detection{},
	}
	// Only the single best region, and only if it clears the bar
	if len(kept) != 0 && kept[0].score >= doorScoreThreshold {
		c := kept[0]
		box := c.box.Clip(w, h)
		areaRatio := float32(box.Area()) / (float32(w) * float32(h))
		heightRatio := float32(box.Height()) / float32(h)
		// A "door" covering a third of the image is the facade, not a door
		if areaRatio <= 0.30 && heightRatio <= 0.55 {
			confidence := math32.Min(c.score*1.2, 0.99)
			result.Detections = append(result.Detections, detect.Detection{
				ID:         "det_0",
				Label:      detect.LabelEntrance,
				Confidence: float32(math.Round(float64(confidence)*100) / 100),
				Box:        box,
			})
		}
	}
	result.SetProcessingTime(time.Since(start))
	d.Log.Infof("Door finder found %v entrance(s) in %vms", len(result.Detections), result.ProcessingTimeMS)
	return &result, nil
}

// segmentRegions runs k-means color segmentation at several k values and
// scores the connected components of each non-dominant cluster.
func (d *DoorFinder) segmentRegions(ctx context.Context, mat gocv.Mat, minArea, maxArea float32) ([]candidate, error) {
	w := mat.Cols()
	h := mat.Rows()

	// Cluster at reduced resolution for speed
	scale := math32.Min(1, 300/float32(max(w, h)))
	sw := int(float32(w) * scale)
	sh := int(float32(h) * scale)
	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(mat, &small, image.Pt(sw, sh), 0, 0, gocv.InterpolationArea)
	gocv.GaussianBlur(small, &small, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	samples := gocv.NewMatWithSize(sw*sh, 3, gocv.MatTypeCV32F)
	defer samples.Close()
	for y := 0; y < sh; y++ {
		for x := 0; x < sw; x++ {
			px := small.GetVecbAt(y, x)
			row := y*sw + x
			samples.SetFloatAt(row, 0, float32(px[0]))
			samples.SetFloatAt(row, 1, float32(px[1]))
			samples.SetFloatAt(row, 2, float32(px[2]))
		}
	}

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()

	candidates := []candidate{}
	for _, k := range []int{4, 6, 8} {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		labels := gocv.NewMat()
		centers := gocv.NewMat()
		criteria := gocv.NewTermCriteria(gocv.EPS+gocv.MaxIter, 15, 1.0)
		gocv.KMeans(samples, k, &labels, criteria, 2, gocv.KMeansPPCenters, &centers)

		counts := make([]int, k)
		for i := 0; i < sw*sh; i++ {
			counts[labels.GetIntAt(i, 0)]++
		}
		dominant := 0
		for i := range counts {
			if counts[i] > counts[dominant] {
				dominant = i
			}
		}

		for labelID := 0; labelID < k; labelID++ {
			if labelID == dominant {
				continue
			}
			colorDist := clusterDistance(centers, labelID, dominant) / 255
			// Too close to the facade color is texture noise, not a feature
			if colorDist < 0.10 {
				continue
			}
			mask := gocv.NewMatWithSize(sh, sw, gocv.MatTypeCV8U)
			for i := 0; i < sw*sh; i++ {
				if int(labels.GetIntAt(i, 0)) == labelID {
					mask.SetUCharAt(i/sw, i%sw, 255)
				}
			}
			gocv.MorphologyExWithParams(mask, &mask, gocv.MorphClose, kernel, 2, gocv.BorderConstant)
			gocv.MorphologyEx(mask, &mask, gocv.MorphOpen, kernel)

			ccLabels := gocv.NewMat()
			stats := gocv.NewMat()
			centroids := gocv.NewMat()
			nComponents := gocv.ConnectedComponentsWithStats(mask, &ccLabels, &stats, &centroids)
			for cc := 1; cc < nComponents; cc++ {
				cx := int(stats.GetIntAt(cc, 0))
				cy := int(stats.GetIntAt(cc, 1))
				cw := int(stats.GetIntAt(cc, 2))
				ch := int(stats.GetIntAt(cc, 3))
				ccArea := float32(stats.GetIntAt(cc, 4))

				realArea := ccArea / (scale * scale)
				if realArea < minArea || realArea > maxArea {
					continue
				}
				ox := int(float32(cx) / scale)
				oy := int(float32(cy) / scale)
				ocw := int(float32(cw) / scale)
				och := int(float32(ch) / scale)
				if ocw < 10 || och < 15 {
					continue
				}

				aspect := float32(och) / float32(ocw)
				bottomEdge := float32(oy+och) / float32(h)
				// At ground level allow wider shapes (double doors)
				if bottomEdge > 0.50 {
					if aspect < 0.4 || aspect > 5.0 {
						continue
					}
				} else {
					if aspect < 1.1 || aspect > 5.0 {
						continue
					}
				}
				solidity := ccArea / float32(cw*ch)
				if solidity < 0.35 {
					continue
				}

				score := scoreDoorCandidate(ox, oy, ocw, och, realArea, solidity, colorDist, w, h)
				candidates = append(candidates, candidate{box: detect.MakeBox(ox, oy, ox+ocw, oy+och), score: score})
			}
			ccLabels.Close()
			stats.Close()
			centroids.Close()
			mask.Close()
		}
		labels.Close()
		centers.Close()
	}
	return candidates, nil
}

// linePairCandidates finds pairs of near-vertical edges that could be the
// sides of a door frame.
func (d *DoorFinder) linePairCandidates(mat gocv.Mat, minArea float32) []candidate {
	w := mat.Cols()
	h := mat.Rows()
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)
	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, 50, 150)
	lines := gocv.NewMat()
	defer lines.Close()
	gocv.HoughLinesPWithParams(edges, &lines, 1, math.Pi/180, 40, float32(h)*0.3, float32(h)*0.1)

	type vertical struct {
		cx       float32
		top, bot float32
	}
	verticals := []vertical{}
	for r := 0; r < lines.Rows(); r++ {
		seg := lines.GetVeciAt(r, 0)
		x1, y1, x2, y2 := float32(seg[0]), float32(seg[1]), float32(seg[2]), float32(seg[3])
		angle := math32.Abs(math32.Atan2(x2-x1, y2-y1) * 180 / math.Pi)
		if angle < 15 {
			verticals = append(verticals, vertical{
				cx:  (x1 + x2) / 2,
				top: math32.Min(y1, y2),
				bot: math32.Max(y1, y2),
			})
		}
	}
	sort.Slice(verticals, func(i, j int) bool { return verticals[i].cx < verticals[j].cx })

	candidates := []candidate{}
	for i := 0; i < len(verticals); i++ {
		for j := i + 1; j < len(verticals); j++ {
			left := verticals[i]
			right := verticals[j]
			gap := right.cx - left.cx
			if gap < float32(w)*0.08 || gap > float32(w)*0.45 {
				continue
			}
			top := math32.Min(left.top, right.top)
			bot := math32.Max(left.bot, right.bot)
			height := bot - top
			if height < float32(h)*0.25 {
				continue
			}
			aspect := height / gap
			if aspect < 1.2 || aspect > 4.5 {
				continue
			}
			if gap*height < minArea {
				continue
			}
			// Pairs confined to the upper half are windows
			if bot/float32(h) < 0.5 {
				continue
			}
			score := scoreLinePair((left.cx+right.cx)/2, bot, w, h)
			candidates = append(candidates, candidate{
				box:   detect.MakeBox(int(left.cx), int(top), int(left.cx+gap), int(top+height)),
				score: score,
			})
		}
	}
	return candidates
}

// clusterDistance is the euclidean distance between two k-means centers
func clusterDistance(centers gocv.Mat, a, b int) float32 {
	sum := float32(0)
	for c := 0; c < 3; c++ {
		d := centers.GetFloatAt(a, c) - centers.GetFloatAt(b, c)
		sum += d * d
	}
	return math32.Sqrt(sum)
}
