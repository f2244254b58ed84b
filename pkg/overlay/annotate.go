package overlay

import (
	"fmt"
	"image"

	"github.com/fogleman/gg"

	"github.com/tseten14/cvscan/pkg/detect"
)

// Annotate draws the result's overlays onto a copy of img and returns it.
// This is the server-side rendering path: the interactive client draws its
// own DOM overlays from Layout(), but the annotated-image endpoint bakes the
// same geometry into pixels.
// The image is assumed to be at the rendered size already, so the scale is
// rendered-size over the result's recorded original size.
func Annotate(img image.Image, result *detect.Result, activeID string) image.Image {
	bounds := img.Bounds()
	scale := ComputeScale(bounds.Dx(), bounds.Dy(), result.ImageWidth, result.ImageHeight)
	shapes := Layout(result, scale, activeID)

	dc := gg.NewContextForImage(img)
	for _, shape := range shapes {
		lineWidth := 2.5
		if shape.Active {
			lineWidth = 4
		}
		dc.SetHexColor(shape.Color)
		dc.SetLineWidth(lineWidth)
		if shape.Kind == ShapePolygon {
			dc.NewSubPath()
			for _, pt := range shape.Points {
				dc.LineTo(pt.X, pt.Y)
			}
			dc.ClosePath()
			dc.Stroke()
		} else {
			dc.DrawRectangle(shape.Left, shape.Top, shape.Width, shape.Height)
			dc.Stroke()
		}
		drawLabelChip(dc, shape)
	}
	return dc.Image()
}

func drawLabelChip(dc *gg.Context, shape Shape) {
	text := fmt.Sprintf("%s %.0f%%", shape.Label, shape.Confidence*100)
	tw, th := dc.MeasureString(text)
	pad := 3.0
	x := shape.LabelX
	y := shape.LabelY
	dc.SetHexColor(shape.Color)
	dc.DrawRectangle(x, y, tw+2*pad, th+2*pad)
	dc.Fill()
	dc.SetHexColor("#ffffff")
	dc.DrawString(text, x+pad, y+pad+th)
}
