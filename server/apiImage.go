package server

import (
	"image"
	"image/draw"
	"net/http"

	"github.com/bmharper/cimg/v2"
	"github.com/julienschmidt/httprouter"

	"github.com/tseten14/cvscan/pkg/overlay"
	"github.com/tseten14/cvscan/pkg/www"
)

// httpPipelineImage serves the displayed facade image.
// With no query parameters the original bytes go out untouched. The
// 'annotated=1' parameter burns the detection overlays into the pixels,
// and 'w'/'h' resize the output. Anything other than raw passthrough is
// re-encoded as JPEG.
func (s *Server) httpPipelineImage(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	img := s.pipeline.Image()
	if img == nil || img.Data == nil {
		www.PanicNotFoundf("No image")
	}
	annotated := www.QueryValue(r, "annotated") == "1"
	width := www.QueryInt(r, "w")
	height := www.QueryInt(r, "h")
	www.CacheNever(w)

	if !annotated && width == 0 && height == 0 {
		www.SendBinary(w, img.MIME, img.Data)
		return
	}

	var raw *cimg.Image
	if annotated {
		decoded, err := img.Decode()
		www.Check(err)
		if result := s.pipeline.Result(); result != nil {
			decoded = overlay.Annotate(decoded, result, s.pipeline.ActiveDetection())
		}
		raw = toCimg(decoded)
	} else {
		decompressed, err := cimg.Decompress(img.Data)
		www.Check(err)
		raw = decompressed
	}

	// If only one dimension is given, preserve aspect ratio
	if width > 0 || height > 0 {
		if width == 0 {
			width = raw.Width * height / raw.Height
		}
		if height == 0 {
			height = raw.Height * width / raw.Width
		}
		if width != raw.Width || height != raw.Height {
			raw = cimg.ResizeNew(raw, width, height, nil)
		}
	}

	jpg, err := cimg.Compress(raw, cimg.MakeCompressParams(cimg.Sampling420, 90, 0))
	www.Check(err)
	www.SendBinary(w, "image/jpeg", jpg)
}

// httpPipelineOverlays returns the overlay shapes for the current result,
// scaled to the caller's rendered image size.
func (s *Server) httpPipelineOverlays(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	result := s.pipeline.Result()
	if result == nil {
		www.PanicNotFoundf("No detection result")
	}
	renderedW := www.RequiredQueryInt(r, "w")
	renderedH := www.RequiredQueryInt(r, "h")
	scale := overlay.ComputeScale(renderedW, renderedH, result.ImageWidth, result.ImageHeight)
	www.CacheNever(w)
	www.SendJSON(w, overlay.Layout(result, scale, s.pipeline.ActiveDetection()))
}

func toCimg(src image.Image) *cimg.Image {
	bounds := src.Bounds()
	rgba, ok := src.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || bounds.Min != image.Pt(0, 0) {
		copied := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(copied, copied.Bounds(), src, bounds.Min, draw.Src)
		rgba = copied
	}
	return cimg.WrapImage(bounds.Dx(), bounds.Dy(), cimg.PixelFormatRGBA, rgba.Pix)
}
