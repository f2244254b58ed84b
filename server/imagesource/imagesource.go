package imagesource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"github.com/bmharper/cimg/v2"
	"github.com/cyclopcam/logs"
	_ "golang.org/x/image/webp"

	"github.com/tseten14/cvscan/pkg/geo"
)

// Package imagesource resolves a geographic point to a displayable facade
// image. Two orthogonal supply policies: a deterministic-by-coordinate remote
// fetch, and direct upload (file, drag-drop, clipboard paste), which bypasses
// the network entirely. Both produce the same Image type, so downstream code
// never knows where the pixels came from.

// DefaultBaseURL is a seeded imagery service: the same seed always returns
// the same image.
const DefaultBaseURL = "https://picsum.photos"

const DefaultImageWidth = 1024
const DefaultImageHeight = 768

// ErrNotImage is returned for uploads whose content is not a decodable image
var ErrNotImage = errors.New("file must be an image (jpeg, png, webp)")

// FetchError means the remote imagery service returned a non-success status,
// or the request failed outright (Status 0). The caller decides whether to
// surface or retry; we never retry internally.
type FetchError struct {
	URL    string
	Status int
}

func (e *FetchError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("failed to fetch imagery from %v", e.URL)
	}
	return fmt.Sprintf("imagery service returned %v for %v", e.Status, e.URL)
}

// Image is a facade image ready for display and detection
type Image struct {
	Key       string `json:"key"` // assigned by the display store
	MIME      string `json:"mime"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SourceURL string `json:"sourceURL,omitempty"` // empty for uploads
	Uploaded  bool   `json:"uploaded"`
	Data      []byte `json:"-"`
}

// Decode returns the image's pixels. JPEG and PNG go through cimg (turbojpeg
// underneath), anything else falls back to the standard decoders (webp is
// registered).
func (m *Image) Decode() (image.Image, error) {
	if m.Data == nil {
		return nil, errors.New("image has been released")
	}
	if m.MIME == "image/jpeg" || m.MIME == "image/png" {
		if raw, err := cimg.Decompress(m.Data); err == nil {
			return rawToImage(raw), nil
		}
	}
	img, _, err := image.Decode(bytes.NewReader(m.Data))
	return img, err
}

func rawToImage(raw *cimg.Image) image.Image {
	nchan := raw.NChan()
	out := image.NewRGBA(image.Rect(0, 0, raw.Width, raw.Height))
	for y := 0; y < raw.Height; y++ {
		for x := 0; x < raw.Width; x++ {
			src := (y*raw.Width + x) * nchan
			dst := out.PixOffset(x, y)
			out.Pix[dst] = raw.Pixels[src]
			out.Pix[dst+1] = raw.Pixels[src+1]
			out.Pix[dst+2] = raw.Pixels[src+2]
			if nchan >= 4 {
				out.Pix[dst+3] = raw.Pixels[src+3]
			} else {
				out.Pix[dst+3] = 255
			}
		}
	}
	return out
}

// Source fetches facade imagery for a coordinate
type Source struct {
	Log     logs.Log
	BaseURL string
	Client  *http.Client

	// Requested imagery dimensions. These are part of the remote URL, so they
	// also participate in determinism: same point + same size = same image.
	ImageWidth  int
	ImageHeight int
}

func NewSource(log logs.Log, baseURL string) *Source {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Source{
		Log:         log,
		BaseURL:     baseURL,
		Client:      &http.Client{Timeout: 30 * time.Second},
		ImageWidth:  DefaultImageWidth,
		ImageHeight: DefaultImageHeight,
	}
}

// URLForPoint returns the deterministic imagery URL for a point.
// The seed is derived from the rounded coordinate pair, so re-selecting the
// same location always resolves to the same remote resource.
func (s *Source) URLForPoint(point geo.Point) string {
	return fmt.Sprintf("%v/seed/%v/%v/%v", s.BaseURL, point.Seed(), s.ImageWidth, s.ImageHeight)
}

// Resolve fetches the facade image for a point.
// Non-2xx or a transport failure returns a *FetchError.
func (s *Source) Resolve(ctx context.Context, point geo.Point) (*Image, error) {
	url := s.URLForPoint(point)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		s.Log.Warnf("Imagery fetch failed for %v: %v", point, err)
		return nil, &FetchError{URL: url}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{URL: url, Status: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url}
	}
	img, err := makeImage(data)
	if err != nil {
		return nil, err
	}
	img.SourceURL = url
	s.Log.Infof("Resolved %v to %v (%v bytes, %vx%v)", point, url, len(data), img.Width, img.Height)
	return img, nil
}

// FromUpload wraps directly supplied image bytes (file upload, drag-drop or
// clipboard paste all funnel through here).
func FromUpload(data []byte) (*Image, error) {
	img, err := makeImage(data)
	if err != nil {
		return nil, err
	}
	img.Uploaded = true
	return img, nil
}

func makeImage(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrNotImage
	}
	mime := http.DetectContentType(data)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrNotImage
	}
	return &Image{
		MIME:   mime,
		Width:  cfg.Width,
		Height: cfg.Height,
		Data:   data,
	}, nil
}
