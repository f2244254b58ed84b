package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/cyclopcam/logs"

	"github.com/tseten14/cvscan/pkg/detect"
	"github.com/tseten14/cvscan/server/imagesource"
)

// DefaultTimeout bounds a backend call. The backend advertises no deadline of
// its own, so without this a hung model server would hang us too.
const DefaultTimeout = 8 * time.Minute

// DefaultMinConfidence drops low-confidence detections before they reach the UI
const DefaultMinConfidence = 0.45

// Backend calls a remote inference service over HTTP
type Backend struct {
	Log           logs.Log
	BaseURL       string
	Client        *http.Client
	Timeout       time.Duration
	MinConfidence float32
}

func NewBackend(log logs.Log, baseURL string) *Backend {
	return &Backend{
		Log:           log,
		BaseURL:       baseURL,
		Client:        &http.Client{},
		Timeout:       DefaultTimeout,
		MinConfidence: DefaultMinConfidence,
	}
}

func (b *Backend) Name() string {
	return "backend"
}

// Detect posts the image to the backend's /detect endpoint as a multipart
// upload and post-processes the response: validate, confidence filter,
// normalize labels, clip to image bounds, then non-maximum suppression.
func (b *Backend) Detect(ctx context.Context, img *imagesource.Image) (*detect.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, b.Timeout)
	defer cancel()

	body := bytes.Buffer{}
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "facade"+extensionForMIME(img.MIME))
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", b.BaseURL+"/detect", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := b.Client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, &TimeoutError{Bound: b.Timeout}
		}
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &BackendError{Status: resp.StatusCode, Body: string(msg)}
	}

	result := detect.Result{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		// The deadline can also expire mid body read
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &TimeoutError{Bound: b.Timeout}
		}
		return nil, &BackendError{Status: resp.StatusCode, Body: fmt.Sprintf("malformed response: %v", err)}
	}
	if err := result.Validate(); err != nil {
		return nil, &BackendError{Status: resp.StatusCode, Body: fmt.Sprintf("malformed response: %v", err)}
	}

	kept := result.Detections[:0]
	for _, d := range result.Detections {
		if d.Confidence < b.MinConfidence {
			continue
		}
		d.Label = detect.NormalizeLabel(d.Label)
		kept = append(kept, d)
	}
	result.Detections = kept
	result.SortByConfidence()
	result.Clip()
	result.Detections = detect.Nms(result.Detections, detect.DefaultNmsIouThreshold, detect.DefaultPairThresholds)
	if result.ProcessingTimeMS == 0 {
		result.SetProcessingTime(time.Since(start))
	}
	b.Log.Infof("Backend detected %v objects in %vms", len(result.Detections), result.ProcessingTimeMS)
	return &result, nil
}

func extensionForMIME(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
