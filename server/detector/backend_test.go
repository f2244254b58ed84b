package detector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"

	"github.com/tseten14/cvscan/server/imagesource"
)

func testImage() *imagesource.Image {
	return &imagesource.Image{
		Key:    "img-1",
		MIME:   "image/jpeg",
		Width:  640,
		Height: 480,
		Data:   []byte("not real jpeg bytes, backend never looks"),
	}
}

func TestBackendDetect(t *testing.T) {
	log := logs.NewTestingLog(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/detect", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1024*1024))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		file.Close()
		require.Equal(t, "facade.jpg", header.Filename)
		w.Write([]byte(`{
			"image_width": 640,
			"image_height": 480,
			"processing_time_ms": 120,
			"detections": [
				{"id": "a", "label": "entrance", "confidence": 0.9, "bbox": {"xmin": 100, "ymin": 200, "xmax": 160, "ymax": 340}},
				{"id": "b", "label": "person", "confidence": 0.2, "bbox": {"xmin": 10, "ymin": 10, "xmax": 40, "ymax": 90}},
				{"id": "c", "label": "car", "confidence": 0.7, "bbox": {"xmin": 400, "ymin": 300, "xmax": 900, "ymax": 600}}
			]
		}`))
	}))
	defer ts.Close()

	backend := NewBackend(log, ts.URL)
	result, err := backend.Detect(context.Background(), testImage())
	require.NoError(t, err)

	// "b" is below the confidence floor, "c" gets clipped to the frame
	require.Len(t, result.Detections, 2)
	require.Equal(t, "a", result.Detections[0].ID)
	require.Equal(t, "Entrance", result.Detections[0].Label)
	require.Equal(t, "c", result.Detections[1].ID)
	require.Equal(t, 640, result.Detections[1].Box.XMax)
	require.Equal(t, 480, result.Detections[1].Box.YMax)
	require.EqualValues(t, 120, result.ProcessingTimeMS)
}

func TestBackendTimeout(t *testing.T) {
	log := logs.NewTestingLog(t)
	release := make(chan bool)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	backend := NewBackend(log, ts.URL)
	backend.Timeout = 50 * time.Millisecond
	_, err := backend.Detect(context.Background(), testImage())
	require.Error(t, err)
	timeoutErr := &TimeoutError{}
	require.ErrorAs(t, err, &timeoutErr)
	require.Equal(t, 50*time.Millisecond, timeoutErr.Bound)
}

func TestBackendErrorStatus(t *testing.T) {
	log := logs.NewTestingLog(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	backend := NewBackend(log, ts.URL)
	_, err := backend.Detect(context.Background(), testImage())
	backendErr := &BackendError{}
	require.ErrorAs(t, err, &backendErr)
	require.Equal(t, http.StatusServiceUnavailable, backendErr.Status)
	require.Contains(t, backendErr.Body, "model not loaded")
}

func TestBackendInvalidResponse(t *testing.T) {
	log := logs.NewTestingLog(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Duplicate detection ids are a malformed response
		w.Write([]byte(`{
			"image_width": 640,
			"image_height": 480,
			"detections": [
				{"id": "a", "label": "entrance", "confidence": 0.9, "bbox": {"xmin": 1, "ymin": 1, "xmax": 5, "ymax": 5}},
				{"id": "a", "label": "entrance", "confidence": 0.8, "bbox": {"xmin": 2, "ymin": 2, "xmax": 6, "ymax": 6}}
			]
		}`))
	}))
	defer ts.Close()

	backend := NewBackend(log, ts.URL)
	_, err := backend.Detect(context.Background(), testImage())
	backendErr := &BackendError{}
	require.ErrorAs(t, err, &backendErr)
	require.Contains(t, backendErr.Body, "malformed response")
}

func TestBackendMalformedJSON(t *testing.T) {
	log := logs.NewTestingLog(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"image_width": 640, "image_hei`))
	}))
	defer ts.Close()

	backend := NewBackend(log, ts.URL)
	_, err := backend.Detect(context.Background(), testImage())
	backendErr := &BackendError{}
	require.ErrorAs(t, err, &backendErr)
	require.Equal(t, http.StatusOK, backendErr.Status)
	require.Contains(t, backendErr.Body, "malformed response")
}

// A backend that sends headers promptly but stalls mid body is still a
// timeout, not a malformed response.
func TestBackendTimeoutDuringBodyRead(t *testing.T) {
	log := logs.NewTestingLog(t)
	release := make(chan bool)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"image_width": 640,`))
		w.(http.Flusher).Flush()
		<-release
	}))
	defer ts.Close()
	defer close(release)

	backend := NewBackend(log, ts.URL)
	backend.Timeout = 50 * time.Millisecond
	_, err := backend.Detect(context.Background(), testImage())
	timeoutErr := &TimeoutError{}
	require.ErrorAs(t, err, &timeoutErr)
	require.Equal(t, 50*time.Millisecond, timeoutErr.Bound)
}
