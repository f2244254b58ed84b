package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/tseten14/cvscan/pkg/geo"
	"github.com/tseten14/cvscan/pkg/www"
	"github.com/tseten14/cvscan/server/geocode"
	"github.com/tseten14/cvscan/server/imagesource"
	"github.com/tseten14/cvscan/server/picker"
)

// maxUploadSize bounds direct image uploads
const maxUploadSize = 20 * 1024 * 1024

func (s *Server) httpPing(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendOK(w)
}

type markerResponse struct {
	Marker *picker.Marker `json:"marker"`
	RunID  int64          `json:"runId"`
}

// httpMarkerSet places (or repositions) the map marker and starts a
// detection run for its location.
func (s *Server) httpMarkerSet(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	point := geo.Point{}
	www.ReadJSON(w, r, &point, 1024*1024)
	if !point.IsValid() {
		www.PanicBadRequestf("Invalid coordinates %v", point)
	}
	marker := s.picker.Select(point)
	runID := s.pipeline.StartFromPoint(point)
	s.Log.Infof("Marker set at %v, run %v started", point, runID)
	www.SendJSON(w, &markerResponse{Marker: marker, RunID: runID})
}

func (s *Server) httpMarkerGet(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	marker := s.picker.Marker()
	if marker == nil {
		www.PanicNotFoundf("No marker placed")
	}
	www.SendJSON(w, marker)
}

type runResponse struct {
	RunID int64 `json:"runId"`
}

// httpPipelineUpload starts a detection run over directly supplied pixels.
// File uploads, drag-drop and clipboard paste all arrive here.
func (s *Server) httpPipelineUpload(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		www.PanicBadRequestf("Expecting a multipart upload with a 'file' field: %v", err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	www.CheckClient(err)

	img, err := imagesource.FromUpload(data)
	if err != nil {
		www.PanicBadRequestf("%v", err)
	}
	runID := s.pipeline.StartFromImage(img)
	s.Log.Infof("Upload of %v bytes accepted, run %v started", len(data), runID)
	www.SendJSON(w, &runResponse{RunID: runID})
}

func (s *Server) httpPipelineStatus(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.CacheNever(w)
	www.SendJSON(w, s.pipeline.Status())
}

func (s *Server) httpPipelineReset(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	s.pipeline.Reset()
	s.picker.Clear()
	www.SendOK(w)
}

func (s *Server) httpPipelineResult(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	result := s.pipeline.Result()
	if result == nil {
		www.PanicNotFoundf("No detection result")
	}
	www.CacheNever(w)
	www.SendJSON(w, result)
}

type selectResponse struct {
	Active string `json:"active"`
}

// httpPipelineSelect toggles the highlighted detection. Selecting the already
// highlighted detection deselects it.
func (s *Server) httpPipelineSelect(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id := params.ByName("detectionID")
	active, ok := s.pipeline.ToggleDetection(id)
	if !ok {
		www.PanicNotFoundf("No detection '%v' in the current result", id)
	}
	www.SendJSON(w, &selectResponse{Active: active})
}

// httpGeocode resolves a free-text address. A failed lookup is a 404 and
// nothing else: it never disturbs the pipeline or the marker.
func (s *Server) httpGeocode(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	query := www.RequiredQueryValue(r, "query")
	point, err := s.geocoder.Search(r.Context(), query)
	if errors.Is(err, geocode.ErrAddressNotFound) {
		www.PanicNotFoundf("No results for '%v'", query)
	}
	if err != nil {
		www.PanicServerErrorf("Geocode lookup failed: %v", err)
	}
	www.SendJSON(w, point)
}

func (s *Server) httpRuns(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	runs, err := s.RunsDB.LatestRuns(www.QueryInt(r, "limit"))
	www.Check(err)
	www.SendJSON(w, runs)
}
