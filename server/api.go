package server

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/julienschmidt/httprouter"

	"github.com/tseten14/cvscan/pkg/www"
)

func (s *Server) setupRoutes() http.Handler {
	router := httprouter.New()

	// We create a unique rate limiter for each endpoint, so we don't need
	// httprate.KeyByEndpoint.
	ratelimited := func(method, route string, handle httprouter.Handle, requestLimit int, windowLength time.Duration) {
		limited := httprate.Limit(requestLimit, windowLength, httprate.WithKeyFuncs(httprate.KeyByIP))
		www.Handle(s.Log, router, method, route, func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
			limited(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handle(w, r, params)
			})).ServeHTTP(w, r)
		})
	}

	www.Handle(s.Log, router, "GET", "/api/ping", s.httpPing)

	// Marker (map selection)
	ratelimited("POST", "/api/marker", s.httpMarkerSet, 10, time.Second)
	www.Handle(s.Log, router, "GET", "/api/marker", s.httpMarkerGet)

	// Pipeline
	ratelimited("POST", "/api/pipeline/image", s.httpPipelineUpload, 5, time.Second)
	www.Handle(s.Log, router, "GET", "/api/pipeline/status", s.httpPipelineStatus)
	www.Handle(s.Log, router, "POST", "/api/pipeline/reset", s.httpPipelineReset)
	www.Handle(s.Log, router, "GET", "/api/pipeline/result", s.httpPipelineResult)
	www.Handle(s.Log, router, "GET", "/api/pipeline/image", s.httpPipelineImage)
	www.Handle(s.Log, router, "GET", "/api/pipeline/overlays", s.httpPipelineOverlays)
	www.Handle(s.Log, router, "POST", "/api/pipeline/select/:detectionID", s.httpPipelineSelect)

	// The public geocoding services have strict usage policies, so be
	// conservative with how fast we'll relay requests to them.
	ratelimited("GET", "/api/geocode", s.httpGeocode, 2, time.Second)

	// Configuration variables
	www.Handle(s.Log, router, "GET", "/api/config/variables", s.httpConfigGetVariables)
	www.Handle(s.Log, router, "GET", "/api/config/variable/:key", s.httpConfigGetVariable)
	www.Handle(s.Log, router, "POST", "/api/config/variable/:key", s.httpConfigSetVariable)

	www.Handle(s.Log, router, "GET", "/api/runs", s.httpRuns)
	www.Handle(s.Log, router, "GET", "/api/ws/pipeline", s.httpPipelineWS)

	return router
}
