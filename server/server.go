package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/gorilla/websocket"

	"github.com/tseten14/cvscan/server/detector"
	"github.com/tseten14/cvscan/server/geocode"
	"github.com/tseten14/cvscan/server/imagesource"
	"github.com/tseten14/cvscan/server/picker"
	"github.com/tseten14/cvscan/server/pipeline"
	"github.com/tseten14/cvscan/server/runsdb"
)

// DefaultBackendURL is where we expect a local inference backend
const DefaultBackendURL = "http://localhost:8000"

// DefaultRunHistoryLimit caps the number of rows kept in the run table
const DefaultRunHistoryLimit = 1000

type Config struct {
	// Path of the sqlite database holding run history and variables
	RunsDBPath string
	// Detection backend base URL. Falls back to the BackendURL variable in
	// the database, then to DefaultBackendURL.
	BackendURL string
	// Facade imagery service base URL. Falls back to the ImageryURL
	// variable, then to the public default.
	ImageryBaseURL string
	// Geocoding service base URL. Falls back to the GeocodeURL variable,
	// then to the public default.
	GeocodeBaseURL string
	// Override of the backend call timeout. Falls back to the
	// BackendTimeout variable (seconds), then to the default.
	BackendTimeout time.Duration
}

type Server struct {
	Log    logs.Log
	RunsDB *runsdb.RunsDB
	// RunHistoryLimit is the maximum number of runs retained in the database
	RunHistoryLimit int

	pipeline   *pipeline.Pipeline
	picker     *picker.Picker
	geocoder   *geocode.Client
	wsUpgrader websocket.Upgrader
	httpServer *http.Server
}

func NewServer(log logs.Log, cfg Config) (*Server, error) {
	runsDB, err := runsdb.NewRunsDB(log, cfg.RunsDBPath)
	if err != nil {
		return nil, err
	}

	backendURL, err := resolveVariable(runsDB, cfg.BackendURL, runsdb.VarBackendURL)
	if err != nil {
		return nil, err
	}
	if backendURL == "" {
		backendURL = DefaultBackendURL
	}
	imageryURL, err := resolveVariable(runsDB, cfg.ImageryBaseURL, runsdb.VarImageryURL)
	if err != nil {
		return nil, err
	}
	geocodeURL, err := resolveVariable(runsDB, cfg.GeocodeBaseURL, runsdb.VarGeocodeURL)
	if err != nil {
		return nil, err
	}
	timeout, err := backendTimeout(runsDB, cfg.BackendTimeout)
	if err != nil {
		return nil, err
	}
	backend := detector.NewBackend(log, backendURL)
	if timeout != 0 {
		backend.Timeout = timeout
	}
	chain := detector.NewChain(log, backend, detector.NewDoorFinder(log))
	source := imagesource.NewSource(log, imageryURL)
	pipe := pipeline.NewPipeline(log, source, chain)
	return newServerWith(log, runsDB, pipe, geocode.NewClient(log, geocodeURL)), nil
}

// resolveVariable returns the configured value, falling back to the stored
// variable when the config leaves it empty.
func resolveVariable(runsDB *runsdb.RunsDB, configured string, key runsdb.VariableKey) (string, error) {
	if configured != "" {
		return configured, nil
	}
	return runsDB.GetVariable(key)
}

// backendTimeout returns the configured timeout, falling back to the
// BackendTimeout variable (whole seconds). Zero means "use the default".
func backendTimeout(runsDB *runsdb.RunsDB, configured time.Duration) (time.Duration, error) {
	if configured != 0 {
		return configured, nil
	}
	v, err := runsDB.GetVariable(runsdb.VarBackendTimeout)
	if err != nil || v == "" {
		return 0, err
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds <= 0 {
		return 0, fmt.Errorf("invalid %v variable '%v'", runsdb.VarBackendTimeout, v)
	}
	return time.Duration(seconds) * time.Second, nil
}

// newServerWith wires up a server around an existing pipeline.
// Tests use this to inject stub resolvers and runners.
func newServerWith(log logs.Log, runsDB *runsdb.RunsDB, pipe *pipeline.Pipeline, geocoder *geocode.Client) *Server {
	s := &Server{
		Log:             log,
		RunsDB:          runsDB,
		RunHistoryLimit: DefaultRunHistoryLimit,
		pipeline:        pipe,
		picker:          picker.NewPicker(),
		geocoder:        geocoder,
	}
	pipe.OnRunFinished = func(status pipeline.Status) {
		if err := runsDB.AddRun(runsdb.RunFromStatus(status)); err != nil {
			log.Errorf("Failed to record run: %v", err)
		}
		if err := runsDB.PurgeOlderThan(s.RunHistoryLimit); err != nil {
			log.Errorf("Failed to purge run history: %v", err)
		}
	}
	return s
}

// ListenHTTP blocks serving the API. port example: ":8080"
func (s *Server) ListenHTTP(port string) error {
	s.httpServer = &http.Server{
		Addr:    port,
		Handler: s.setupRoutes(),
	}
	s.Log.Infof("Listening on %v", port)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the HTTP server, giving in-flight requests a few seconds
func (s *Server) Shutdown() {
	s.Log.Infof("Shutting down")
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}
}
