package pipeline

import (
	"context"
	"sync"

	"github.com/cyclopcam/logs"

	"github.com/tseten14/cvscan/pkg/detect"
	"github.com/tseten14/cvscan/pkg/geo"
	"github.com/tseten14/cvscan/pkg/overlay"
	"github.com/tseten14/cvscan/server/detector"
	"github.com/tseten14/cvscan/server/imagesource"
)

// Package pipeline drives a detection run through its stages:
// resolve imagery for the selected point, then run detection over it.
// Starting a new run supersedes the previous one. We never abort the
// superseded run's in-flight work (the backend client's own timeout is the
// only thing that ends a hung call); instead each run carries an ID, and a
// run commits its outcome only if it is still the current run. Stale
// outcomes are discarded without any user-visible effect.

type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
)

// Status messages shown while a run is in flight
const (
	MsgFetching  = "Fetching imagery"
	MsgInference = "Running inference"
	MsgFallback  = "Primary detector unavailable, used local fallback"
)

// Resolver turns a point into a facade image (see imagesource.Source)
type Resolver interface {
	Resolve(ctx context.Context, point geo.Point) (*imagesource.Image, error)
}

// Runner runs detection over an image (see detector.Chain)
type Runner interface {
	Run(ctx context.Context, img *imagesource.Image) (*detector.RunOutcome, error)
}

// Status is a snapshot of the pipeline, safe to hand to HTTP and websocket
// consumers. Image carries metadata only (Data is not serialized).
type Status struct {
	State            State               `json:"state"`
	Message          string              `json:"message"`
	RunID            int64               `json:"runId"`
	Point            *geo.Point          `json:"point,omitempty"`
	Image            *imagesource.Image  `json:"image,omitempty"`
	Detector         string              `json:"detector,omitempty"`
	FallbackUsed     bool                `json:"fallbackUsed"`
	DetectionCount   int                 `json:"detectionCount"`
	ActiveDetection  string              `json:"activeDetection,omitempty"`
	Error            string              `json:"error,omitempty"`
	ProcessingTimeMS int64               `json:"processingTimeMS,omitempty"`
}

type Pipeline struct {
	Log logs.Log

	// OnRunFinished is called (on the run's goroutine, without the pipeline
	// lock) after a run commits Success or Failed. Used for run history.
	OnRunFinished func(Status)

	resolver  Resolver
	runner    Runner
	display   *imagesource.DisplayStore
	selection *overlay.Selection

	lock         sync.Mutex
	nextRunID    int64
	currentRunID int64 // only this run may commit
	state        State
	message      string
	point        *geo.Point
	result       *detect.Result
	detectorName string
	fallbackUsed bool
	lastError    string
	subscribers  map[chan Status]bool
}

func NewPipeline(log logs.Log, resolver Resolver, runner Runner) *Pipeline {
	return &Pipeline{
		Log:         log,
		resolver:    resolver,
		runner:      runner,
		display:     imagesource.NewDisplayStore(),
		selection:   &overlay.Selection{},
		state:       StateIdle,
		subscribers: map[chan Status]bool{},
	}
}

// StartFromPoint begins a run for a map selection: fetch imagery, then
// detect. Returns the new run's ID.
func (p *Pipeline) StartFromPoint(point geo.Point) int64 {
	p.lock.Lock()
	runID := p.beginRunLocked(&point, MsgFetching)
	p.lock.Unlock()
	p.notify()

	go func() {
		img, err := p.resolver.Resolve(context.Background(), point)
		if err != nil {
			p.commitFailure(runID, err)
			return
		}
		if !p.commitImage(runID, img) {
			return
		}
		p.runDetection(runID, img)
	}()
	return runID
}

// StartFromImage begins a run over directly supplied pixels (upload,
// drag-drop, paste). No imagery fetch stage.
func (p *Pipeline) StartFromImage(img *imagesource.Image) int64 {
	p.lock.Lock()
	runID := p.beginRunLocked(nil, MsgInference)
	p.lock.Unlock()
	p.notify()

	go func() {
		if !p.commitImage(runID, img) {
			return
		}
		p.runDetection(runID, img)
	}()
	return runID
}

// Reset returns the pipeline to idle. In-flight work becomes stale and its
// outcome is discarded when it tries to commit.
func (p *Pipeline) Reset() {
	p.lock.Lock()
	p.nextRunID++
	p.currentRunID = p.nextRunID
	p.state = StateIdle
	p.message = ""
	p.point = nil
	p.result = nil
	p.detectorName = ""
	p.fallbackUsed = false
	p.lastError = ""
	p.lock.Unlock()
	p.selection.Clear()
	p.display.Clear()
	p.notify()
}

func (p *Pipeline) beginRunLocked(point *geo.Point, message string) int64 {
	p.nextRunID++
	p.currentRunID = p.nextRunID
	p.state = StateProcessing
	p.message = message
	p.point = point
	p.result = nil
	p.detectorName = ""
	p.fallbackUsed = false
	p.lastError = ""
	p.selection.Clear()
	return p.currentRunID
}

func (p *Pipeline) runDetection(runID int64, img *imagesource.Image) {
	outcome, err := p.runner.Run(context.Background(), img)
	if err != nil {
		p.commitFailure(runID, err)
		return
	}
	p.lock.Lock()
	if runID != p.currentRunID {
		p.lock.Unlock()
		p.Log.Infof("Discarding result of superseded run %v (current %v)", runID, p.currentRunID)
		return
	}
	p.state = StateSuccess
	p.result = outcome.Result
	p.detectorName = outcome.Detector
	p.fallbackUsed = outcome.FallbackUsed
	if outcome.FallbackUsed {
		p.message = MsgFallback
	} else {
		p.message = ""
	}
	status := p.statusLocked()
	p.lock.Unlock()
	p.notify()
	p.finish(status)
}

// commitImage installs the run's image as the displayed image.
// Returns false if the run has been superseded.
func (p *Pipeline) commitImage(runID int64, img *imagesource.Image) bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	if runID != p.currentRunID {
		p.Log.Infof("Discarding image of superseded run %v (current %v)", runID, p.currentRunID)
		return false
	}
	p.display.Put(img)
	p.message = MsgInference
	go p.notify()
	return true
}

// commitFailure marks the run failed. The displayed image is left alone, so
// a failed run keeps whatever the user was looking at.
func (p *Pipeline) commitFailure(runID int64, err error) {
	p.lock.Lock()
	if runID != p.currentRunID {
		p.lock.Unlock()
		p.Log.Infof("Discarding failure of superseded run %v (current %v): %v", runID, p.currentRunID, err)
		return
	}
	p.state = StateFailed
	p.message = ""
	p.lastError = err.Error()
	status := p.statusLocked()
	p.lock.Unlock()
	p.Log.Warnf("Run %v failed: %v", runID, err)
	p.notify()
	p.finish(status)
}

func (p *Pipeline) finish(status Status) {
	if p.OnRunFinished != nil {
		p.OnRunFinished(status)
	}
}

// Status returns a snapshot of the pipeline
func (p *Pipeline) Status() Status {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.statusLocked()
}

func (p *Pipeline) statusLocked() Status {
	status := Status{
		State:           p.state,
		Message:         p.message,
		RunID:           p.currentRunID,
		Point:           p.point,
		Image:           p.display.Current(),
		Detector:        p.detectorName,
		FallbackUsed:    p.fallbackUsed,
		ActiveDetection: p.selection.Active(),
		Error:           p.lastError,
	}
	if p.result != nil {
		status.DetectionCount = len(p.result.Detections)
		status.ProcessingTimeMS = p.result.ProcessingTimeMS
	}
	return status
}

// Result returns the latest committed detection result, or nil
func (p *Pipeline) Result() *detect.Result {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.result
}

// Image returns the currently displayed image, or nil
func (p *Pipeline) Image() *imagesource.Image {
	return p.display.Current()
}

// ReleasedImages returns how many displayed images have been released
func (p *Pipeline) ReleasedImages() int64 {
	return p.display.ReleasedCount()
}

// ToggleDetection toggles the highlighted detection. Unknown ids are
// rejected so the selection can never point at a detection that isn't in the
// current result.
func (p *Pipeline) ToggleDetection(id string) (string, bool) {
	p.lock.Lock()
	known := p.result != nil && p.result.Find(id) != nil
	p.lock.Unlock()
	if !known {
		return p.selection.Active(), false
	}
	active := p.selection.Toggle(id)
	p.notify()
	return active, true
}

// ActiveDetection returns the highlighted detection id, or ""
func (p *Pipeline) ActiveDetection() string {
	return p.selection.Active()
}

// Subscribe returns a channel that receives a Status snapshot after every
// state change. Slow consumers miss snapshots rather than blocking the
// pipeline.
func (p *Pipeline) Subscribe() chan Status {
	p.lock.Lock()
	defer p.lock.Unlock()
	ch := make(chan Status, 16)
	p.subscribers[ch] = true
	return ch
}

func (p *Pipeline) Unsubscribe(ch chan Status) {
	p.lock.Lock()
	defer p.lock.Unlock()
	delete(p.subscribers, ch)
}

func (p *Pipeline) notify() {
	p.lock.Lock()
	status := p.statusLocked()
	for ch := range p.subscribers {
		select {
		case ch <- status:
		default:
		}
	}
	p.lock.Unlock()
}
