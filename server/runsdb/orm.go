package runsdb

import (
	"time"

	"github.com/tseten14/cvscan/pkg/dbh"
	"github.com/tseten14/cvscan/pkg/geo"
	"github.com/tseten14/cvscan/server/pipeline"
)

// BaseModel is our base class for a GORM model.
// The default GORM Model uses int, but we prefer int64
type BaseModel struct {
	ID int64 `gorm:"primaryKey" json:"id"`
}

// RunSource says where the run's image came from
type RunSource string

const (
	RunSourceMap    RunSource = "map"    // selected on the map, fetched from the imagery service
	RunSourceUpload RunSource = "upload" // file upload, drag-drop or clipboard paste
)

// Run is one finished detection run
type Run struct {
	BaseModel
	CreatedAt        dbh.IntTime `json:"createdAt"`
	Lat              float64     `json:"lat" gorm:"default:null"`
	Lng              float64     `json:"lng" gorm:"default:null"`
	Source           RunSource   `json:"source"`
	State            string      `json:"state"`
	Detector         string      `json:"detector" gorm:"default:null"`
	FallbackUsed     bool        `json:"fallbackUsed"`
	DetectionCount   int         `json:"detectionCount"`
	ProcessingTimeMS int64       `json:"processingTimeMS"`
	Error            string      `json:"error,omitempty" gorm:"default:null"`
}

type Variable struct {
	Key   string `gorm:"primaryKey" json:"key"`
	Value string `json:"value"`
}

// RunFromStatus builds a history record from a finished pipeline run
func RunFromStatus(status pipeline.Status) *Run {
	run := &Run{
		CreatedAt:        dbh.MakeIntTime(time.Now()),
		Source:           RunSourceUpload,
		State:            string(status.State),
		Detector:         status.Detector,
		FallbackUsed:     status.FallbackUsed,
		DetectionCount:   status.DetectionCount,
		ProcessingTimeMS: status.ProcessingTimeMS,
		Error:            status.Error,
	}
	if status.Point != nil {
		run.Source = RunSourceMap
		run.Lat = status.Point.Lat
		run.Lng = status.Point.Lng
	}
	return run
}

// Point returns the run's coordinate, or nil for uploads
func (r *Run) Point() *geo.Point {
	if r.Source != RunSourceMap {
		return nil
	}
	return &geo.Point{Lat: r.Lat, Lng: r.Lng}
}
