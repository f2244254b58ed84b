package detector

import (
	"context"

	"github.com/cyclopcam/logs"

	"github.com/tseten14/cvscan/pkg/detect"
	"github.com/tseten14/cvscan/server/imagesource"
)

// Package detector runs object detection over a facade image. The primary
// path is a remote inference backend; if that fails (timeout, outage, bad
// response), we degrade to a local heuristic detector rather than showing the
// user nothing. The Chain encodes that ordering.

// Detector is a single detection tier
type Detector interface {
	// Detect runs detection over the image. ctx carries the caller's
	// cancellation; implementations that talk to the network must honor it.
	Detect(ctx context.Context, img *imagesource.Image) (*detect.Result, error)
	Name() string
}

// RunOutcome is the result of a chain run, with provenance
type RunOutcome struct {
	Result *detect.Result
	// Detector is the name of the tier that produced the result
	Detector string
	// FallbackUsed is true if any tier before the producing one failed
	FallbackUsed bool
}

// Chain tries detectors in order until one succeeds
type Chain struct {
	Log   logs.Log
	Tiers []Detector
}

func NewChain(log logs.Log, tiers ...Detector) *Chain {
	return &Chain{
		Log:   log,
		Tiers: tiers,
	}
}

// Run executes the chain. A tier that returns an error is logged and the next
// tier gets its chance with the same image. If every tier fails, the error is
// a *FallbackError holding each attempt.
func (c *Chain) Run(ctx context.Context, img *imagesource.Image) (*RunOutcome, error) {
	attempts := []Attempt{}
	for _, tier := range c.Tiers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := tier.Detect(ctx, img)
		if err != nil {
			c.Log.Warnf("Detector '%v' failed: %v", tier.Name(), err)
			attempts = append(attempts, Attempt{Detector: tier.Name(), Err: err})
			continue
		}
		if len(attempts) != 0 {
			c.Log.Infof("Detector '%v' succeeded after %v failed tier(s)", tier.Name(), len(attempts))
		}
		return &RunOutcome{
			Result:       result,
			Detector:     tier.Name(),
			FallbackUsed: len(attempts) != 0,
		}, nil
	}
	return nil, &FallbackError{Attempts: attempts}
}
