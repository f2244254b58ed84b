package detector

import (
	"context"
	"errors"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"

	"github.com/tseten14/cvscan/pkg/detect"
	"github.com/tseten14/cvscan/server/imagesource"
)

type stubDetector struct {
	name   string
	result *detect.Result
	err    error
	calls  int
}

func (s *stubDetector) Name() string {
	return s.name
}

func (s *stubDetector) Detect(ctx context.Context, img *imagesource.Image) (*detect.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func okResult() *detect.Result {
	return &detect.Result{ImageWidth: 10, ImageHeight: 10, Detections: []detect.Detection{}}
}

func TestChainPrimarySucceeds(t *testing.T) {
	log := logs.NewTestingLog(t)
	primary := &stubDetector{name: "backend", result: okResult()}
	fallback := &stubDetector{name: "doorfinder", result: okResult()}
	chain := NewChain(log, primary, fallback)

	outcome, err := chain.Run(context.Background(), testImage())
	require.NoError(t, err)
	require.Equal(t, "backend", outcome.Detector)
	require.False(t, outcome.FallbackUsed)
	require.Equal(t, 0, fallback.calls, "fallback must not run when the primary succeeds")
}

func TestChainFallsBack(t *testing.T) {
	log := logs.NewTestingLog(t)
	primary := &stubDetector{name: "backend", err: &TimeoutError{Bound: 1}}
	fallback := &stubDetector{name: "doorfinder", result: okResult()}
	chain := NewChain(log, primary, fallback)

	outcome, err := chain.Run(context.Background(), testImage())
	require.NoError(t, err)
	require.Equal(t, "doorfinder", outcome.Detector)
	require.True(t, outcome.FallbackUsed)
}

func TestChainAllFail(t *testing.T) {
	log := logs.NewTestingLog(t)
	primary := &stubDetector{name: "backend", err: &BackendError{Status: 503}}
	sentinel := errors.New("opencv exploded")
	fallback := &stubDetector{name: "doorfinder", err: sentinel}
	chain := NewChain(log, primary, fallback)

	_, err := chain.Run(context.Background(), testImage())
	fallbackErr := &FallbackError{}
	require.ErrorAs(t, err, &fallbackErr)
	require.Len(t, fallbackErr.Attempts, 2)
	require.Equal(t, "backend", fallbackErr.Attempts[0].Detector)
	require.Equal(t, "doorfinder", fallbackErr.Attempts[1].Detector)
	require.ErrorIs(t, err, sentinel)
}

func TestChainHonorsCancellation(t *testing.T) {
	log := logs.NewTestingLog(t)
	primary := &stubDetector{name: "backend", result: okResult()}
	chain := NewChain(log, primary)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := chain.Run(ctx, testImage())
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, primary.calls)
}
