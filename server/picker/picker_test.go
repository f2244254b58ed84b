package picker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tseten14/cvscan/pkg/geo"
)

func TestSelectMovesExistingMarker(t *testing.T) {
	p := NewPicker()
	require.Equal(t, 0, p.MarkerCount())
	require.Nil(t, p.Marker())

	a := geo.Point{Lat: 42.2808, Lng: -83.7430}
	b := geo.Point{Lat: 42.2810, Lng: -83.7500}

	m := p.Select(a)
	require.Equal(t, 1, p.MarkerCount())
	require.Equal(t, a, m.Point)
	require.Equal(t, 0, m.Moves)

	// The second selection repositions, it does not create a second marker
	m = p.Select(b)
	require.Equal(t, 1, p.MarkerCount())
	require.Equal(t, b, m.Point)
	require.Equal(t, 1, m.Moves)

	// Re-selecting the same point is a move too (idempotent on count)
	m = p.Select(b)
	require.Equal(t, 1, p.MarkerCount())
	require.Equal(t, 2, m.Moves)
}

func TestClear(t *testing.T) {
	p := NewPicker()
	p.Select(geo.Point{Lat: 1, Lng: 2})
	p.Clear()
	require.Equal(t, 0, p.MarkerCount())
	require.Nil(t, p.Marker())

	// Selection after clear starts a fresh marker
	m := p.Select(geo.Point{Lat: 3, Lng: 4})
	require.Equal(t, 0, m.Moves)
}
