package dbh

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIntTime(t *testing.T) {
	now := time.Date(2025, 3, 9, 14, 30, 0, 0, time.UTC)
	it := MakeIntTime(now)
	require.Equal(t, now, it.Get())
	require.False(t, it.IsZero())

	require.True(t, MakeIntTime(time.Time{}).IsZero())
	require.True(t, MakeIntTime(time.Time{}).Get().IsZero())

	b, err := json.Marshal(it)
	require.NoError(t, err)
	var back IntTime
	require.NoError(t, json.Unmarshal(b, &back))
	require.Equal(t, it, back)
}
