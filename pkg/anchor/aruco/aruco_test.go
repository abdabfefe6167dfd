package aruco

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-marker/pkg/overlay"
	"gocv.io/x/gocv"
)

func TestNew_Dictionary(t *testing.T) {
	_, err := New(DefaultConfig())
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Dictionary = "7x7_1000"
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestSource_Find(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MarkerID = 7
	s, err := New(cfg)
	require.NoError(t, err)

	square := []gocv.Point2f{{X: 10, Y: 10}, {X: 20, Y: 10}, {X: 20, Y: 20}, {X: 10, Y: 20}}

	_, found := s.find([]int{1, 2}, [][]gocv.Point2f{square, square})
	assert.False(t, found)

	quad, found := s.find([]int{3, 7}, [][]gocv.Point2f{nil, square})
	require.True(t, found)
	assert.Equal(t, overlay.Point{X: 20, Y: 20}, quad[2])

	_, found = s.find([]int{7}, [][]gocv.Point2f{square[:3]})
	assert.False(t, found, "partial quads are not detections")
}
