package monitor

import (
	"bytes"
	"testing"

	"github.com/aeroglyph/voxelcast/internal/detect/geom"
	"github.com/aeroglyph/voxelcast/internal/detect/track"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func confirmedTrack(id uuid.UUID, frame int, pos geom.Vector) track.Track {
	return track.Track{
		ID:        id,
		Confirmed: true,
		Positions: []track.Position{{FrameIndex: frame, Pos: pos}},
	}
}

func TestRecorderAccumulatesDetectionsAndTracks(t *testing.T) {
	r := NewRecorder()
	voxels := []geom.Voxel{geom.NewVoxel(geom.Vec(1, 1, 1), 0.1)}
	id := uuid.New()
	r.RecordFrame(0, voxels, []track.Track{confirmedTrack(id, 0, geom.Vec(0, 0, 0))})

	assert.Len(t, r.Detections(), 1)
	assert.Len(t, r.Tracks(), 1)
}

func TestRecorderComputesSpeedBetweenFrames(t *testing.T) {
	r := NewRecorder()
	id := uuid.New()

	r.RecordFrame(0, nil, []track.Track{confirmedTrack(id, 0, geom.Vec(0, 0, 0))})
	r.RecordFrame(2, nil, []track.Track{confirmedTrack(id, 2, geom.Vec(4, 0, 0))})

	history := r.SpeedHistory(id.String())
	require.Len(t, history, 2)
	assert.Equal(t, 0.0, history[0].Speed)
	assert.InDelta(t, 2.0, history[1].Speed, 1e-9)
}

func TestRecorderIgnoresUnconfirmedTracks(t *testing.T) {
	r := NewRecorder()
	id := uuid.New()
	tr := confirmedTrack(id, 0, geom.Vec(0, 0, 0))
	tr.Confirmed = false
	r.RecordFrame(0, nil, []track.Track{tr})

	assert.Empty(t, r.SpeedHistory(id.String()))
	assert.Empty(t, r.TrackIDs())
}

func TestRenderOccupancyHeatMapProducesHTML(t *testing.T) {
	voxels := []geom.Voxel{
		geom.NewVoxel(geom.Vec(0.2, 0.2, 0), 0.05),
		geom.NewVoxel(geom.Vec(0.2, 0.2, 0), 0.05),
		geom.NewVoxel(geom.Vec(3, 3, 0), 0.05),
	}
	var buf bytes.Buffer
	require.NoError(t, renderOccupancyHeatMap(&buf, voxels))
	assert.Contains(t, buf.String(), "<html")
}

func TestRenderOccupancyHeatMapHandlesEmptyInput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderOccupancyHeatMap(&buf, nil))
	assert.Contains(t, buf.String(), "<html")
}

func TestRenderSpeedHistoryProducesPNG(t *testing.T) {
	samples := []Sample{
		{FrameIndex: 0, Speed: 0},
		{FrameIndex: 1, Speed: 1.5},
		{FrameIndex: 2, Speed: 2.0},
	}
	var buf bytes.Buffer
	require.NoError(t, renderSpeedHistory(&buf, "track-1", samples))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}
