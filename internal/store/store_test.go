package store

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/windtunnel/internal/aero"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun() (*RunMetadata, []aero.Sample) {
	meta := &RunMetadata{
		Preset:     "cylinder",
		Width:      200,
		Height:     80,
		Tau:        0.6,
		InletSpeed: 0.08,
		RefLength:  16,
		Ticks:      3,
		Metrics:    map[string]float64{"mean_drag": 0.25},
	}
	samples := []aero.Sample{{Drag: 0.1, Lift: 0.01}, {Drag: 0.2, Lift: -0.02}, {Drag: 0.3, Lift: 0.005}}
	return meta, samples
}

func TestSaveAndLoad(t *testing.T) {
	s := openStore(t)
	meta, samples := sampleRun()

	id, err := s.Save(meta, samples)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, id, meta.ID)

	loaded, err := s.Load(id)
	require.NoError(t, err)
	assert.Equal(t, "cylinder", loaded.Preset)
	assert.Equal(t, 200, loaded.Width)
	assert.Equal(t, 80, loaded.Height)
	assert.InDelta(t, 0.6, loaded.Tau, 1e-12)
	assert.InDelta(t, 0.08, loaded.InletSpeed, 1e-12)
	assert.Equal(t, 16.0, loaded.RefLength)
	assert.False(t, loaded.Diverged)
	assert.True(t, meta.Timestamp.Equal(loaded.Timestamp))
	assert.Equal(t, map[string]float64{"mean_drag": 0.25}, loaded.Metrics)

	got, err := s.LoadSamples(id)
	require.NoError(t, err)
	assert.Equal(t, samples, got)
}

func TestListNewestFirst(t *testing.T) {
	s := openStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, preset := range []string{"a", "b", "c"} {
		meta := &RunMetadata{Preset: preset, Timestamp: base.Add(time.Duration(i) * time.Minute)}
		_, err := s.Save(meta, nil)
		require.NoError(t, err)
	}

	runs, err := s.List()
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "c", runs[0].Preset)
	assert.Equal(t, "a", runs[2].Preset)
}

func TestEmptyStore(t *testing.T) {
	s := openStore(t)
	runs, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRunNotFound(t *testing.T) {
	s := openStore(t)

	_, err := s.Load("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = s.LoadSamples("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	assert.ErrorIs(t, s.Delete("missing"), ErrRunNotFound)
}

func TestDeleteCascades(t *testing.T) {
	s := openStore(t)
	meta, samples := sampleRun()
	id, err := s.Save(meta, samples)
	require.NoError(t, err)

	require.NoError(t, s.Delete(id))
	_, err = s.Load(id)
	assert.ErrorIs(t, err, ErrRunNotFound)

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM samples WHERE run_id = ?`, id).Scan(&n))
	assert.Zero(t, n)
}

func TestReopenKeepsRuns(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	meta, samples := sampleRun()
	id, err := s.Save(meta, samples)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.LoadSamples(id)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestExportCSV(t *testing.T) {
	_, samples := sampleRun()
	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, samples))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"tick", "drag", "lift"}, records[0])
	assert.Equal(t, []string{"2", "0.2", "-0.02"}, records[2])
}

func TestExportJSON(t *testing.T) {
	meta, samples := sampleRun()
	meta.ID = "run-1"
	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, meta, samples))

	var out struct {
		Run struct {
			ID     string `json:"id"`
			Preset string `json:"preset"`
		} `json:"run"`
		Steps   int           `json:"steps"`
		Samples []aero.Sample `json:"samples"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "run-1", out.Run.ID)
	assert.Equal(t, "cylinder", out.Run.Preset)
	assert.Equal(t, 3, out.Steps)
	assert.Equal(t, samples, out.Samples)
}
