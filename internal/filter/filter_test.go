package filter

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webkart/internal/dataset"
	"webkart/internal/geo"
	"webkart/internal/render"
)

func parkDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	park := geojson.NewFeature(orb.Polygon{{{10.74, 59.91}, {10.76, 59.91}, {10.76, 59.92}, {10.74, 59.92}, {10.74, 59.91}}})
	park.Properties = geojson.Properties{"navn": "Park A", "type": "Demo"}
	station := geojson.NewFeature(orb.Point{10.80, 59.95})
	station.Properties = geojson.Properties{"navn": "Stasjon"}
	empty := &geojson.Feature{Type: "Feature", Properties: geojson.Properties{"navn": "Tom"}}

	fc := geojson.NewFeatureCollection()
	fc.Append(park)
	fc.Append(empty)
	fc.Append(station)
	return dataset.New(fc, "test")
}

func TestRunInside(t *testing.T) {
	res, err := Run(parkDataset(t), orb.Point{10.75, 59.915})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count())
	assert.Equal(t, []int{0}, res.Indices)
	assert.Equal(t, "Treff innen 500m: <b>1</b>", res.PopupHTML())
	assert.Equal(t, "Treff innen 500m: 1", res.PopupText())

	require.Len(t, res.Failures, 1)
	assert.Equal(t, 1, res.Failures[0].Index)
	assert.ErrorIs(t, res.Failures[0], geo.ErrNoGeometry)
}

func TestRunFarAway(t *testing.T) {
	// ~10 km vest for parken
	res, err := Run(parkDataset(t), orb.Point{10.56, 59.915})
	require.NoError(t, err)
	assert.Zero(t, res.Count())
	assert.Equal(t, "Treff innen 500m: 0", res.PopupText())
}

func TestRunBufferEdge(t *testing.T) {
	ds := parkDataset(t)
	// 1° lengdegrad ≈ 55.8 km ved 59.915°N
	near, err := Run(ds, orb.Point{10.76 + 300.0/55800, 59.915})
	require.NoError(t, err)
	assert.Equal(t, 1, near.Count())

	far, err := Run(ds, orb.Point{10.76 + 700.0/55800, 59.915})
	require.NoError(t, err)
	assert.Zero(t, far.Count())
}

func TestRunWithoutDataset(t *testing.T) {
	_, err := Run(nil, orb.Point{10.75, 59.915})
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestResultLayers(t *testing.T) {
	res, err := Run(parkDataset(t), orb.Point{10.75, 59.915})
	require.NoError(t, err)

	ls := res.Layers()
	require.Len(t, ls, 2)
	require.Len(t, ls[0].Entries, 1)
	assert.Equal(t, render.BufferStyle, ls[0].Entries[0].Style)
	assert.Empty(t, ls[0].Entries[0].Popup)
	assert.IsType(t, orb.Polygon{}, ls[0].Entries[0].Feature.Geometry)

	require.Len(t, ls[1].Entries, 1)
	assert.Equal(t, render.MatchStyle, ls[1].Entries[0].Style)
	assert.Equal(t, "<b>Park A</b><br/>Type: Demo", ls[1].Entries[0].Popup)
}
