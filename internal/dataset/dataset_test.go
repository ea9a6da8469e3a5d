package dataset

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webkart/internal/geo"
)

const parkA = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"navn":"Park A","type":"Demo"},
  "geometry":{"type":"Polygon","coordinates":[[[10.74,59.91],[10.76,59.91],[10.76,59.92],[10.74,59.92],[10.74,59.91]]]}},
 {"type":"Feature","properties":{"navn":"Stasjon"},
  "geometry":{"type":"Point","coordinates":[10.80,59.95]}}
]}`

func TestNewSource(t *testing.T) {
	assert.IsType(t, &HTTPSource{}, NewSource("https://example.org/a.geojson", nil))
	assert.IsType(t, &HTTPSource{}, NewSource("HTTP://example.org/a.geojson", nil))
	assert.Equal(t, FileSource("data/dataset.geojson"), NewSource("data/dataset.geojson", nil))
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "dataset.geojson")
	require.NoError(t, os.WriteFile(p, []byte(parkA), 0o644))

	d, err := Load(context.Background(), FileSource(p))
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, p, d.Source())
	assert.Equal(t, "Park A", d.Features()[0].Properties["navn"])

	b, ok := d.Bound()
	require.True(t, ok)
	assert.Equal(t, orb.Bound{Min: orb.Point{10.74, 59.91}, Max: orb.Point{10.80, 59.95}}, b)
}

func TestFeaturesIsCopy(t *testing.T) {
	fc, err := geo.ParseFeatureCollection([]byte(parkA))
	require.NoError(t, err)
	d := New(fc, "mem")
	fs := d.Features()
	fs[0] = nil
	assert.NotNil(t, d.Features()[0])
	fc.Features = nil
	assert.Equal(t, 2, d.Len())
}

func TestLoadFileMissing(t *testing.T) {
	_, err := Load(context.Background(), FileSource(filepath.Join(t.TempDir(), "nope.geojson")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "application/geo+json")
			_, _ = w.Write([]byte(parkA))
		case "/bad":
			_, _ = w.Write([]byte(`{"type":"Feature"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	d, err := Load(context.Background(), NewSource(srv.URL+"/ok", srv.Client()))
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())

	_, err = Load(context.Background(), NewSource(srv.URL+"/missing", srv.Client()))
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)

	_, err = Load(context.Background(), NewSource(srv.URL+"/bad", srv.Client()))
	assert.ErrorIs(t, err, geo.ErrNotFeatureCollection)
}

func TestLoadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, FileSource("whatever"))
	assert.ErrorIs(t, err, context.Canceled)
}
