package mapview

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webkart/internal/geo"
)

var oslo = geo.LatLng{Lat: 59.9139, Lng: 10.7522}

func newWidget() *Widget {
	return New(Options{Center: oslo, Zoom: 12, MaxZoom: 19})
}

func TestViewportBoundsComputed(t *testing.T) {
	w := newWidget()
	b := w.ViewportBounds()
	// 经度在 Web Mercator 中线性：1024px / (256 * 2^12) * 360°
	assert.InDelta(t, 0.3515625, b.Max.Lon()-b.Min.Lon(), 1e-9)
	assert.InDelta(t, oslo.Lng, (b.Min.Lon()+b.Max.Lon())/2, 1e-9)
	assert.True(t, b.Contains(oslo.Point()))
	assert.Less(t, b.Max.Lat()-b.Min.Lat(), b.Max.Lon()-b.Min.Lon())
}

func TestViewportBoundsReported(t *testing.T) {
	w := newWidget()
	reported := geo.Bounds{West: 10.5, South: 59.85, East: 11, North: 60}
	require.NoError(t, w.Move(context.Background(), View{Center: oslo, Zoom: 11, Bounds: &reported}))
	assert.Equal(t, reported.Orb(), w.ViewportBounds())
	assert.Equal(t, DefaultWidth, w.View().Width)
}

func TestMoveRejectsInvalid(t *testing.T) {
	w := newWidget()
	fired := 0
	w.On(EventMoveEnd, func(context.Context, Event) { fired++ })

	err := w.Move(context.Background(), View{Center: geo.LatLng{Lat: 120, Lng: 0}, Zoom: 3})
	assert.ErrorIs(t, err, ErrInvalidView)
	bad := geo.Bounds{West: 11, South: 59, East: 10, North: 60}
	err = w.Move(context.Background(), View{Center: oslo, Zoom: 3, Bounds: &bad})
	assert.ErrorIs(t, err, ErrInvalidView)
	assert.Zero(t, fired)
	assert.Equal(t, float64(12), w.View().Zoom)
}

func TestFitToBounds(t *testing.T) {
	w := newWidget()
	var events []EventType
	w.On(EventMoveEnd, func(_ context.Context, e Event) { events = append(events, e.Type) })

	target := orb.Bound{Min: orb.Point{10.74, 59.91}, Max: orb.Point{10.76, 59.92}}
	require.NoError(t, w.FitToBounds(context.Background(), target, [2]int{20, 20}))
	assert.Equal(t, []EventType{EventMoveEnd}, events)

	v := w.View()
	assert.Equal(t, float64(15), v.Zoom)
	assert.InDelta(t, 10.75, v.Center.Lng, 1e-9)
	assert.InDelta(t, 59.915, v.Center.Lat, 1e-3)
	assert.Nil(t, v.Bounds)

	inner := boundsAt(v.Center.Point(), v.Zoom, v.Width-40, v.Height-40)
	assert.True(t, inner.Contains(target.Min) && inner.Contains(target.Max))
	tighter := boundsAt(v.Center.Point(), v.Zoom+1, v.Width-40, v.Height-40)
	assert.False(t, tighter.Contains(target.Min) && tighter.Contains(target.Max))
}

func TestFitToBoundsSinglePointUsesMaxZoom(t *testing.T) {
	w := newWidget()
	p := orb.Point{10.75, 59.91}
	require.NoError(t, w.FitToBounds(context.Background(), p.Bound(), [2]int{20, 20}))
	assert.Equal(t, float64(19), w.View().Zoom)
}

func TestFitToBoundsEmpty(t *testing.T) {
	w := newWidget()
	fired := false
	w.On(EventMoveEnd, func(context.Context, Event) { fired = true })

	assert.ErrorIs(t, w.FitToBounds(context.Background(), orb.Bound{}, [2]int{20, 20}), ErrEmptyBounds)
	inverted := orb.Bound{Min: orb.Point{11, 60}, Max: orb.Point{10, 59}}
	assert.ErrorIs(t, w.FitToBounds(context.Background(), inverted, [2]int{20, 20}), ErrEmptyBounds)
	assert.False(t, fired)
	assert.Equal(t, oslo, w.View().Center)
}

func TestEmitOrder(t *testing.T) {
	w := newWidget()
	var got []string
	w.On(EventClick, func(_ context.Context, e Event) { got = append(got, "a") })
	w.On(EventClick, func(_ context.Context, e Event) {
		got = append(got, "b")
		assert.Equal(t, oslo, e.LatLng)
	})
	w.On(EventMoveEnd, func(context.Context, Event) { got = append(got, "move") })

	require.NoError(t, w.Click(context.Background(), oslo))
	assert.Equal(t, []string{"a", "b"}, got)
	assert.ErrorIs(t, w.Click(context.Background(), geo.LatLng{Lat: 91}), ErrInvalidView)
}

func TestWrappedLongitudeAccepted(t *testing.T) {
	w := newWidget()
	var clicked geo.LatLng
	w.On(EventClick, func(_ context.Context, e Event) { clicked = e.LatLng })

	require.NoError(t, w.Click(context.Background(), geo.LatLng{Lat: 59.915, Lng: 370.75}))
	assert.InDelta(t, 10.75, clicked.Lng, 1e-9)
	assert.Equal(t, 59.915, clicked.Lat)

	reported := geo.Bounds{West: -349.5, South: 59.85, East: -349, North: 60}
	require.NoError(t, w.Move(context.Background(), View{Center: geo.LatLng{Lat: 59.9, Lng: -349.25}, Zoom: 11, Bounds: &reported}))
	assert.InDelta(t, 10.75, w.View().Center.Lng, 1e-9)
	b := w.ViewportBounds()
	assert.InDelta(t, 10.5, b.Min.Lon(), 1e-9)
	assert.InDelta(t, 11, b.Max.Lon(), 1e-9)
}
