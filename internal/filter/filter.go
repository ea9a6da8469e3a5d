// 包 filter：点击位置 500m 缓冲区内的要素筛选
// 约束：同步执行，不缓存历史缓冲区；数据集由调用方显式传入
package filter

import (
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"webkart/internal/dataset"
	"webkart/internal/geo"
	"webkart/internal/layers"
	"webkart/internal/metrics"
	"webkart/internal/render"
)

const RadiusMeters = 500

var ErrNoDataset = errors.New("filter: local dataset not loaded")

// Failure：单个要素无法判定相交，按未命中处理
type Failure struct {
	Index int
	Err   error
}

func (f Failure) Error() string { return fmt.Sprintf("feature %d: %v", f.Index, f.Err) }
func (f Failure) Unwrap() error { return f.Err }

type Result struct {
	Center   orb.Point
	Buffer   orb.Polygon
	Matches  []*geojson.Feature
	Indices  []int
	Failures []Failure
}

// Run：以 at 为圆心构建测地缓冲区，逐个判定数据集要素是否相交
func Run(ds *dataset.Dataset, at orb.Point) (Result, error) {
	if ds == nil {
		return Result{}, ErrNoDataset
	}
	t0 := time.Now()
	res := Result{Center: at, Buffer: geo.Buffer(at, RadiusMeters, geo.DefaultBufferSteps)}
	for i, f := range ds.Features() {
		var g orb.Geometry
		if f != nil {
			g = f.Geometry
		}
		ok, err := geo.Intersects(g, res.Buffer)
		if err != nil {
			res.Failures = append(res.Failures, Failure{Index: i, Err: err})
			continue
		}
		if ok {
			res.Matches = append(res.Matches, f)
			res.Indices = append(res.Indices, i)
		}
	}
	metrics.FilterMatches.Observe(float64(len(res.Matches)))
	metrics.FilterGeometryFailuresTotal.Add(float64(len(res.Failures)))
	metrics.FilterDurationMs.Observe(float64(time.Since(t0).Microseconds()) / 1000)
	return res, nil
}

func (r Result) Count() int { return len(r.Matches) }

// PopupHTML：点击位置弹窗内容
func (r Result) PopupHTML() string {
	return fmt.Sprintf("Treff innen %dm: <b>%d</b>", RadiusMeters, r.Count())
}

func (r Result) PopupText() string {
	return fmt.Sprintf("Treff innen %dm: %d", RadiusMeters, r.Count())
}

// Layers：缓冲区轮廓在下、命中要素在上
func (r Result) Layers() []layers.Layer {
	buf := layers.Build("buffer", []*geojson.Feature{geojson.NewFeature(r.Buffer)}, layers.Options{
		Style: layers.FixedStyle(render.BufferStyle),
	})
	hits := layers.Build("matches", r.Matches, layers.Options{
		Style: layers.FixedStyle(render.MatchStyle),
		Popup: render.MatchPopup,
	})
	return []layers.Layer{buf, hits}
}
