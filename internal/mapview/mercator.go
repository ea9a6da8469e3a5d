package mapview

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

const (
	tileSize     = 256
	earthRadiusM = 6378137.0
	maxLatitude  = 85.0511287798
)

// metersPerPixel：给定缩放级别下 Web Mercator 每像素对应的投影米数
func metersPerPixel(zoom float64) float64 {
	return 2 * math.Pi * earthRadiusM / (tileSize * math.Exp2(zoom))
}

func toMercator(p orb.Point) orb.Point {
	lat := math.Max(-maxLatitude, math.Min(maxLatitude, p.Lat()))
	return project.WGS84.ToMercator(orb.Point{p.Lon(), lat})
}

func toWGS84(p orb.Point) orb.Point {
	return project.Mercator.ToWGS84(p)
}

// boundsAt：以 center 为中心、像素尺寸 w×h、缩放 zoom 的可视范围
func boundsAt(center orb.Point, zoom float64, w, h int) orb.Bound {
	c := toMercator(center)
	mpp := metersPerPixel(zoom)
	dx := float64(w) / 2 * mpp
	dy := float64(h) / 2 * mpp
	sw := toWGS84(orb.Point{c[0] - dx, c[1] - dy})
	ne := toWGS84(orb.Point{c[0] + dx, c[1] + dy})
	return orb.Bound{Min: sw, Max: ne}
}

// fitZoom：在 [0, maxZoom] 内选出能完整容纳 b 的最大整数缩放级别
func fitZoom(b orb.Bound, w, h int, padding [2]int, maxZoom int) int {
	sw := toMercator(b.Min)
	ne := toMercator(b.Max)
	bw := ne[0] - sw[0]
	bh := ne[1] - sw[1]
	availW := float64(w - 2*padding[0])
	availH := float64(h - 2*padding[1])
	if availW <= 0 || availH <= 0 {
		return 0
	}
	if bw <= 0 && bh <= 0 {
		return maxZoom
	}

	scale := math.Inf(1)
	if bw > 0 {
		scale = math.Min(scale, availW/bw)
	}
	if bh > 0 {
		scale = math.Min(scale, availH/bh)
	}
	z := int(math.Floor(math.Log2(scale * 2 * math.Pi * earthRadiusM / tileSize)))
	if z > maxZoom {
		z = maxZoom
	}
	if z < 0 {
		z = 0
	}
	return z
}

// centerOf：投影平面上的中点换算回经纬度
func centerOf(b orb.Bound) orb.Point {
	sw := toMercator(b.Min)
	ne := toMercator(b.Max)
	return toWGS84(orb.Point{(sw[0] + ne[0]) / 2, (sw[1] + ne[1]) / 2})
}
