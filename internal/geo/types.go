// 包 geo：几何基础能力（包围盒、测地缓冲区、相交判定、GeoJSON 解析）
// 约束：坐标统一为 WGS84 经纬度，orb.Point 顺序为 [lon, lat]
package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var (
	ErrNoGeometry          = errors.New("geo: feature has no geometry")
	ErrUnsupportedGeometry = errors.New("geo: unsupported geometry type")
	ErrInvalidGeometry     = errors.New("geo: invalid geometry")
)

// LatLng：前端交互使用的坐标表示
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point：转换为 orb 点（经度在前）
func (ll LatLng) Point() orb.Point { return orb.Point{ll.Lng, ll.Lat} }

// FromPoint：orb 点转换为 LatLng
func FromPoint(p orb.Point) LatLng { return LatLng{Lat: p.Lat(), Lng: p.Lon()} }

// Valid：经纬度有限且纬度在 [-90, 90]
// 约束：经度不限范围，地图平移跨越日期变更线后由 Normalize 折回
func (ll LatLng) Valid() bool {
	return finite(ll.Lat) && finite(ll.Lng) && ll.Lat >= -90 && ll.Lat <= 90
}

// Normalize：经度折回 [-180, 180]；纬度不变
func (ll LatLng) Normalize() LatLng {
	ll.Lng = WrapLng(ll.Lng)
	return ll
}

// WrapLng：经度折回 [-180, 180]
// 约束：区间内的值（含 ±180）原样返回；区间外按 360 取模落在 [-180, 180)
func WrapLng(lng float64) float64 {
	if lng >= -180 && lng <= 180 || !finite(lng) {
		return lng
	}
	l := math.Mod(lng+180, 360)
	if l < 0 {
		l += 360
	}
	return l - 180
}

// WrapBound：把经度超出 [-180, 180] 的范围整体平移回主世界
// 约束：宽度不小于 360 时返回全经度范围；平移后仍跨越 180 时西界大于东界（OGC bbox 跨日期变更线写法）
func WrapBound(b orb.Bound) orb.Bound {
	if b.Min[0] >= -180 && b.Max[0] <= 180 {
		return b
	}
	if b.Max[0]-b.Min[0] >= 360 {
		b.Min[0], b.Max[0] = -180, 180
		return b
	}
	w := WrapLng(b.Min[0])
	e := b.Max[0] + (w - b.Min[0])
	if e > 180 {
		e -= 360
	}
	b.Min[0], b.Max[0] = w, e
	return b
}

// Bounds：视口西/南/东/北范围，对外 JSON 表示
type Bounds struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

func (b Bounds) Orb() orb.Bound {
	return orb.Bound{Min: orb.Point{b.West, b.South}, Max: orb.Point{b.East, b.North}}
}

func FromBound(b orb.Bound) Bounds {
	return Bounds{West: b.Min.Lon(), South: b.Min.Lat(), East: b.Max.Lon(), North: b.Max.Lat()}
}

// BBoxParam：序列化为 "west,south,east,north"，用于远端查询参数
func BBoxParam(b orb.Bound) string {
	parts := []float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()}
	out := make([]string, len(parts))
	for i, v := range parts {
		out[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(out, ",")
}

// ValidBound：范围有限且最小角不大于最大角
func ValidBound(b orb.Bound) bool {
	for _, v := range []float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]} {
		if !finite(v) {
			return false
		}
	}
	return b.Min[0] <= b.Max[0] && b.Min[1] <= b.Max[1]
}

// CollectionBound：合并集合内全部要素几何的包围盒
// 返回：ok=false 表示集合内没有任何可用几何
func CollectionBound(features []*geojson.Feature) (orb.Bound, bool) {
	var out orb.Bound
	ok := false
	for _, f := range features {
		if f == nil || f.Geometry == nil {
			continue
		}
		b := f.Geometry.Bound()
		if !ValidBound(b) {
			continue
		}
		if !ok {
			out = b
			ok = true
			continue
		}
		out = out.Union(b)
	}
	return out, ok
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
