package geo

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Intersects：判定几何 g 与多边形 area 是否相交（含接触与包含）
// 返回：无法判定时返回错误（无几何/不支持的类型/结构非法），调用方自行决定按未命中处理
// 约束：平面判定，适用于小范围缓冲区；area 的第一环为外环，其余为洞
func Intersects(g orb.Geometry, area orb.Polygon) (bool, error) {
	if g == nil {
		return false, ErrNoGeometry
	}
	if len(area) == 0 || len(area[0]) < 4 {
		return false, fmt.Errorf("%w: empty area", ErrInvalidGeometry)
	}
	switch v := g.(type) {
	case orb.Point:
		return planar.PolygonContains(area, v), nil
	case orb.MultiPoint:
		if len(v) == 0 {
			return false, fmt.Errorf("%w: empty multipoint", ErrInvalidGeometry)
		}
		for _, p := range v {
			if planar.PolygonContains(area, p) {
				return true, nil
			}
		}
		return false, nil
	case orb.LineString:
		return lineIntersects(v, area)
	case orb.MultiLineString:
		if len(v) == 0 {
			return false, fmt.Errorf("%w: empty multilinestring", ErrInvalidGeometry)
		}
		for _, ls := range v {
			ok, err := lineIntersects(ls, area)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	case orb.Ring:
		return polygonIntersects(orb.Polygon{v}, area)
	case orb.Polygon:
		return polygonIntersects(v, area)
	case orb.MultiPolygon:
		if len(v) == 0 {
			return false, fmt.Errorf("%w: empty multipolygon", ErrInvalidGeometry)
		}
		for _, p := range v {
			ok, err := polygonIntersects(p, area)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	case orb.Bound:
		if !ValidBound(v) {
			return false, fmt.Errorf("%w: bound", ErrInvalidGeometry)
		}
		return polygonIntersects(v.ToPolygon(), area)
	case orb.Collection:
		var firstErr error
		for _, member := range v {
			ok, err := Intersects(member, area)
			if ok {
				return true, nil
			}
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return false, firstErr
	}
	return false, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, g.GeoJSONType())
}

func lineIntersects(ls orb.LineString, area orb.Polygon) (bool, error) {
	if len(ls) == 0 {
		return false, fmt.Errorf("%w: empty linestring", ErrInvalidGeometry)
	}
	if !overlaps(ls.Bound(), area.Bound()) {
		return false, nil
	}
	for _, p := range ls {
		if planar.PolygonContains(area, p) {
			return true, nil
		}
	}
	return edgesCross(ls, area), nil
}

func polygonIntersects(p orb.Polygon, area orb.Polygon) (bool, error) {
	if len(p) == 0 || len(p[0]) < 3 {
		return false, fmt.Errorf("%w: polygon without outer ring", ErrInvalidGeometry)
	}
	if !overlaps(p.Bound(), area.Bound()) {
		return false, nil
	}
	// area 顶点落在多边形内（area 被包含）
	for _, v := range area[0] {
		if planar.PolygonContains(p, v) {
			return true, nil
		}
	}
	// 多边形顶点落在 area 内（多边形被包含）
	for _, v := range p[0] {
		if planar.PolygonContains(area, v) {
			return true, nil
		}
	}
	for _, r := range p {
		if edgesCross(orb.LineString(r), area) {
			return true, nil
		}
	}
	return false, nil
}

// edgesCross：折线任一线段与 area 任一环的边相交
func edgesCross(ls orb.LineString, area orb.Polygon) bool {
	for i := 0; i+1 < len(ls); i++ {
		a, b := ls[i], ls[i+1]
		for _, r := range area {
			for j := 0; j+1 < len(r); j++ {
				if segmentsIntersect(a, b, r[j], r[j+1]) {
					return true
				}
			}
		}
	}
	return false
}

// segmentsIntersect：线段 p1p2 与 q1q2 是否相交（含端点与共线重叠）
func segmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	d1 := orientation(q1, q2, p1)
	d2 := orientation(q1, q2, p2)
	d3 := orientation(p1, p2, q1)
	d4 := orientation(p1, p2, q2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(q1, q2, p1)) ||
		(d2 == 0 && onSegment(q1, q2, p2)) ||
		(d3 == 0 && onSegment(p1, p2, q1)) ||
		(d4 == 0 && onSegment(p1, p2, q2))
}

func orientation(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func onSegment(a, b, p orb.Point) bool {
	return p[0] >= min(a[0], b[0]) && p[0] <= max(a[0], b[0]) &&
		p[1] >= min(a[1], b[1]) && p[1] <= max(a[1], b[1])
}

// overlaps：包围盒快速排斥
func overlaps(a, b orb.Bound) bool {
	return a.Min[0] <= b.Max[0] && a.Max[0] >= b.Min[0] && a.Min[1] <= b.Max[1] && a.Max[1] >= b.Min[1]
}
