package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// DefaultBufferSteps：圆形缓冲区的边数
const DefaultBufferSteps = 64

// Buffer：以 center 为圆心、radiusM 米为半径的测地圆多边形
// 约束：顶点由球面上的方位角+距离推算，外环逆时针并闭合；steps<3 时使用默认值
func Buffer(center orb.Point, radiusM float64, steps int) orb.Polygon {
	if steps < 3 {
		steps = DefaultBufferSteps
	}
	ring := make(orb.Ring, 0, steps+1)
	for i := 0; i < steps; i++ {
		bearing := 360.0 - float64(i)*360.0/float64(steps)
		ring = append(ring, geo.PointAtBearingAndDistance(center, bearing, radiusM))
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}
