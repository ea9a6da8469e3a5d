// 包 geoip：按客户端 IP 推断新会话的初始地图中心
// 约束：仅使用 City 库中的经纬度；私网地址、未命中或精度过低时返回 ok=false，由调用方使用默认中心
package geoip

import (
	"net"

	"github.com/oschwald/geoip2-golang"

	"webkart/internal/geo"
)

// MaxAccuracyKm：超过该精度半径的定位结果视为不可用
const MaxAccuracyKm = 200

type Locator struct {
	db *geoip2.Reader
}

// Open：path 为空时返回 (nil, nil)，nil Locator 的 Locate 恒返回 ok=false
func Open(path string) (*Locator, error) {
	if path == "" {
		return nil, nil
	}
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &Locator{db: db}, nil
}

func (l *Locator) Locate(ip string) (geo.LatLng, bool) {
	if l == nil || l.db == nil {
		return geo.LatLng{}, false
	}
	addr := net.ParseIP(ip)
	if addr == nil || addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() {
		return geo.LatLng{}, false
	}
	rec, err := l.db.City(addr)
	if err != nil {
		return geo.LatLng{}, false
	}
	loc := rec.Location
	if loc.AccuracyRadius > MaxAccuracyKm || (loc.Latitude == 0 && loc.Longitude == 0) {
		return geo.LatLng{}, false
	}
	ll := geo.LatLng{Lat: loc.Latitude, Lng: loc.Longitude}
	return ll, ll.Valid()
}

func (l *Locator) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}
