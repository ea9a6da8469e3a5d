// 包 dataset：本地 GeoJSON 数据集的加载与只读封装
// 约束：Dataset 构造后不可变；每个会话至多加载一次，随会话释放
package dataset

import (
	"context"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"webkart/internal/geo"
	"webkart/internal/metrics"
)

type Dataset struct {
	features []*geojson.Feature
	source   string
	loadedAt time.Time
}

// New：以已解析集合构造数据集（要素切片被复制，要素本身不得再被修改）
func New(fc *geojson.FeatureCollection, source string) *Dataset {
	d := &Dataset{source: source, loadedAt: time.Now()}
	if fc != nil {
		d.features = append([]*geojson.Feature(nil), fc.Features...)
	}
	return d
}

// Load：从来源读取并解析为 FeatureCollection
func Load(ctx context.Context, src Source) (*Dataset, error) {
	b, err := src.Fetch(ctx)
	if err != nil {
		metrics.LocalLoadsTotal.WithLabelValues("fetch_error").Inc()
		return nil, err
	}
	fc, err := geo.ParseFeatureCollection(b)
	if err != nil {
		metrics.LocalLoadsTotal.WithLabelValues("parse_error").Inc()
		return nil, err
	}
	metrics.LocalLoadsTotal.WithLabelValues("ok").Inc()
	return New(fc, src.String()), nil
}

// Features：要素列表副本，下标即要素在源集合中的身份
func (d *Dataset) Features() []*geojson.Feature {
	return append([]*geojson.Feature(nil), d.features...)
}

func (d *Dataset) Len() int            { return len(d.features) }
func (d *Dataset) Source() string      { return d.source }
func (d *Dataset) LoadedAt() time.Time { return d.loadedAt }

// Bound：全部几何的包围盒
func (d *Dataset) Bound() (orb.Bound, bool) {
	return geo.CollectionBound(d.features)
}
