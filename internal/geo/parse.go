package geo

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb/geojson"
)

var ErrNotFeatureCollection = errors.New("geo: document is not a FeatureCollection")

// ParseFeatureCollection：解析 GeoJSON FeatureCollection 文本
// 约束：顶层 type 必须为 FeatureCollection；null 几何的要素保留，几何为 nil
func ParseFeatureCollection(data []byte) (*geojson.FeatureCollection, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	if head.Type != "FeatureCollection" {
		return nil, fmt.Errorf("%w: type=%q", ErrNotFeatureCollection, head.Type)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	return fc, nil
}

// Collection：解析后的要素集合，附带每个要素 properties 的原始 JSON 文本
// 约束：Raw 与 Features 下标一一对应；properties 缺失时对应项为 nil
type Collection struct {
	*geojson.FeatureCollection
	Raw []json.RawMessage
}

// RawProperties：第 i 个要素的原始 properties 文本，不可用时为 nil
func (c *Collection) RawProperties(i int) json.RawMessage {
	if c == nil || i < 0 || i >= len(c.Raw) {
		return nil
	}
	return c.Raw[i]
}

// ParseCollection：同 ParseFeatureCollection，另保留 properties 原文（键顺序、数字写法）
func ParseCollection(data []byte) (*Collection, error) {
	fc, err := ParseFeatureCollection(data)
	if err != nil {
		return nil, err
	}
	var raw struct {
		Features []struct {
			Properties json.RawMessage `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	c := &Collection{FeatureCollection: fc}
	if len(raw.Features) == len(fc.Features) {
		c.Raw = make([]json.RawMessage, len(raw.Features))
		for i, f := range raw.Features {
			c.Raw[i] = f.Properties
		}
	}
	return c, nil
}
