// 包 layers：图层组与图层控件状态
// 约束：图层组按事件整体清空后重建，不做增量比对
package layers

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"webkart/internal/geo"
	"webkart/internal/render"
)

// Entry：单个要素的绘制描述
type Entry struct {
	Feature *geojson.Feature `json:"feature"`
	Style   render.Style     `json:"style"`
	Popup   string           `json:"popup,omitempty"`
}

// Layer：一次渲染得到的图层；PointRadius>0 时点要素绘制为圆点标记
type Layer struct {
	ID          string  `json:"id"`
	PointRadius int     `json:"point_radius,omitempty"`
	Entries     []Entry `json:"entries"`
}

// Options：由要素属性推导样式与弹窗；Popup 为空时不绑定弹窗
// PopupAt 非空时优先于 Popup，i 为要素在输入列表中的下标
type Options struct {
	Style       func(geojson.Properties) render.Style
	Popup       func(geojson.Properties) string
	PopupAt     func(i int, props geojson.Properties) string
	PointRadius int
}

// Build：将要素列表按选项渲染为图层，顺序与输入一致
func Build(id string, features []*geojson.Feature, opts Options) Layer {
	l := Layer{ID: id, PointRadius: opts.PointRadius, Entries: make([]Entry, 0, len(features))}
	for i, f := range features {
		if f == nil {
			continue
		}
		e := Entry{Feature: f}
		if opts.Style != nil {
			e.Style = opts.Style(f.Properties)
		}
		switch {
		case opts.PopupAt != nil:
			e.Popup = opts.PopupAt(i, f.Properties)
		case opts.Popup != nil:
			e.Popup = opts.Popup(f.Properties)
		}
		l.Entries = append(l.Entries, e)
	}
	return l
}

// FixedStyle：所有要素使用同一样式
func FixedStyle(s render.Style) func(geojson.Properties) render.Style {
	return func(geojson.Properties) render.Style { return s }
}

// Bound：图层内全部几何的包围盒；ok=false 表示没有几何
func (l Layer) Bound() (orb.Bound, bool) {
	fs := make([]*geojson.Feature, 0, len(l.Entries))
	for _, e := range l.Entries {
		fs = append(fs, e.Feature)
	}
	return geo.CollectionBound(fs)
}

// Group：具名、可切换显隐的图层集合
type Group struct {
	mu      sync.RWMutex
	name    string
	title   string
	visible bool
	layers  []Layer
	version uint64
}

func NewGroup(name, title string) *Group {
	return &Group{name: name, title: title, visible: true}
}

func (g *Group) Name() string  { return g.name }
func (g *Group) Title() string { return g.title }

// Clear：清空全部图层
func (g *Group) Clear() {
	g.mu.Lock()
	g.layers = nil
	g.version++
	g.mu.Unlock()
}

// Add：追加图层（绘制顺序即追加顺序）
func (g *Group) Add(l Layer) {
	g.mu.Lock()
	g.layers = append(g.layers, l)
	g.version++
	g.mu.Unlock()
}

// Replace：原子地清空并写入新图层集合
func (g *Group) Replace(ls ...Layer) {
	g.mu.Lock()
	g.layers = append([]Layer(nil), ls...)
	g.version++
	g.mu.Unlock()
}

// Layers：图层快照
func (g *Group) Layers() []Layer {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Layer(nil), g.layers...)
}

// FeatureCount：组内全部图层要素数之和
func (g *Group) FeatureCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for _, l := range g.layers {
		n += len(l.Entries)
	}
	return n
}

func (g *Group) Version() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.version
}

func (g *Group) Visible() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.visible
}

func (g *Group) SetVisible(v bool) {
	g.mu.Lock()
	g.visible = v
	g.mu.Unlock()
}

// GroupState：对外输出的图层组状态
type GroupState struct {
	Name    string  `json:"name"`
	Title   string  `json:"title"`
	Visible bool    `json:"visible"`
	Version uint64  `json:"version"`
	Layers  []Layer `json:"layers"`
}

func (g *Group) State() GroupState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ls := append([]Layer{}, g.layers...)
	return GroupState{Name: g.name, Title: g.title, Visible: g.visible, Version: g.version, Layers: ls}
}
