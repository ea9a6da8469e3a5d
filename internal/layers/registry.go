package layers

import (
	"errors"
	"sync"
)

const (
	Basemap = "basemap"
	Local   = "local"
	Remote  = "remote"
	Filter  = "filter"
)

var ErrUnknownLayer = errors.New("layers: unknown layer")

// TileSource：XYZ 底图瓦片来源
type TileSource struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
	MaxZoom     int    `json:"max_zoom"`
}

// ControlEntry：图层控件中的一项
type ControlEntry struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Kind    string `json:"kind"` // base | overlay
	Visible bool   `json:"visible"`
}

// Registry：底图 + 三个叠加图层组（本地、远端、筛选结果）
type Registry struct {
	Tiles  TileSource
	Local  *Group
	Remote *Group
	Filter *Group

	mu             sync.RWMutex
	basemapVisible bool
}

func NewRegistry(tiles TileSource) *Registry {
	if tiles.Title == "" {
		tiles.Title = "OpenStreetMap"
	}
	return &Registry{
		Tiles:          tiles,
		Local:          NewGroup(Local, "Lokal GeoJSON"),
		Remote:         NewGroup(Remote, "OGC API"),
		Filter:         NewGroup(Filter, "Romlig filter"),
		basemapVisible: true,
	}
}

// Group：按名称获取叠加图层组
func (r *Registry) Group(name string) (*Group, bool) {
	switch name {
	case Local:
		return r.Local, true
	case Remote:
		return r.Remote, true
	case Filter:
		return r.Filter, true
	}
	return nil, false
}

// SetVisible：图层控件开关，底图与三个叠加组相互独立
func (r *Registry) SetVisible(name string, v bool) error {
	if name == Basemap {
		r.mu.Lock()
		r.basemapVisible = v
		r.mu.Unlock()
		return nil
	}
	g, ok := r.Group(name)
	if !ok {
		return ErrUnknownLayer
	}
	g.SetVisible(v)
	return nil
}

// Control：图层控件当前状态，底图在前
func (r *Registry) Control() []ControlEntry {
	r.mu.RLock()
	bv := r.basemapVisible
	r.mu.RUnlock()
	out := []ControlEntry{{Name: Basemap, Title: r.Tiles.Title, Kind: "base", Visible: bv}}
	for _, g := range []*Group{r.Local, r.Remote, r.Filter} {
		out = append(out, ControlEntry{Name: g.Name(), Title: g.Title(), Kind: "overlay", Visible: g.Visible()})
	}
	return out
}

// State：注册表快照
type State struct {
	Tiles   TileSource            `json:"basemap"`
	Control []ControlEntry        `json:"control"`
	Groups  map[string]GroupState `json:"groups"`
}

func (r *Registry) State() State {
	return State{
		Tiles:   r.Tiles,
		Control: r.Control(),
		Groups: map[string]GroupState{
			Local:  r.Local.State(),
			Remote: r.Remote.State(),
			Filter: r.Filter.State(),
		},
	}
}
