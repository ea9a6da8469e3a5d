// 包 viewer：单个地图会话的协调者
// 背景：持有地图控件、图层注册表、本地数据集缓存与远端请求序号；控件事件驱动远端加载与空间筛选
// 约束：
// - 本地数据集每会话至多设置一次，之后只读；
// - 远端响应仅在其序号仍为最新时写入图层组，过期响应直接丢弃；
// - 本地数据集未就绪时的点击不产生弹窗，也不修改筛选图层组；
// - 弹窗只属于产生它的那次点击，之后任何 moveend 都会将其清除。
package viewer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"webkart/internal/dataset"
	"webkart/internal/filter"
	"webkart/internal/geo"
	"webkart/internal/layers"
	"webkart/internal/logger"
	"webkart/internal/mapview"
	"webkart/internal/metrics"
	"webkart/internal/render"
)

// FitPadding：本地数据加载后适配视口时四周留白（像素）
var FitPadding = [2]int{20, 20}

// RemoteSource：按视口范围查询要素的远端数据源
type RemoteSource interface {
	Configured() bool
	Fetch(ctx context.Context, b orb.Bound) (*geo.Collection, error)
}

type Deps struct {
	Local  dataset.Source
	Remote RemoteSource
	Tiles  layers.TileSource
	View   mapview.Options
	Log    *slog.Logger
}

// Popup：点击位置的弹窗；Seq 为会话内点击序号，客户端据此只打开一次
type Popup struct {
	Seq   uint64     `json:"seq"`
	At    geo.LatLng `json:"at"`
	HTML  string     `json:"html"`
	Text  string     `json:"text"`
	Count int        `json:"count"`
}

type Viewer struct {
	widget   *mapview.Widget
	registry *layers.Registry
	localSrc dataset.Source
	remote   RemoteSource
	log      *slog.Logger

	local atomic.Pointer[dataset.Dataset]

	// remoteMu 保证“递增序号 + 清空”与“校验序号 + 写入”互斥
	remoteMu sync.Mutex
	seq      uint64

	// filterMu 保证一次点击的“清空 + 筛选 + 写入 + 弹窗”整体有序
	filterMu sync.Mutex

	mu       sync.RWMutex
	popup    *Popup
	clicks   uint64
	localErr string
}

func New(d Deps) *Viewer {
	if d.Log == nil {
		d.Log = logger.L()
	}
	v := &Viewer{
		widget:   mapview.New(d.View),
		registry: layers.NewRegistry(d.Tiles),
		localSrc: d.Local,
		remote:   d.Remote,
		log:      d.Log,
	}
	v.widget.On(mapview.EventMoveEnd, func(ctx context.Context, _ mapview.Event) {
		v.clearPopup()
		_ = v.LoadRemote(ctx)
	})
	v.widget.On(mapview.EventClick, func(_ context.Context, e mapview.Event) {
		v.filter(e.LatLng)
	})
	return v
}

func (v *Viewer) Widget() *mapview.Widget    { return v.widget }
func (v *Viewer) Registry() *layers.Registry { return v.registry }

// Dataset：已缓存的本地数据集，未加载时为 nil
func (v *Viewer) Dataset() *dataset.Dataset { return v.local.Load() }

// Start：并发执行首次远端加载与本地加载，二者均结束后返回
func (v *Viewer) Start(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = v.LoadRemote(ctx)
	}()
	go func() {
		defer wg.Done()
		_ = v.LoadLocal(ctx)
	}()
	wg.Wait()
}

// LoadLocal：加载本地数据集并渲染到本地图层组，随后尽力适配视口
// 返回：读取或解析失败时返回错误（已记录日志），图层组保持为空
func (v *Viewer) LoadLocal(ctx context.Context) error {
	if v.local.Load() != nil || v.localSrc == nil {
		return nil
	}
	ds, err := dataset.Load(ctx, v.localSrc)
	if err != nil {
		v.log.Error("local_dataset_error", "source", v.localSrc.String(), "err", err)
		v.mu.Lock()
		v.localErr = err.Error()
		v.mu.Unlock()
		return err
	}
	if !v.local.CompareAndSwap(nil, ds) {
		return nil
	}
	v.mu.Lock()
	v.localErr = ""
	v.mu.Unlock()

	layer := layers.Build(layers.Local, ds.Features(), layers.Options{
		Style:       render.LocalStyle,
		Popup:       render.LocalPopup,
		PointRadius: render.LocalPointRadius,
	})
	v.registry.Local.Replace(layer)
	v.log.Debug("local_dataset_loaded", "source", ds.Source(), "features", ds.Len())

	b, _ := layer.Bound()
	if err := v.widget.FitToBounds(ctx, b, FitPadding); err != nil && !errors.Is(err, mapview.ErrEmptyBounds) {
		return err
	}
	return nil
}

// LoadRemote：按当前视口查询远端并重建远端图层组
// 返回：未配置端点时直接返回 nil 且不发请求；过期响应被丢弃并返回 nil
func (v *Viewer) LoadRemote(ctx context.Context) error {
	if v.remote == nil || !v.remote.Configured() {
		return nil
	}
	v.remoteMu.Lock()
	v.seq++
	token := v.seq
	v.registry.Remote.Clear()
	v.remoteMu.Unlock()

	b := v.widget.ViewportBounds()
	fc, err := v.remote.Fetch(ctx, b)

	v.remoteMu.Lock()
	defer v.remoteMu.Unlock()
	if token != v.seq {
		metrics.RemoteStaleTotal.Inc()
		v.log.Debug("remote_stale_discarded", "token", token, "latest", v.seq)
		return nil
	}
	if err != nil {
		v.log.Error("remote_fetch_error", "bbox", geo.BBoxParam(b), "err", err)
		return err
	}
	v.registry.Remote.Replace(layers.Build(layers.Remote, fc.Features, layers.Options{
		Style: layers.FixedStyle(render.RemoteStyle),
		PopupAt: func(i int, props geojson.Properties) string {
			if raw := fc.RawProperties(i); raw != nil {
				return render.RawPopup(raw)
			}
			return render.RemotePopup(props)
		},
	}))
	return nil
}

// Click：转发点击到地图控件
func (v *Viewer) Click(ctx context.Context, at geo.LatLng) error {
	return v.widget.Click(ctx, at)
}

// Move：转发客户端视口变化到地图控件
func (v *Viewer) Move(ctx context.Context, view mapview.View) error {
	return v.widget.Move(ctx, view)
}

func (v *Viewer) SetVisible(name string, visible bool) error {
	return v.registry.SetVisible(name, visible)
}

func (v *Viewer) filter(at geo.LatLng) {
	metrics.ClicksTotal.Inc()
	ds := v.local.Load()
	if ds == nil {
		metrics.ClicksWithoutDataTotal.Inc()
		v.log.Debug("click_without_data", "lat", at.Lat, "lng", at.Lng)
		return
	}
	v.filterMu.Lock()
	defer v.filterMu.Unlock()
	v.registry.Filter.Clear()
	res, err := filter.Run(ds, at.Point())
	if err != nil {
		v.log.Error("filter_error", "err", err)
		return
	}
	v.registry.Filter.Replace(res.Layers()...)
	if len(res.Failures) > 0 {
		v.log.Debug("filter_geometry_failures", "count", len(res.Failures), "first", res.Failures[0].Error())
	}

	v.mu.Lock()
	v.clicks++
	v.popup = &Popup{Seq: v.clicks, At: at, HTML: res.PopupHTML(), Text: res.PopupText(), Count: res.Count()}
	v.mu.Unlock()
}

func (v *Viewer) clearPopup() {
	v.mu.Lock()
	v.popup = nil
	v.mu.Unlock()
}

// State：会话对外状态快照
type State struct {
	View             mapview.View                 `json:"view"`
	Bounds           geo.Bounds                   `json:"bounds"`
	Basemap          layers.TileSource            `json:"basemap"`
	Control          []layers.ControlEntry        `json:"control"`
	Groups           map[string]layers.GroupState `json:"groups"`
	LocalLoaded      bool                         `json:"local_loaded"`
	LocalError       string                       `json:"local_error,omitempty"`
	RemoteConfigured bool                         `json:"remote_configured"`
	Popup            *Popup                       `json:"popup,omitempty"`
}

func (v *Viewer) State() State {
	rs := v.registry.State()
	st := State{
		View:             v.widget.View(),
		Bounds:           geo.FromBound(v.widget.ViewportBounds()),
		Basemap:          rs.Tiles,
		Control:          rs.Control,
		Groups:           rs.Groups,
		LocalLoaded:      v.local.Load() != nil,
		RemoteConfigured: v.remote != nil && v.remote.Configured(),
	}
	v.mu.RLock()
	if v.popup != nil {
		p := *v.popup
		st.Popup = &p
	}
	st.LocalError = v.localErr
	v.mu.RUnlock()
	return st
}
