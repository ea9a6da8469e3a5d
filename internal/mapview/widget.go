// 包 mapview：地图控件状态（视口、缩放、事件分发）
// 背景：浏览器只负责绘制，视口与事件在服务端统一维护
// 约束：事件处理函数在调用方 goroutine 中按注册顺序同步执行，执行期间不持有控件锁
package mapview

import (
	"context"
	"errors"
	"sync"

	"github.com/paulmach/orb"

	"webkart/internal/geo"
)

var (
	ErrEmptyBounds = errors.New("mapview: empty or invalid bounds")
	ErrInvalidView = errors.New("mapview: invalid view")
)

const (
	DefaultWidth  = 1024
	DefaultHeight = 768
)

type EventType string

const (
	EventClick   EventType = "click"
	EventMoveEnd EventType = "moveend"
)

// Event：click 携带点击位置；moveend 无负载，订阅方自行读取视口
type Event struct {
	Type   EventType
	LatLng geo.LatLng
}

type Handler func(ctx context.Context, e Event)

// Options：初始视图
type Options struct {
	Center  geo.LatLng
	Zoom    float64
	MaxZoom int
	Width   int
	Height  int
}

// View：视口状态；Bounds 为客户端上报的实际可视范围（可缺省）
type View struct {
	Center geo.LatLng  `json:"center"`
	Zoom   float64     `json:"zoom"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Bounds *geo.Bounds `json:"bounds,omitempty"`
}

type Widget struct {
	mu       sync.RWMutex
	view     View
	maxZoom  int
	handlers map[EventType][]Handler
}

func New(opts Options) *Widget {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.MaxZoom <= 0 {
		opts.MaxZoom = 19
	}
	return &Widget{
		view: View{
			Center: opts.Center,
			Zoom:   opts.Zoom,
			Width:  opts.Width,
			Height: opts.Height,
		},
		maxZoom:  opts.MaxZoom,
		handlers: map[EventType][]Handler{},
	}
}

// View：当前视口快照
func (w *Widget) View() View {
	w.mu.RLock()
	defer w.mu.RUnlock()
	v := w.view
	if v.Bounds != nil {
		b := *v.Bounds
		v.Bounds = &b
	}
	return v
}

// ViewportBounds：优先返回客户端上报的范围，否则按中心、缩放与像素尺寸推算
func (w *Widget) ViewportBounds() orb.Bound {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.view.Bounds != nil {
		return geo.WrapBound(w.view.Bounds.Orb())
	}
	return geo.WrapBound(boundsAt(w.view.Center.Point(), w.view.Zoom, w.view.Width, w.view.Height))
}

// On：订阅事件
func (w *Widget) On(t EventType, h Handler) {
	w.mu.Lock()
	w.handlers[t] = append(w.handlers[t], h)
	w.mu.Unlock()
}

// Emit：按注册顺序依次调用订阅者
func (w *Widget) Emit(ctx context.Context, e Event) {
	w.mu.RLock()
	hs := append([]Handler(nil), w.handlers[e.Type]...)
	w.mu.RUnlock()
	for _, h := range hs {
		h(ctx, e)
	}
}

// Click：派发点击事件，经度先折回 [-180, 180]
func (w *Widget) Click(ctx context.Context, at geo.LatLng) error {
	if !at.Valid() {
		return ErrInvalidView
	}
	w.Emit(ctx, Event{Type: EventClick, LatLng: at.Normalize()})
	return nil
}

// Move：应用客户端上报的视口并派发 moveend
// 约束：宽高非正时沿用当前尺寸；上报范围无效时整体拒绝；中心经度折回主世界，上报范围在读取时折回
func (w *Widget) Move(ctx context.Context, v View) error {
	if !v.Center.Valid() || v.Zoom < 0 {
		return ErrInvalidView
	}
	if v.Bounds != nil && !geo.ValidBound(v.Bounds.Orb()) {
		return ErrInvalidView
	}
	v.Center = v.Center.Normalize()
	w.mu.Lock()
	if v.Width <= 0 {
		v.Width = w.view.Width
	}
	if v.Height <= 0 {
		v.Height = w.view.Height
	}
	if v.Zoom > float64(w.maxZoom) {
		v.Zoom = float64(w.maxZoom)
	}
	if v.Bounds != nil {
		b := *v.Bounds
		v.Bounds = &b
	}
	w.view = v
	w.mu.Unlock()

	w.Emit(ctx, Event{Type: EventMoveEnd})
	return nil
}

// FitToBounds：缩放并居中以完整显示 b（四周各留 padding 像素），随后派发 moveend
// 返回：b 为空或非法时返回 ErrEmptyBounds，视口保持不变
func (w *Widget) FitToBounds(ctx context.Context, b orb.Bound, padding [2]int) error {
	if b == (orb.Bound{}) || !geo.ValidBound(b) {
		return ErrEmptyBounds
	}
	w.mu.Lock()
	z := fitZoom(b, w.view.Width, w.view.Height, padding, w.maxZoom)
	w.view.Zoom = float64(z)
	w.view.Center = geo.FromPoint(centerOf(b))
	w.view.Bounds = nil
	w.mu.Unlock()

	w.Emit(ctx, Event{Type: EventMoveEnd})
	return nil
}
