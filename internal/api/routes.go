// 包 api：地图会话 HTTP 接口；独立 ServeMux，由入口挂载到 API_BASE 前缀下
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"webkart/internal/config"
	"webkart/internal/dataset"
	"webkart/internal/geo"
	"webkart/internal/layers"
	"webkart/internal/logger"
	"webkart/internal/mapview"
	"webkart/internal/session"
	"webkart/internal/utils"
	"webkart/internal/version"
	"webkart/internal/viewer"
)

const maxBodyBytes = 1 << 20

// Locator：按客户端 IP 推断初始中心
type Locator interface {
	Locate(ip string) (geo.LatLng, bool)
}

type Deps struct {
	Config  config.Config
	Store   *session.Store
	Local   dataset.Source
	Remote  viewer.RemoteSource
	Locator Locator
	Log     *slog.Logger
}

type handler struct {
	Deps
}

// sessionResponse：会话 id 与状态平铺输出
type sessionResponse struct {
	ID string `json:"id"`
	viewer.State
}

type createRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type visibilityRequest struct {
	Visible *bool `json:"visible"`
}

// BuildRoutes：构建会话路由
func BuildRoutes(d Deps) *http.ServeMux {
	if d.Log == nil {
		d.Log = logger.L()
	}
	h := &handler{Deps: d}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.health)
	mux.HandleFunc("POST /sessions", h.create)
	mux.HandleFunc("GET /sessions/{id}", h.get)
	mux.HandleFunc("DELETE /sessions/{id}", h.remove)
	mux.HandleFunc("POST /sessions/{id}/click", h.click)
	mux.HandleFunc("POST /sessions/{id}/moveend", h.moveEnd)
	mux.HandleFunc("PUT /sessions/{id}/layers/{name}", h.setVisible)
	return mux
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": h.Store.Len(), "version": version.Version})
}

// create：新建会话并完成首次加载（本地数据集 + 远端视口查询）
// 约束：请求体可为空；客户端 IP 可定位时以定位结果作为初始中心，随后仍会被本地数据集适配覆盖
func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decode(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg := h.Config
	center := geo.LatLng{Lat: cfg.CenterLat, Lng: cfg.CenterLng}
	ip := utils.ClientIP(r)
	if h.Locator != nil {
		if ll, ok := h.Locator.Locate(ip); ok {
			center = ll
		}
	}
	v := viewer.New(viewer.Deps{
		Local:  h.Local,
		Remote: h.Remote,
		Tiles: layers.TileSource{
			URL:         cfg.TileURL,
			Attribution: cfg.TileAttribution,
			MaxZoom:     cfg.TileMaxZoom,
		},
		View: mapview.Options{
			Center:  center,
			Zoom:    cfg.Zoom,
			MaxZoom: cfg.TileMaxZoom,
			Width:   req.Width,
			Height:  req.Height,
		},
		Log: h.Log,
	})
	v.Start(r.Context())
	sess := h.Store.Create(v)
	h.Log.Info("session_created", "id", sess.ID, "ip", ip, "local_loaded", v.Dataset() != nil)
	writeJSON(w, http.StatusCreated, sessionResponse{ID: sess.ID, State: v.State()})
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.respond(w, sess)
}

func (h *handler) remove(w http.ResponseWriter, r *http.Request) {
	if !h.Store.Delete(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) click(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var at geo.LatLng
	if err := decode(r, &at, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := sess.Viewer.Click(r.Context(), at); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respond(w, sess)
}

func (h *handler) moveEnd(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var view mapview.View
	if err := decode(r, &view, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := sess.Viewer.Move(r.Context(), view); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respond(w, sess)
}

func (h *handler) setVisible(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req visibilityRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Visible == nil {
		writeError(w, http.StatusBadRequest, "missing visible")
		return
	}
	if err := sess.Viewer.SetVisible(r.PathValue("name"), *req.Visible); err != nil {
		if errors.Is(err, layers.ErrUnknownLayer) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respond(w, sess)
}

func (h *handler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := h.Store.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

func (h *handler) respond(w http.ResponseWriter, sess *session.Session) {
	writeJSON(w, http.StatusOK, sessionResponse{ID: sess.ID, State: sess.Viewer.State()})
}

// decode：限制请求体大小并拒绝未知字段；allowEmpty 时空请求体视为零值
func decode(r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
