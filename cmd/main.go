// 程序入口：仅负责读取配置、初始化依赖并启动服务；会话接口注册在 internal/api
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"

	"webkart/internal/api"
	"webkart/internal/config"
	"webkart/internal/dataset"
	"webkart/internal/geoip"
	"webkart/internal/logger"
	"webkart/internal/metrics"
	"webkart/internal/middleware"
	"webkart/internal/remote"
	"webkart/internal/session"
	"webkart/internal/utils"
	"webkart/internal/version"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	l.Debug("log_init_ok", "version", version.Version, "commit", version.Commit)

	cfg := config.Load()
	l.Debug("config_loaded", "api_base", cfg.APIBase, "ui", cfg.UIDir, "local", cfg.LocalDataset, "remote_configured", cfg.RemoteConfigured())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rc, err := utils.OpenRedisFromEnv(ctx)
	switch {
	case err != nil:
		l.Error("redis_ping_error", "err", err)
	case rc == nil:
		l.Info("redis_disabled")
	default:
		l.Info("redis_ping_ok")
		defer rc.Close()
	}

	loc, err := geoip.Open(cfg.GeoIPPath)
	if err != nil {
		l.Error("geoip_open_error", "path", cfg.GeoIPPath, "err", err)
	} else if loc != nil {
		l.Info("geoip_ready", "path", cfg.GeoIPPath)
		defer loc.Close()
	}

	store := session.NewStore(cfg.SessionMax, cfg.SessionTTL)
	store.StartJanitor(ctx, time.Minute)

	deps := api.Deps{
		Config: cfg,
		Store:  store,
		Local:  dataset.NewSource(cfg.LocalDataset, &http.Client{Timeout: cfg.RemoteTimeout}),
		Remote: remote.New(remote.Options{
			Endpoint: cfg.RemoteURL,
			Limit:    cfg.RemoteLimit,
			Format:   cfg.RemoteFormat,
			Timeout:  cfg.RemoteTimeout,
		}),
		Log: l,
	}
	if loc != nil {
		deps.Locator = loc
	}
	if !cfg.RemoteConfigured() {
		l.Info("remote_disabled", "reason", "endpoint_not_configured")
	}

	mux := http.NewServeMux()
	apiMux := api.BuildRoutes(deps)
	mux.Handle(cfg.APIBase+"/", http.StripPrefix(cfg.APIBase, apiMux))
	mux.Handle(cfg.APIBase+"/metrics", metrics.Handler())
	mux.Handle("/data/", http.StripPrefix("/data/", http.FileServer(http.Dir(cfg.DataDir))))
	mux.Handle("/", http.FileServer(http.Dir(cfg.UIDir)))

	// 向前端暴露 API 基础路径与底图配置，避免硬编码
	mux.HandleFunc("/config.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/javascript; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write([]byte("window.__API_BASE__=" + strconv.Quote(cfg.APIBase) + ";\n"))
		_, _ = w.Write([]byte("window.__COMMIT_SHA__=" + strconv.Quote(version.Commit) + ";\n"))
	})

	limit := middleware.New(cfg.RateLimitEnabled, cfg.RateLimitQPS, rc)
	var handler http.Handler = handlers.CompressHandler(limit(mux))
	handler = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLog{l}))(handler)
	handler = logger.AccessMiddleware(l)(handler)
	s := &http.Server{Addr: cfg.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
	}()

	if cfg.TLSEnable {
		if err := utils.EnsureSelfSignedCert(cfg.TLSCertPath, cfg.TLSKeyPath, "webkart.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		if os.Getenv("TLS_REDIRECT_ENABLE") == "true" {
			go redirectToHTTPS(cfg.Addr, l)
		}
		l.Info("listening_tls", "addr", cfg.Addr, "cert", cfg.TLSCertPath)
		serveDone(l, s.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath))
		return
	}
	l.Info("listening", "addr", cfg.Addr)
	serveDone(l, s.ListenAndServe())
}

// recoveryLog：将处理函数 panic 写入结构化日志
type recoveryLog struct{ l *slog.Logger }

func (r recoveryLog) Println(v ...any) { r.l.Error("handler_panic", "err", fmt.Sprint(v...)) }

func serveDone(l *slog.Logger, err error) {
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
}

// redirectToHTTPS：可选的 HTTP→HTTPS 重定向监听（TLS_REDIRECT_ADDR，默认 :80）
func redirectToHTTPS(httpsAddr string, l *slog.Logger) {
	redirAddr := os.Getenv("TLS_REDIRECT_ADDR")
	if redirAddr == "" {
		redirAddr = ":80"
	}
	port := strings.TrimPrefix(httpsAddr, ":")
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if i := strings.LastIndex(host, ":"); i != -1 {
			host = host[:i]
		}
		if port != "" && port != "443" {
			host += ":" + port
		}
		target := "https://" + host + r.URL.RequestURI()
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		l.Debug("http_redirect", "from", r.Host, "to", target)
	})
	l.Info("http_redirect_listening", "addr", redirAddr, "to", "https"+httpsAddr)
	_ = http.ListenAndServe(redirAddr, h)
}
