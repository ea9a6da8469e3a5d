// 包 config：集中读取环境变量配置；.env 由入口通过 godotenv 预先加载
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// 占位地址标记：远端地址包含该片段时视为未配置
const RemotePlaceholder = "SETT_INN"

// Config：服务运行所需的全部配置项
type Config struct {
	Addr    string
	APIBase string
	UIDir   string
	DataDir string

	// 本地数据集：磁盘路径或 http(s) 地址
	LocalDataset string

	RemoteURL     string
	RemoteLimit   int
	RemoteFormat  string
	RemoteTimeout time.Duration

	CenterLat float64
	CenterLng float64
	Zoom      float64

	TileURL         string
	TileAttribution string
	TileMaxZoom     int

	SessionTTL time.Duration
	SessionMax int

	RateLimitEnabled bool
	RateLimitQPS     int

	GeoIPPath string

	TLSEnable   bool
	TLSCertPath string
	TLSKeyPath  string
}

// Load：读取环境变量并填充默认值
func Load() Config {
	c := Config{
		Addr:    str("ADDR", ":8080"),
		APIBase: str("API_BASE", "/api"),
		UIDir:   str("UI_DIST", "ui"),
		DataDir: str("DATA_DIR", "data"),

		RemoteURL:     str("REMOTE_URL", "https://hybasapi.atgcp1-prod.kartverket.cloud/collections/surveys/items"),
		RemoteLimit:   integer("REMOTE_LIMIT", 200),
		RemoteFormat:  str("REMOTE_FORMAT", "json"),
		RemoteTimeout: time.Duration(integer("REMOTE_TIMEOUT_S", 30)) * time.Second,

		CenterLat: float("MAP_CENTER_LAT", 59.9139),
		CenterLng: float("MAP_CENTER_LNG", 10.7522),
		Zoom:      float("MAP_ZOOM", 12),

		TileURL:         str("TILE_URL", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"),
		TileAttribution: str("TILE_ATTRIBUTION", "&copy; OpenStreetMap contributors"),
		TileMaxZoom:     integer("TILE_MAX_ZOOM", 19),

		SessionTTL: time.Duration(integer("SESSION_TTL_S", 1800)) * time.Second,
		SessionMax: integer("SESSION_MAX", 1024),

		RateLimitEnabled: boolean("RATE_LIMIT_ENABLED", false),
		RateLimitQPS:     integer("RATE_LIMIT_QPS", 200),

		GeoIPPath: os.Getenv("GEOIP_DB_PATH"),

		TLSEnable: boolean("TLS_ENABLE", false),
	}
	c.LocalDataset = str("LOCAL_DATASET", filepath.Join(c.DataDir, "dataset.geojson"))
	c.TLSCertPath = str("TLS_CERT_PATH", filepath.Join(c.DataDir, "certs", "server.crt"))
	c.TLSKeyPath = str("TLS_KEY_PATH", filepath.Join(c.DataDir, "certs", "server.key"))
	return c
}

// RemoteConfigured：远端地址非空且不是占位值
func (c Config) RemoteConfigured() bool {
	return RemoteURLConfigured(c.RemoteURL)
}

// RemoteURLConfigured：判断远端地址是否已真实配置
func RemoteURLConfigured(u string) bool {
	u = strings.TrimSpace(u)
	return u != "" && !strings.Contains(u, RemotePlaceholder)
}

func str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// 解析失败或非正数时回退默认值
func integer(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func float(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func boolean(key string, def bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return def
}
