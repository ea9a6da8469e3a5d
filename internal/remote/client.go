// 包 remote：按视口范围查询远端 OGC API Features 风格接口
// 约束：端点为空或仍为占位值时不发出任何请求；单次查询、不分页
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"webkart/internal/config"
	"webkart/internal/geo"
	"webkart/internal/logger"
	"webkart/internal/metrics"
)

var ErrNotConfigured = errors.New("remote: endpoint not configured")

// StatusError：远端返回非 200
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote: status %d: %s", e.Code, e.Body)
}

type Options struct {
	Endpoint string
	Limit    int
	Format   string
	Timeout  time.Duration
	HTTP     *http.Client
}

type Client struct {
	endpoint string
	limit    int
	format   string
	http     *http.Client
}

// New：缺省 limit=200、f=json、超时 30s
func New(opts Options) *Client {
	if opts.Limit <= 0 {
		opts.Limit = 200
	}
	if opts.Format == "" {
		opts.Format = "json"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	hc := opts.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{endpoint: strings.TrimSpace(opts.Endpoint), limit: opts.Limit, format: opts.Format, http: hc}
}

// Configured：端点非空且不含占位标记
func (c *Client) Configured() bool { return config.RemoteURLConfigured(c.endpoint) }

func (c *Client) Endpoint() string { return c.endpoint }

// QueryURL：{endpoint}?f=..&limit=..&bbox=w,s,e,n
// 约束：bbox 中的逗号保持原样，不做百分号编码
func (c *Client) QueryURL(b orb.Bound) string {
	q := url.Values{}
	q.Set("f", c.format)
	q.Set("limit", strconv.Itoa(c.limit))
	sep := "?"
	if strings.Contains(c.endpoint, "?") {
		sep = "&"
	}
	return c.endpoint + sep + q.Encode() + "&bbox=" + geo.BBoxParam(b)
}

// Fetch：查询视口范围内的要素
// 返回：未配置时返回 ErrNotConfigured 且不产生网络请求；非 200 返回 *StatusError；
// 结果保留各要素 properties 原文，供弹窗按源顺序展示
func (c *Client) Fetch(ctx context.Context, b orb.Bound) (*geo.Collection, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	u := c.QueryURL(b)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	t0 := time.Now()
	metrics.RemoteRequestsTotal.Inc()
	logger.L().Debug("remote_req", "url", u)
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RemoteFailTotal.Inc()
		return nil, fmt.Errorf("remote: GET: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RemoteFailTotal.Inc()
		return nil, fmt.Errorf("remote: read body: %w", err)
	}
	dur := time.Since(t0).Milliseconds()
	metrics.RemoteDurationMs.Observe(float64(dur))
	if resp.StatusCode != http.StatusOK {
		metrics.RemoteFailTotal.Inc()
		return nil, &StatusError{Code: resp.StatusCode, Body: snippet(body)}
	}
	fc, err := geo.ParseCollection(body)
	if err != nil {
		metrics.RemoteFailTotal.Inc()
		return nil, err
	}
	metrics.RemoteSuccessTotal.Inc()
	logger.L().Debug("remote_resp", "features", len(fc.Features), "duration_ms", dur)
	return fc, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
