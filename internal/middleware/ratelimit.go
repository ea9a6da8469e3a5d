// 包 middleware：入口限流
// 背景：会话接口每次点击/移动都会触发几何计算与远端查询，需要按客户端限速
// 约束：不排队，超限直接返回 429；Redis 故障时放行并记录告警
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"webkart/internal/logger"
	"webkart/internal/metrics"
	"webkart/internal/utils"
)

// Limiter：判定 key 在当前窗口内是否仍有额度
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Backend() string
}

// TokenBucket：进程内每秒令牌桶，每个 key 独立计数
type TokenBucket struct {
	capacity int
	now      func() time.Time

	mu      sync.Mutex
	lastSec int64
	tokens  map[string]int
}

func NewTokenBucket(qps int) *TokenBucket {
	if qps <= 0 {
		qps = 20
	}
	return &TokenBucket{capacity: qps, now: time.Now, tokens: map[string]int{}}
}

// Allow：跨秒时整体重置全部 key 的额度
func (tb *TokenBucket) Allow(_ context.Context, key string) (bool, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	sec := tb.now().Unix()
	if sec != tb.lastSec {
		tb.lastSec = sec
		tb.tokens = map[string]int{}
	}
	left, ok := tb.tokens[key]
	if !ok {
		left = tb.capacity
	}
	if left <= 0 {
		return false, nil
	}
	tb.tokens[key] = left - 1
	return true, nil
}

func (tb *TokenBucket) Backend() string { return "memory" }

// RedisWindow：Redis 固定窗口计数（INCR + EXPIRE），多实例共享额度
type RedisWindow struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedisWindow(rdb *redis.Client, qps int) *RedisWindow {
	if qps <= 0 {
		qps = 20
	}
	return &RedisWindow{rdb: rdb, limit: qps, window: time.Second, prefix: "webkart:rl:", now: time.Now}
}

func (rw *RedisWindow) Allow(ctx context.Context, key string) (bool, error) {
	slot := rw.now().UnixNano() / int64(rw.window)
	k := rw.prefix + key + ":" + strconv.FormatInt(slot, 10)
	pipe := rw.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, 2*rw.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, err
	}
	return incr.Val() <= int64(rw.limit), nil
}

func (rw *RedisWindow) Backend() string { return "redis" }

// RateLimit：按客户端 IP 限流的中间件
func RateLimit(lim Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r)
			ok, err := lim.Allow(r.Context(), ip)
			if err != nil {
				logger.L().Warn("ratelimit_backend_error", "backend", lim.Backend(), "err", err)
			}
			if !ok {
				metrics.RateLimitedTotal.WithLabelValues(lim.Backend()).Inc()
				logger.L().Debug("rate_limited", "ip", ip, "path", r.URL.Path)
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limited"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// New：按配置选择限流后端；未启用时返回透传中间件
func New(enabled bool, qps int, rdb *redis.Client) func(http.Handler) http.Handler {
	if !enabled {
		return func(next http.Handler) http.Handler { return next }
	}
	if rdb != nil {
		return RateLimit(NewRedisWindow(rdb, qps))
	}
	return RateLimit(NewTokenBucket(qps))
}
