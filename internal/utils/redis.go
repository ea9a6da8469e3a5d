// 包 utils：Redis 连接、客户端 IP 解析与自签名证书等进程级工具
package utils

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"webkart/internal/logger"
)

// OpenRedis：使用地址与密码打开 Redis 客户端，地址为空时返回 nil
func OpenRedis(addr, pass string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
}

// OpenRedisFromEnv：按 REDIS_HOST/REDIS_PORT/REDIS_PASS/REDIS_DB 打开并探活
// 约束：未配置 REDIS_HOST 时返回 (nil, nil)，调用方回退到进程内实现；REDIS_DB 非法时回退到 0
func OpenRedisFromEnv(ctx context.Context) (*redis.Client, error) {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		return nil, nil
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}
	db := 0
	if n, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil && n >= 0 {
		db = n
	}
	addr := host + ":" + port
	logger.L().Debug("redis_env", "addr", addr, "db", db)
	c := OpenRedis(addr, os.Getenv("REDIS_PASS"), db)

	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}
