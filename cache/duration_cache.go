package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"hourtrim/logger"

	"github.com/go-redis/redis/v8"
)

// DurationTTL 时长缓存过期时间
const DurationTTL = 24 * time.Hour

const durationKeyPrefix = "hourtrim:duration:"

// DurationCache stores probed audio durations in seconds.
type DurationCache interface {
	Get(ctx context.Context, key string) (float64, bool)
	Set(ctx context.Context, key string, seconds float64)
}

// DurationKey identifies one version of a file: a changed size or mtime is a
// different key, so stale entries simply age out.
func DurationKey(path string, info os.FileInfo) string {
	return fmt.Sprintf("%s%s:%d:%d", durationKeyPrefix, path, info.Size(), info.ModTime().UnixNano())
}

// redisDurationCache 基于Redis的时长缓存
type redisDurationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDurationCache creates a DurationCache on an existing client.
func NewRedisDurationCache(client *redis.Client) DurationCache {
	return &redisDurationCache{client: client, ttl: DurationTTL}
}

func (c *redisDurationCache) Get(ctx context.Context, key string) (float64, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// a broken cache only costs an extra ffprobe run
			logger.Warn("获取时长缓存失败", logger.String("key", key), logger.ErrorField(err))
		}
		return 0, false
	}
	seconds, err := strconv.ParseFloat(val, 64)
	if err != nil {
		logger.Warn("时长缓存格式错误", logger.String("key", key), logger.String("value", val))
		return 0, false
	}
	return seconds, true
}

func (c *redisDurationCache) Set(ctx context.Context, key string, seconds float64) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	value := strconv.FormatFloat(seconds, 'f', -1, 64)
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		logger.Warn("设置时长缓存失败", logger.String("key", key), logger.ErrorField(err))
	}
}

// noopDurationCache always misses.
type noopDurationCache struct{}

// NewNoopDurationCache returns a DurationCache that never stores anything.
func NewNoopDurationCache() DurationCache {
	return noopDurationCache{}
}

func (noopDurationCache) Get(context.Context, string) (float64, bool) { return 0, false }
func (noopDurationCache) Set(context.Context, string, float64)        {}

// MemoryDurationCache is a process-local DurationCache without expiry, used
// when Redis is disabled or unreachable.
type MemoryDurationCache struct {
	mu      sync.RWMutex
	entries map[string]float64
}

func NewMemoryDurationCache() *MemoryDurationCache {
	return &MemoryDurationCache{entries: make(map[string]float64)}
}

func (m *MemoryDurationCache) Get(_ context.Context, key string) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok
}

func (m *MemoryDurationCache) Set(_ context.Context, key string, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = seconds
}
