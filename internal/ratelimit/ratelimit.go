// Package ratelimit 提供基于滑动日志的请求频率限制
// 网关用它约束单个来源 IP 的调用频率
package ratelimit

import (
	"sync"
	"time"
)

// Limiter 滑动窗口限流器
// 为每个 key 记录窗口内的请求时间戳，统计数量实现精确限流
type Limiter struct {
	mu          sync.RWMutex
	windowSize  time.Duration
	entries     map[string]*entry
	cleanupTick time.Duration
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

type entry struct {
	mu         sync.Mutex
	timestamps []int64 // Unix 纳秒
}

// New 创建限流器；windowSize <= 0 时使用 60 秒
func New(windowSize time.Duration) *Limiter {
	if windowSize <= 0 {
		windowSize = 60 * time.Second
	}

	l := &Limiter{
		windowSize:  windowSize,
		entries:     make(map[string]*entry),
		cleanupTick: 5 * time.Minute,
		stopCleanup: make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow 检查 key 是否允许再发一次请求
// limit <= 0 表示不限制；返回窗口内已有请求数和剩余配额
func (l *Limiter) Allow(key string, limit int) (allowed bool, count int, remaining int) {
	if limit <= 0 {
		return true, 0, -1
	}

	now := time.Now().UnixNano()
	windowStart := now - int64(l.windowSize)

	l.mu.RLock()
	e, ok := l.entries[key]
	l.mu.RUnlock()

	if !ok {
		l.mu.Lock()
		if e, ok = l.entries[key]; !ok {
			e = &entry{}
			l.entries[key] = e
		}
		l.mu.Unlock()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// 丢弃窗口外的时间戳
	valid := e.timestamps[:0]
	for _, ts := range e.timestamps {
		if ts > windowStart {
			valid = append(valid, ts)
		}
	}
	e.timestamps = valid

	count = len(e.timestamps)
	if count >= limit {
		return false, count, 0
	}

	e.timestamps = append(e.timestamps, now)
	return true, count + 1, limit - count - 1
}

// Reset 清空某个 key 的记录
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
}

// cleanupLoop 定期清理整个窗口都已过期的 key，防止内存无限增长
func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupTick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCleanup:
			return
		}
	}
}

func (l *Limiter) cleanup() {
	windowStart := time.Now().UnixNano() - int64(l.windowSize)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, e := range l.entries {
		e.mu.Lock()
		live := false
		for _, ts := range e.timestamps {
			if ts > windowStart {
				live = true
				break
			}
		}
		e.mu.Unlock()
		if !live {
			delete(l.entries, key)
		}
	}
}

// Stop 停止后台清理协程
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCleanup)
	})
}
