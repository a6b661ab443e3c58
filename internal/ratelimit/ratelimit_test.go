package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// TestAllowWithinLimit 测试限流器的基本行为
func TestAllowWithinLimit(t *testing.T) {
	l := New(time.Second)
	defer l.Stop()

	t.Run("UnderLimit", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			allowed, _, _ := l.Allow("ip1", 5)
			if !allowed {
				t.Fatalf("第 %d 次请求不应被限流", i+1)
			}
		}
	})

	t.Run("OverLimit", func(t *testing.T) {
		allowed, count, remaining := l.Allow("ip1", 5)
		if allowed {
			t.Error("超限请求应被拒绝")
		}
		if count != 5 {
			t.Errorf("窗口内计数错误: %d", count)
		}
		if remaining != 0 {
			t.Errorf("剩余配额错误: %d", remaining)
		}
	})

	t.Run("IndependentKeys", func(t *testing.T) {
		allowed, _, _ := l.Allow("ip2", 5)
		if !allowed {
			t.Error("不同 key 不应互相影响")
		}
	})

	t.Run("NoLimit", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			if allowed, _, _ := l.Allow("ip3", 0); !allowed {
				t.Fatal("limit 为 0 时不应限流")
			}
		}
	})
}

// TestWindowSliding 测试窗口滑动后配额恢复
func TestWindowSliding(t *testing.T) {
	l := New(100 * time.Millisecond)
	defer l.Stop()

	for i := 0; i < 3; i++ {
		l.Allow("ip", 3)
	}
	if allowed, _, _ := l.Allow("ip", 3); allowed {
		t.Fatal("窗口内超限应被拒绝")
	}

	time.Sleep(150 * time.Millisecond)

	if allowed, _, _ := l.Allow("ip", 3); !allowed {
		t.Error("窗口滑过后应恢复配额")
	}
}

// TestReset 测试重置
func TestReset(t *testing.T) {
	l := New(time.Minute)
	defer l.Stop()

	for i := 0; i < 3; i++ {
		l.Allow("ip", 3)
	}
	l.Reset("ip")

	if allowed, count, _ := l.Allow("ip", 3); !allowed || count != 1 {
		t.Errorf("重置后应重新计数: allowed=%v, count=%d", allowed, count)
	}
}

// TestConcurrentAllow 测试并发下计数准确
func TestConcurrentAllow(t *testing.T) {
	l := New(time.Minute)
	defer l.Stop()

	const limit = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _, _ := l.Allow("shared", limit); allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowedCount != limit {
		t.Errorf("并发下放行数错误: got %d, want %d", allowedCount, limit)
	}
}

// TestManyKeys 测试大量 key 不互相干扰
func TestManyKeys(t *testing.T) {
	l := New(time.Minute)
	defer l.Stop()

	for i := 0; i < 1000; i++ {
		key := fmt.Sprintf("ip-%d", i)
		if allowed, _, _ := l.Allow(key, 1); !allowed {
			t.Fatalf("key %s 首次请求被限流", key)
		}
	}
}
