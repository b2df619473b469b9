package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/trust-insurance/quotation/pkg/model"
)

// manualClock lets tests move time forward without sleeping.
type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestCache(ttl time.Duration) (*Cache[model.RateTable], *manualClock) {
	clk := &manualClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewWithClock[model.RateTable](ttl, clk.Now), clk
}

func TestCache_PutAndGet(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	key := "rates|Motor"

	if _, ok := c.Get(key); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Put(key, model.RateTable{Base: 400, HasBase: true})

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Base != 400 {
		t.Errorf("expected base=400, got %v", got.Base)
	}
}

func TestCache_Expiration(t *testing.T) {
	c, clk := newTestCache(time.Minute)
	c.Put("rates|Life", model.RateTable{})

	clk.Advance(61 * time.Second)

	if _, ok := c.Get("rates|Life"); ok {
		t.Fatal("expected expired cache entry")
	}
	if c.Len() != 0 {
		t.Errorf("expected expired entry removed on read, len=%d", c.Len())
	}
}

func TestCache_Disabled(t *testing.T) {
	c, _ := newTestCache(0)
	c.Put("k", model.RateTable{})
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected zero TTL cache to never hit")
	}
	if c.Enabled() {
		t.Fatal("expected zero TTL cache to be disabled")
	}

	var nilCache *Cache[int]
	if _, ok := nilCache.Get("k"); ok {
		t.Fatal("expected nil cache to miss")
	}
	nilCache.Put("k", 1)
	nilCache.Bust("k")
	nilCache.Flush()
}

func TestCache_BustAndFlush(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	c.Put("a", model.RateTable{})
	c.Put("b", model.RateTable{})

	c.Bust("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected cache miss after bust")
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatal("expected b untouched by bust")
	}

	c.Flush()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after flush, len=%d", c.Len())
	}
}

func TestCache_CleanupExpired(t *testing.T) {
	c, clk := newTestCache(time.Minute)
	c.Put("a", model.RateTable{})
	clk.Advance(30 * time.Second)
	c.Put("b", model.RateTable{})
	clk.Advance(45 * time.Second)

	c.cleanupExpired()

	if c.Len() != 1 {
		t.Fatalf("expected one live entry, len=%d", c.Len())
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatal("expected b to survive cleanup")
	}
}

func TestCache_StartCleanerSweepsUntilStopped(t *testing.T) {
	c, clk := newTestCache(time.Minute)
	c.Put("a", model.RateTable{Base: 1})

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		c.StartCleaner(5*time.Millisecond, stop)
		close(done)
	}()

	clk.Advance(2 * time.Minute)
	deadline := time.After(2 * time.Second)
	for c.Len() != 0 {
		select {
		case <-deadline:
			t.Fatalf("expired entry not swept, len=%d", c.Len())
		case <-time.After(5 * time.Millisecond):
		}
	}

	close(stop)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cleaner did not stop")
	}
}

func TestCache_StartCleanerDisabledReturns(t *testing.T) {
	done := make(chan struct{})
	go func() {
		New[int](0).StartCleaner(time.Millisecond, make(chan struct{}))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleaner on a disabled cache should return immediately")
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New[int](time.Minute)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c.Put("k", i)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c.Get("k")
			}
		}()
	}
	wg.Wait()
}
