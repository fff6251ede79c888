package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"
)

// LRU is an in-process byte cache with TTL and size-based eviction.
type LRU struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	order   *list.List
}

type lruEntry struct {
	key       string
	data      []byte
	expiresAt time.Time
}

// NewLRU creates an LRU cache that holds at most maxSize entries, each
// valid for ttl after being set.
func NewLRU(maxSize int, ttl time.Duration) *LRU {
	return &LRU{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		order:   list.New(),
	}
}

func (c *LRU) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}

	entry := elem.Value.(*lruEntry)
	if time.Now().After(entry.expiresAt) {
		c.removeElement(elem)
		return nil, false
	}

	c.order.MoveToFront(elem)
	return entry.data, true
}

func (c *LRU) Set(_ context.Context, key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &lruEntry{
		key:       key,
		data:      data,
		expiresAt: time.Now().Add(c.ttl),
	}

	if elem, ok := c.items[key]; ok {
		elem.Value = entry
		c.order.MoveToFront(elem)
		return
	}

	c.items[key] = c.order.PushFront(entry)

	if c.order.Len() > c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

func (c *LRU) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

func (c *LRU) DeletePrefix(_ context.Context, prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var matched []*list.Element
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		if strings.HasPrefix(elem.Value.(*lruEntry).key, prefix) {
			matched = append(matched, elem)
		}
	}
	for _, elem := range matched {
		c.removeElement(elem)
	}
}

func (c *LRU) removeElement(elem *list.Element) {
	entry := elem.Value.(*lruEntry)
	delete(c.items, entry.key)
	c.order.Remove(elem)
}

// CleanExpired removes every expired entry and returns how many were dropped.
func (c *LRU) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var expired []*list.Element
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*lruEntry).expiresAt) {
			expired = append(expired, elem)
		}
	}
	for _, elem := range expired {
		c.removeElement(elem)
	}
	return len(expired)
}

// Size returns the current number of cached entries.
func (c *LRU) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// StartJanitor periodically evicts expired entries until ctx is done.
func (c *LRU) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.CleanExpired()
			case <-ctx.Done():
				return
			}
		}
	}()
}
