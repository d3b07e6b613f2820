package cache_test

import (
	"testing"
	"time"

	"github.com/arassch/networth-planner/internal/domain"
	"github.com/arassch/networth-planner/internal/infra/cache"

	"github.com/shopspring/decimal"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[[]domain.YearPoint](5 * time.Minute)

	total := decimal.NewFromInt(1500)
	c.Set("p1|proj1|0", []domain.YearPoint{{Year: 2030, Projected: &total}})

	points, ok := c.Get("p1|proj1|0")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if len(points) != 1 || points[0].Year != 2030 {
		t.Errorf("unexpected cached series: %+v", points)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[[]domain.YearPoint](5 * time.Minute)

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)

	c.Set("key1", "value1")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("key1", "value1")
	c.Delete("key1")

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected key to be deleted")
	}
}
