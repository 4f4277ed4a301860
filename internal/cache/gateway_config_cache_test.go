package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/gtd_payments/internal/models"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]string
	err  error
	sets int
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sets++
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

type countingSource struct {
	configs []*models.PaymentGatewayConfig
	calls   int
}

func (s *countingSource) GetActive(context.Context) ([]*models.PaymentGatewayConfig, error) {
	s.calls++
	var out []*models.PaymentGatewayConfig
	for _, c := range s.configs {
		if c.IsActive() {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *countingSource) GetPrimary(context.Context) (*models.PaymentGatewayConfig, error) {
	s.calls++
	for _, c := range s.configs {
		if c.IsPrimary {
			return c, nil
		}
	}
	return nil, nil
}

func (s *countingSource) GetBackup(context.Context) (*models.PaymentGatewayConfig, error) {
	s.calls++
	for _, c := range s.configs {
		if c.IsBackup {
			return c, nil
		}
	}
	return nil, nil
}

func (s *countingSource) GetByType(_ context.Context, t models.GatewayType) (*models.PaymentGatewayConfig, error) {
	s.calls++
	for _, c := range s.configs {
		if c.GatewayType == t {
			return c, nil
		}
	}
	return nil, nil
}

func testSource() *countingSource {
	return &countingSource{configs: []*models.PaymentGatewayConfig{
		{
			GatewayType:         models.GatewayStripe,
			Status:              models.GatewayStatusActive,
			IsPrimary:           true,
			Credentials:         models.Credentials{"secret_key": "sk_live_secret"},
			SupportedCurrencies: []string{"USD", "EUR"},
			MaxAmount:           decimal.NewNullDecimal(decimal.NewFromInt(5000)),
		},
		{GatewayType: models.GatewayPayPal, Status: models.GatewayStatusInactive},
	}}
}

func TestGatewayConfigCacheReadThrough(t *testing.T) {
	store := newMemStore()
	src := testSource()
	c := NewGatewayConfigCache(store, src, time.Minute)
	ctx := context.Background()

	first, err := c.GetPrimary(ctx)
	if err != nil {
		t.Fatalf("GetPrimary: %v", err)
	}
	second, err := c.GetPrimary(ctx)
	if err != nil {
		t.Fatalf("GetPrimary: %v", err)
	}
	if src.calls != 1 {
		t.Errorf("source calls = %d, want 1", src.calls)
	}
	if first.GatewayType != models.GatewayStripe || second.GatewayType != models.GatewayStripe {
		t.Errorf("primary = %+v / %+v", first, second)
	}
	if !second.MaxAmount.Valid || !second.MaxAmount.Decimal.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("max amount = %+v", second.MaxAmount)
	}
	if !second.SupportsCurrency("eur") {
		t.Error("currency list lost in cache")
	}
}

func TestGatewayConfigCacheNeverStoresCredentials(t *testing.T) {
	store := newMemStore()
	c := NewGatewayConfigCache(store, testSource(), time.Minute)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	for key, v := range store.data {
		if strings.Contains(v, "sk_live_secret") {
			t.Errorf("%s holds credentials: %s", key, v)
		}
	}
}

func TestGatewayConfigCacheNilIsCached(t *testing.T) {
	store := newMemStore()
	src := testSource()
	c := NewGatewayConfigCache(store, src, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		backup, err := c.GetBackup(ctx)
		if err != nil || backup != nil {
			t.Fatalf("backup = %v, %v", backup, err)
		}
	}
	if src.calls != 1 {
		t.Errorf("source calls = %d, want 1", src.calls)
	}
}

func TestGatewayConfigCacheFallsBackOnRedisError(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("connection refused")
	src := testSource()
	c := NewGatewayConfigCache(store, src, time.Minute)

	active, err := c.GetActive(context.Background())
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if len(active) != 1 || active[0].GatewayType != models.GatewayStripe {
		t.Errorf("active = %+v", active)
	}
}

func TestGatewayConfigCacheInvalidate(t *testing.T) {
	store := newMemStore()
	src := testSource()
	c := NewGatewayConfigCache(store, src, time.Minute)
	ctx := context.Background()

	if _, err := c.GetByType(ctx, models.GatewayPayPal); err != nil {
		t.Fatal(err)
	}
	if err := c.Invalidate(ctx); err != nil {
		t.Fatal(err)
	}
	if len(store.data) != 0 {
		t.Errorf("entries left after invalidate: %v", store.data)
	}
}

type gatedSource struct {
	countingSource
	mu      sync.Mutex
	release chan struct{}
}

func (s *gatedSource) GetActive(ctx context.Context) ([]*models.PaymentGatewayConfig, error) {
	<-s.release
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countingSource.GetActive(ctx)
}

func TestGatewayConfigCacheCollapsesConcurrentMisses(t *testing.T) {
	src := &gatedSource{countingSource: *testSource(), release: make(chan struct{})}
	c := NewGatewayConfigCache(newMemStore(), src, time.Minute)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			active, err := c.GetActive(context.Background())
			if err == nil && len(active) != 1 {
				err = errors.New("unexpected active set")
			}
			errs <- err
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(src.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("GetActive: %v", err)
		}
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	if src.calls >= callers {
		t.Errorf("source loaded %d times for %d concurrent callers", src.calls, callers)
	}
}
