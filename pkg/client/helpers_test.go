package client

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Sternrassler/routecache/pkg/cache"
	"github.com/rs/zerolog"
)

// testRoute is a comparable Route for Client tests.
type testRoute struct {
	base   string
	path   string
	method Method
	sample string
}

func (r testRoute) BaseURL() string            { return r.base }
func (r testRoute) Path() string               { return r.path }
func (r testRoute) Method() Method             { return r.method }
func (r testRoute) Task() Task                 { return PlainTask{} }
func (r testRoute) Headers() map[string]string { return map[string]string{"Accept": "application/json"} }
func (r testRoute) SampleData() []byte         { return []byte(r.sample) }

// taskRoute carries an arbitrary Task; it is only used with BuildRequest.
type taskRoute struct {
	base    string
	path    string
	method  Method
	task    Task
	headers map[string]string
}

func (r taskRoute) BaseURL() string            { return r.base }
func (r taskRoute) Path() string               { return r.path }
func (r taskRoute) Method() Method             { return r.method }
func (r taskRoute) Task() Task                 { return r.task }
func (r taskRoute) Headers() map[string]string { return r.headers }
func (r taskRoute) SampleData() []byte         { return nil }

// doerFunc adapts a function to Doer and counts calls.
type doerFunc func(req *http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

type countingDoer struct {
	inner Doer
	calls atomic.Int32
}

func (d *countingDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls.Add(1)
	return d.inner.Do(req)
}

// countingTier wraps a tier and counts saves; getErr/saveErr inject failures.
type countingTier struct {
	cache.Tier
	saves   atomic.Int32
	getErr  error
	saveErr error
}

func (c *countingTier) Save(ctx context.Context, key string, entry *cache.Entry) error {
	c.saves.Add(1)
	if c.saveErr != nil {
		return c.saveErr
	}
	return c.Tier.Save(ctx, key, entry)
}

func (c *countingTier) Get(ctx context.Context, key string) (*cache.Entry, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.Tier.Get(ctx, key)
}

type testTiers struct {
	memory *countingTier
	disk   *countingTier
}

func newTestCoordinator(t *testing.T) (*cache.Coordinator, testTiers) {
	t.Helper()
	disk, err := cache.NewDiskTier(cache.DiskConfig{Dir: t.TempDir()}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewDiskTier failed: %v", err)
	}
	tiers := testTiers{
		memory: &countingTier{Tier: cache.NewMemoryTier(cache.DefaultMemoryConfig())},
		disk:   &countingTier{Tier: disk},
	}
	return cache.NewCoordinator(tiers.memory, tiers.disk, zerolog.Nop()), tiers
}

func newTestClient(t *testing.T, cfg Config) (*Client[testRoute], testTiers) {
	t.Helper()
	coordinator, tiers := newTestCoordinator(t)
	cfg.Cache = coordinator
	logger := zerolog.Nop()
	cfg.Logger = &logger
	c, err := New[testRoute](cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c, tiers
}

// recordingMonitor records every transmission.
type recordingMonitor struct {
	mu       sync.Mutex
	started  []*http.Request
	finished []int
}

func (m *recordingMonitor) RequestStarted(req *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, req)
}

func (m *recordingMonitor) RequestFinished(_ *http.Request, resp *http.Response, _ []byte, _ error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	m.finished = append(m.finished, status)
}

func bytesReader(b []byte) *bytes.Reader { return bytes.NewReader(b) }
