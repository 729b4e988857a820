package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/routecache/internal/testutil"
	"github.com/Sternrassler/routecache/pkg/cache"
)

func TestNew_Validation(t *testing.T) {
	coordinator, _ := newTestCoordinator(t)

	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name:   "valid config",
			config: DefaultConfig(coordinator),
		},
		{
			name:   "zero config with cache",
			config: Config{Cache: coordinator},
		},
		{
			name:        "nil cache",
			config:      Config{},
			expectError: true,
			errorMsg:    "cache coordinator is required",
		},
		{
			name:        "unknown default mode",
			config:      Config{Cache: coordinator, DefaultMode: RequestType{kind: 42}},
			expectError: true,
			errorMsg:    "unsupported request type: unknown(42)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New[testRoute](tt.config)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got nil")
					return
				}
				if tt.errorMsg != "" && err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if c.transport == nil || c.interceptor == nil || c.retrier == nil || c.monitor == nil {
				t.Error("defaults not applied")
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	coordinator, _ := newTestCoordinator(t)
	cfg := DefaultConfig(coordinator)

	if cfg.Cache != coordinator {
		t.Error("Cache not set")
	}
	if cfg.DefaultMode != Remote {
		t.Errorf("DefaultMode = %s, want remote", cfg.DefaultMode)
	}
	if _, ok := cfg.Retrier.(NoRetry); !ok {
		t.Errorf("Retrier = %T, want NoRetry", cfg.Retrier)
	}
	httpClient, ok := cfg.Transport.(*http.Client)
	if !ok || httpClient.Timeout != 30*time.Second {
		t.Errorf("Transport = %#v, want http.Client with 30s timeout", cfg.Transport)
	}
}

func TestRequest_CachesAndRevalidates(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()
	origin.SetResource("/items", `"v1"`, `{"id": 1}`)

	c, tiers := newTestClient(t, Config{})
	route := testRoute{base: origin.URL(), path: "/items", method: GET(WithETag())}
	ctx := context.Background()

	data, err := c.Request(ctx, route)
	if err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	if string(data) != `{"id": 1}` {
		t.Errorf("data = %s", data)
	}
	if origin.ConditionalCount() != 0 {
		t.Errorf("first request must be unconditional")
	}

	key := origin.URL() + "/items"
	for _, tier := range []cache.Tier{tiers.memory, tiers.disk} {
		entry, err := tier.Get(ctx, key)
		if err != nil {
			t.Fatalf("%s tier not populated: %v", tier.Name(), err)
		}
		if entry.ETag != `"v1"` {
			t.Errorf("%s ETag = %q, want %q", tier.Name(), entry.ETag, `"v1"`)
		}
	}

	data, err = c.Request(ctx, route)
	if err != nil {
		t.Fatalf("second request failed: %v", err)
	}
	if string(data) != `{"id": 1}` {
		t.Errorf("revalidated data = %s", data)
	}
	if origin.RequestCount() != 2 || origin.ConditionalCount() != 1 {
		t.Errorf("requests = %d, conditional = %d; want 2, 1", origin.RequestCount(), origin.ConditionalCount())
	}
	if got := origin.LastRequestHeader().Get("If-None-Match"); got != `"v1"` {
		t.Errorf("If-None-Match = %q", got)
	}
}

func TestRequest_RevalidationIdempotence(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()
	origin.SetHandler("/r", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"V"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"other"`)
		w.Write([]byte("changed"))
	})

	c, tiers := newTestClient(t, Config{})
	route := testRoute{base: origin.URL(), path: "/r", method: GET(WithETag())}
	ctx := context.Background()

	payload := []byte{0x00, 0x01, 0xfe, 'P'}
	if err := c.Cache().Save(ctx, origin.URL()+"/r", cache.NewEntry(payload, `"V"`), true); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	tiers.memory.saves.Store(0)
	tiers.disk.saves.Store(0)

	for i := 0; i < 3; i++ {
		data, err := c.Request(ctx, route)
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		if string(data) != string(payload) {
			t.Errorf("request %d data = %v, want %v", i, data, payload)
		}
	}

	if tiers.memory.saves.Load() != 0 || tiers.disk.saves.Load() != 0 {
		t.Errorf("304 must not rewrite the cache: memory=%d disk=%d", tiers.memory.saves.Load(), tiers.disk.saves.Load())
	}
}

func TestRequest_FreshResponseReplacesCache(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()
	origin.SetResource("/r", `"2"`, "new")

	c, tiers := newTestClient(t, Config{})
	route := testRoute{base: origin.URL(), path: "/r", method: GET(WithETag())}
	ctx := context.Background()
	key := origin.URL() + "/r"

	if err := c.Cache().Save(ctx, key, cache.NewEntry([]byte("old"), `"1"`), true); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	data, err := c.Request(ctx, route)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if string(data) != "new" {
		t.Errorf("data = %s, want new", data)
	}

	for _, tier := range []cache.Tier{tiers.memory, tiers.disk} {
		entry, err := tier.Get(ctx, key)
		if err != nil {
			t.Fatalf("%s Get failed: %v", tier.Name(), err)
		}
		if string(entry.Data) != "new" || entry.ETag != `"2"` {
			t.Errorf("%s holds %q/%q, want new/\"2\"", tier.Name(), entry.Data, entry.ETag)
		}
	}
}

func TestRequest_CacheFlags(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()

	tests := []struct {
		name       string
		method     Method
		wantMemory bool
		wantDisk   bool
	}{
		{name: "no etag", method: GET(), wantMemory: false, wantDisk: false},
		{name: "etag with disk", method: GET(WithETag()), wantMemory: true, wantDisk: true},
		{name: "etag memory only", method: GET(WithETag(), WithoutDiskCache()), wantMemory: true, wantDisk: false},
		{name: "disk flag alone is ignored", method: GET(WithoutDiskCache()), wantMemory: false, wantDisk: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, tiers := newTestClient(t, Config{})
			ctx := context.Background()
			route := testRoute{base: origin.URL(), path: "/flags", method: tt.method}

			if _, err := c.Request(ctx, route); err != nil {
				t.Fatalf("Request failed: %v", err)
			}

			key := origin.URL() + "/flags"
			_, memErr := tiers.memory.Get(ctx, key)
			_, diskErr := tiers.disk.Get(ctx, key)
			if (memErr == nil) != tt.wantMemory {
				t.Errorf("memory cached = %v, want %v", memErr == nil, tt.wantMemory)
			}
			if (diskErr == nil) != tt.wantDisk {
				t.Errorf("disk cached = %v, want %v", diskErr == nil, tt.wantDisk)
			}
		})
	}
}

func TestRequest_BadResponse(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()
	origin.SetResponse("/missing", testutil.NewNotFoundResponse())

	c, _ := newTestClient(t, Config{})
	_, err := c.Request(context.Background(), testRoute{base: origin.URL(), path: "/missing", method: GET()})

	if !errors.Is(err, ErrBadResponse) {
		t.Fatalf("Expected ErrBadResponse, got %v", err)
	}
	var respErr *ResponseError
	if !errors.As(err, &respErr) {
		t.Fatalf("Expected *ResponseError, got %T", err)
	}
	if respErr.StatusCode != http.StatusNotFound || respErr.ErrorClass != ErrorClassClient {
		t.Errorf("ResponseError = %+v", respErr)
	}
	if !strings.Contains(string(respErr.Body), "Not found") {
		t.Errorf("Body = %s", respErr.Body)
	}
}

func TestRequest_NotModifiedWithoutCacheIsBadResponse(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()
	origin.SetResponse("/r", testutil.MockResponse{StatusCode: http.StatusNotModified})

	c, _ := newTestClient(t, Config{})
	_, err := c.Request(context.Background(), testRoute{base: origin.URL(), path: "/r", method: GET(WithETag())})

	var respErr *ResponseError
	if !errors.As(err, &respErr) || respErr.StatusCode != http.StatusNotModified {
		t.Errorf("Expected 304 ResponseError, got %v", err)
	}
}

func TestRequest_RetryBound(t *testing.T) {
	const retries = 3

	var calls atomic.Int32
	var lastErr atomic.Value
	transport := doerFunc(func(req *http.Request) (*http.Response, error) {
		n := calls.Add(1)
		err := fmt.Errorf("connection refused (attempt %d)", n)
		lastErr.Store(err)
		return nil, err
	})

	c, _ := newTestClient(t, Config{Transport: transport, Retrier: MaxRetries(retries)})
	route := testRoute{base: "https://origin.test", path: "/r", method: GET()}

	_, err := c.Request(context.Background(), route)
	if err == nil {
		t.Fatal("Expected error")
	}

	if got := calls.Load(); got != retries+1 {
		t.Errorf("transmissions = %d, want %d", got, retries+1)
	}
	if !errors.Is(err, lastErr.Load().(error)) {
		t.Errorf("propagated error %v is not the last attempt's error", err)
	}
	var transportErr *TransportError
	if !errors.As(err, &transportErr) || !errors.Is(err, ErrTransport) {
		t.Errorf("Expected *TransportError, got %T", err)
	}
	if got := c.Attempts(route); got != retries {
		t.Errorf("Attempts = %d, want %d", got, retries)
	}

	c.ResetAttempts(route)
	if got := c.Attempts(route); got != 0 {
		t.Errorf("Attempts after reset = %d, want 0", got)
	}
}

func TestRequest_RetryThenSuccess(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()
	origin.SetResource("/r", `"e"`, "ok")
	origin.FailNext(2, http.StatusInternalServerError)

	c, _ := newTestClient(t, Config{Retrier: MaxRetries(5)})
	data, err := c.Request(context.Background(), testRoute{base: origin.URL(), path: "/r", method: GET(WithETag())})
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if string(data) != "ok" {
		t.Errorf("data = %s", data)
	}
	if origin.RequestCount() != 3 {
		t.Errorf("RequestCount = %d, want 3", origin.RequestCount())
	}
}

func TestRequest_RetrierSeesAttemptCount(t *testing.T) {
	var seen []int
	retrier := RetrierFunc(func(_ context.Context, _ Route, err error, attempt int) bool {
		seen = append(seen, attempt)
		return attempt < 2
	})
	transport := doerFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("down")
	})

	c, _ := newTestClient(t, Config{Transport: transport, Retrier: retrier})
	c.Request(context.Background(), testRoute{base: "https://origin.test", method: GET()})

	if fmt.Sprint(seen) != "[0 1 2]" {
		t.Errorf("attempt counts = %v, want [0 1 2]", seen)
	}
}

func TestRequest_InterceptorError(t *testing.T) {
	cause := errors.New("token expired")
	doer := &countingDoer{inner: doerFunc(func(*http.Request) (*http.Response, error) {
		t.Error("transport must not be called")
		return nil, errors.New("unreachable")
	})}

	var retrierErr error
	retrier := RetrierFunc(func(_ context.Context, _ Route, err error, _ int) bool {
		retrierErr = err
		return false
	})

	c, _ := newTestClient(t, Config{
		Transport: doer,
		Retrier:   retrier,
		Interceptor: InterceptorFunc(func(*http.Request) (*http.Request, error) {
			return nil, cause
		}),
	})

	_, err := c.Request(context.Background(), testRoute{base: "https://origin.test", method: GET()})

	var icErr *InterceptorError
	if !errors.As(err, &icErr) {
		t.Fatalf("Expected *InterceptorError, got %T: %v", err, err)
	}
	if !errors.Is(err, cause) || !errors.Is(err, ErrInterceptor) {
		t.Errorf("error chain broken: %v", err)
	}
	if retrierErr == nil || !errors.Is(retrierErr, ErrInterceptor) {
		t.Errorf("interceptor failure must reach the retrier, got %v", retrierErr)
	}
	if ClassifyError(err) != ErrorClassInterceptor {
		t.Errorf("class = %s", ClassifyError(err))
	}
}

func TestRequest_InterceptorRunsPerAttemptAfterHeaders(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()
	origin.SetResource("/r", `"v"`, "ok")

	var calls atomic.Int32
	var sawValidator atomic.Bool
	interceptor := InterceptorFunc(func(req *http.Request) (*http.Request, error) {
		calls.Add(1)
		if req.Header.Get("If-None-Match") == `"v"` {
			sawValidator.Store(true)
		}
		req.Header.Set("Authorization", "Bearer test")
		return req, nil
	})

	c, _ := newTestClient(t, Config{Interceptor: interceptor, Retrier: MaxRetries(1)})
	route := testRoute{base: origin.URL(), path: "/r", method: GET(WithETag())}
	ctx := context.Background()

	if _, err := c.Request(ctx, route); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	origin.FailNext(1, http.StatusServiceUnavailable)
	if _, err := c.Request(ctx, route); err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	if calls.Load() != 3 {
		t.Errorf("interceptor calls = %d, want 3", calls.Load())
	}
	if !sawValidator.Load() {
		t.Error("interceptor must see the conditional header")
	}
	if got := origin.LastRequestHeader().Get("Authorization"); got != "Bearer test" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestRequest_LookupFailureTolerated(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()

	c, tiers := newTestClient(t, Config{})
	tiers.memory.getErr = errors.New("memory tier unavailable")

	data, err := c.Request(context.Background(), testRoute{base: origin.URL(), path: "/x", method: GET(WithETag())})
	if err != nil {
		t.Fatalf("lookup failure must not abort the request: %v", err)
	}
	if string(data) != `{"status": "ok"}` {
		t.Errorf("data = %s", data)
	}
}

func TestRequest_WriteBackFailureTolerated(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()

	c, tiers := newTestClient(t, Config{})
	tiers.memory.saveErr = errors.New("memory full")
	tiers.disk.saveErr = errors.New("disk full")

	data, err := c.Request(context.Background(), testRoute{base: origin.URL(), path: "/x", method: GET(WithETag())})
	if err != nil {
		t.Fatalf("write-back failure must not fail the request: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected response data")
	}
	if tiers.memory.saves.Load() != 1 || tiers.disk.saves.Load() != 1 {
		t.Errorf("both tiers should be attempted: memory=%d disk=%d", tiers.memory.saves.Load(), tiers.disk.saves.Load())
	}
}

func TestRequest_CancelledContextNotRetried(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var retried atomic.Bool
	retrier := RetrierFunc(func(context.Context, Route, error, int) bool {
		retried.Store(true)
		return true
	})

	origin := testutil.NewMockOrigin()
	defer origin.Close()

	c, _ := newTestClient(t, Config{Retrier: retrier})
	_, err := c.Request(ctx, testRoute{base: origin.URL(), method: GET()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if retried.Load() {
		t.Error("cancelled request must not be retried")
	}
}

func TestRequest_UserAgentSet(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()

	c, _ := newTestClient(t, Config{UserAgent: "TestApp/1.0.0 (test@example.com)"})
	if _, err := c.Request(context.Background(), testRoute{base: origin.URL(), method: GET()}); err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	header := origin.LastRequestHeader()
	if got := header.Get("User-Agent"); got != "TestApp/1.0.0 (test@example.com)" {
		t.Errorf("User-Agent = %q", got)
	}
	if got := header.Get("Accept"); got != "application/json" {
		t.Errorf("route header Accept = %q", got)
	}
}

func TestRequest_Monitor(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()

	monitor := &recordingMonitor{}
	c, _ := newTestClient(t, Config{Monitor: monitor})
	if _, err := c.Request(context.Background(), testRoute{base: origin.URL(), path: "/m", method: GET()}); err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	if len(monitor.started) != 1 || len(monitor.finished) != 1 {
		t.Fatalf("monitor calls: started=%d finished=%d", len(monitor.started), len(monitor.finished))
	}
	if monitor.finished[0] != http.StatusOK {
		t.Errorf("finished status = %d", monitor.finished[0])
	}
	if got := monitor.started[0].URL.Path; got != "/m" {
		t.Errorf("started path = %q", got)
	}
}

func TestRequest_NoResponse(t *testing.T) {
	transport := doerFunc(func(*http.Request) (*http.Response, error) { return nil, nil })
	c, _ := newTestClient(t, Config{Transport: transport})

	_, err := c.Request(context.Background(), testRoute{base: "https://origin.test", method: GET()})
	if !errors.Is(err, ErrNoResponse) {
		t.Errorf("Expected ErrNoResponse, got %v", err)
	}
}

func TestRequest_InvalidURL(t *testing.T) {
	doer := &countingDoer{inner: doerFunc(func(*http.Request) (*http.Response, error) { return nil, nil })}
	c, _ := newTestClient(t, Config{Transport: doer})

	for _, base := range []string{"", "relative/path", "://bad"} {
		_, err := c.Request(context.Background(), testRoute{base: base, method: GET()})
		if !errors.Is(err, ErrInvalidURL) {
			t.Errorf("base %q: expected ErrInvalidURL, got %v", base, err)
		}
	}
	if doer.calls.Load() != 0 {
		t.Error("transport must not be called")
	}
}

func TestRequest_CacheOnly(t *testing.T) {
	doer := &countingDoer{inner: doerFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("unreachable")
	})}
	c, _ := newTestClient(t, Config{Transport: doer})
	ctx := context.Background()
	route := testRoute{base: "https://origin.test", path: "/c", method: GET(WithETag())}

	_, err := c.RequestWithMode(ctx, route, CacheOnly)
	if !errors.Is(err, cache.ErrCacheMiss) || !IsCacheMiss(err) {
		t.Fatalf("Expected cache miss, got %v", err)
	}

	if err := c.Cache().Save(ctx, "https://origin.test/c", cache.NewEntry([]byte("cached"), `"e"`), false); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	data, err := c.RequestWithMode(ctx, route, CacheOnly)
	if err != nil {
		t.Fatalf("CacheOnly failed: %v", err)
	}
	if string(data) != "cached" {
		t.Errorf("data = %s", data)
	}
	if doer.calls.Load() != 0 {
		t.Errorf("CacheOnly made %d transport calls", doer.calls.Load())
	}
}

func TestRequest_CacheOnlyReadsDisk(t *testing.T) {
	c, tiers := newTestClient(t, Config{})
	ctx := context.Background()
	route := testRoute{base: "https://origin.test", path: "/d", method: GET(WithETag())}

	if err := tiers.disk.Save(ctx, "https://origin.test/d", cache.NewEntry([]byte("from disk"), "")); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	data, err := c.RequestWithMode(ctx, route, CacheOnly)
	if err != nil {
		t.Fatalf("CacheOnly failed: %v", err)
	}
	if string(data) != "from disk" {
		t.Errorf("data = %s", data)
	}

	memoryOnly := testRoute{base: "https://origin.test", path: "/d", method: GET(WithETag(), WithoutDiskCache())}
	if _, err := c.RequestWithMode(ctx, memoryOnly, CacheOnly); err != nil {
		t.Errorf("entry should have been promoted to memory: %v", err)
	}
}

func TestRequest_Stub(t *testing.T) {
	doer := &countingDoer{inner: doerFunc(func(*http.Request) (*http.Response, error) { return nil, nil })}
	c, _ := newTestClient(t, Config{Transport: doer})
	route := testRoute{base: "https://origin.test", method: GET(), sample: `{"stub": true}`}

	data, err := c.RequestWithMode(context.Background(), route, Stub)
	if err != nil {
		t.Fatalf("Stub failed: %v", err)
	}
	if string(data) != `{"stub": true}` {
		t.Errorf("data = %s", data)
	}
	if doer.calls.Load() != 0 {
		t.Error("stub must not transmit")
	}
}

func TestRequest_DefaultModeStub(t *testing.T) {
	c, _ := newTestClient(t, Config{DefaultMode: Stub})
	data, err := c.Request(context.Background(), testRoute{sample: "sample"})
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if string(data) != "sample" {
		t.Errorf("data = %s", data)
	}
}

func TestRequest_DelayedStub(t *testing.T) {
	c, _ := newTestClient(t, Config{})
	route := testRoute{sample: "late"}
	delay := 50 * time.Millisecond

	start := time.Now()
	data, err := c.RequestWithMode(context.Background(), route, DelayedStub(delay))
	if err != nil {
		t.Fatalf("DelayedStub failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < delay {
		t.Errorf("returned after %v, want >= %v", elapsed, delay)
	}
	if string(data) != "late" {
		t.Errorf("data = %s", data)
	}
}

func TestRequest_DelayedStubCancelled(t *testing.T) {
	c, _ := newTestClient(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	data, err := c.RequestWithMode(ctx, testRoute{sample: "late"}, DelayedStub(5*time.Second))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if data != nil {
		t.Errorf("cancelled stub returned data %q", data)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("cancellation did not abort the wait")
	}
}

func TestStub_UnsupportedRequestType(t *testing.T) {
	c, _ := newTestClient(t, Config{})
	_, err := c.stub(context.Background(), testRoute{}, CacheOnly)
	if !errors.Is(err, ErrUnsupportedRequestType) {
		t.Errorf("Expected ErrUnsupportedRequestType, got %v", err)
	}
}

func TestClearAll(t *testing.T) {
	c, tiers := newTestClient(t, Config{})
	ctx := context.Background()

	if err := c.Cache().Save(ctx, "https://origin.test/a", cache.NewEntry([]byte("a"), `"a"`), true); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := c.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	for _, tier := range []cache.Tier{tiers.memory, tiers.disk} {
		if _, err := tier.Get(ctx, "https://origin.test/a"); !errors.Is(err, cache.ErrCacheMiss) {
			t.Errorf("%s not cleared: %v", tier.Name(), err)
		}
	}
}

func TestRequest_ConcurrentRoutes(t *testing.T) {
	origin := testutil.NewMockOrigin()
	defer origin.Close()

	c, _ := newTestClient(t, Config{Retrier: MaxRetries(1)})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			route := testRoute{base: origin.URL(), path: fmt.Sprintf("/items/%d", i%5), method: GET(WithETag())}
			if _, err := c.Request(ctx, route); err != nil {
				t.Errorf("request %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if origin.RequestCount() != 20 {
		t.Errorf("RequestCount = %d, want 20", origin.RequestCount())
	}
}
