package client

import (
	"fmt"
	"strings"
	"time"
)

type requestKind int

const (
	kindRemote requestKind = iota
	kindCacheOnly
	kindStub
	kindDelayedStub
)

// RequestType selects how a request is served. The zero value is Remote.
type RequestType struct {
	kind  requestKind
	delay time.Duration
}

var (
	// Remote sends the request over the transport, revalidating cached
	// responses when the route enables ETags.
	Remote = RequestType{kind: kindRemote}

	// CacheOnly serves the cached response without any network call.
	CacheOnly = RequestType{kind: kindCacheOnly}

	// Stub returns the route's SampleData immediately.
	Stub = RequestType{kind: kindStub}
)

// DelayedStub returns the route's SampleData after d. Negative durations are
// treated as zero.
func DelayedStub(d time.Duration) RequestType {
	if d < 0 {
		d = 0
	}
	return RequestType{kind: kindDelayedStub, delay: d}
}

// Delay returns the delay of a DelayedStub request type.
func (t RequestType) Delay() time.Duration {
	return t.delay
}

func (t RequestType) String() string {
	switch t.kind {
	case kindRemote:
		return "remote"
	case kindCacheOnly:
		return "cache_only"
	case kindStub:
		return "stub"
	case kindDelayedStub:
		return "delayed_stub"
	default:
		return fmt.Sprintf("unknown(%d)", int(t.kind))
	}
}

// ParseRequestType parses "remote", "cache_only", "stub" or
// "delayed_stub:<duration>" (e.g. "delayed_stub:250ms").
func ParseRequestType(s string) (RequestType, error) {
	switch s {
	case "", "remote":
		return Remote, nil
	case "cache_only":
		return CacheOnly, nil
	case "stub":
		return Stub, nil
	}

	if rest, ok := strings.CutPrefix(s, "delayed_stub:"); ok {
		d, err := time.ParseDuration(rest)
		if err != nil {
			return RequestType{}, fmt.Errorf("%w: %q: %v", ErrUnsupportedRequestType, s, err)
		}
		return DelayedStub(d), nil
	}

	return RequestType{}, fmt.Errorf("%w: %q", ErrUnsupportedRequestType, s)
}
