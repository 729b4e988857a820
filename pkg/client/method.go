package client

import "net/http"

// Method describes the HTTP method of a route together with its caching flags.
// Only GET routes can be cached.
type Method struct {
	name string
	etag bool
	disk bool
}

// GetOption configures a GET method.
type GetOption func(*Method)

// WithETag enables ETag revalidation and the response cache for a GET route.
func WithETag() GetOption {
	return func(m *Method) { m.etag = true }
}

// WithoutDiskCache keeps cached responses in memory only.
func WithoutDiskCache() GetOption {
	return func(m *Method) { m.disk = false }
}

// GET returns a GET method. Disk caching is on by default but only takes
// effect together with WithETag.
func GET(opts ...GetOption) Method {
	m := Method{name: http.MethodGet, disk: true}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// POST returns a POST method.
func POST() Method { return Method{name: http.MethodPost} }

// PUT returns a PUT method.
func PUT() Method { return Method{name: http.MethodPut} }

// DELETE returns a DELETE method.
func DELETE() Method { return Method{name: http.MethodDelete} }

// Name returns the HTTP method name. The zero Method is a GET.
func (m Method) Name() string {
	if m.name == "" {
		return http.MethodGet
	}
	return m.name
}

// ETagEnabled reports whether responses are cached and revalidated with ETags.
func (m Method) ETagEnabled() bool {
	return m.etag
}

// DiskCacheEnabled reports whether cached responses also go to the durable
// tier. It is always false when ETags are disabled.
func (m Method) DiskCacheEnabled() bool {
	return m.etag && m.disk
}

func (m Method) String() string {
	return m.Name()
}
