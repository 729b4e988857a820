package main

import (
	"net/url"

	"github.com/Sternrassler/routecache/pkg/client"
)

var stubBody = []byte(`{"stub": true}`)

// proxyRoute is one upstream GET. The query is kept raw so the route stays
// comparable; Task re-encodes it, which sorts the keys into a stable cache key.
type proxyRoute struct {
	base     string
	path     string
	rawQuery string
	accept   string
	method   client.Method
}

func (r proxyRoute) BaseURL() string       { return r.base }
func (r proxyRoute) Path() string          { return r.path }
func (r proxyRoute) Method() client.Method { return r.method }
func (r proxyRoute) SampleData() []byte    { return stubBody }

func (r proxyRoute) Task() client.Task {
	if r.rawQuery == "" {
		return client.PlainTask{}
	}
	values, err := url.ParseQuery(r.rawQuery)
	if err != nil {
		return client.PlainTask{}
	}
	params := make(map[string]any, len(values))
	for key, vs := range values {
		params[key] = vs
	}
	return client.ParametersTask{Params: params, Placement: client.PlacementQuery}
}

func (r proxyRoute) Headers() map[string]string {
	if r.accept == "" {
		return nil
	}
	return map[string]string{"Accept": r.accept}
}
