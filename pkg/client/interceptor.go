package client

import (
	"errors"
	"net/http"
)

// Interceptor mutates a request immediately before it is transmitted. It runs
// once per attempt, after the body and headers are built. Returning an error
// aborts the attempt with an *InterceptorError.
type Interceptor interface {
	Intercept(req *http.Request) (*http.Request, error)
}

// InterceptorFunc adapts a function to Interceptor.
type InterceptorFunc func(req *http.Request) (*http.Request, error)

// Intercept implements Interceptor.
func (f InterceptorFunc) Intercept(req *http.Request) (*http.Request, error) {
	return f(req)
}

// NopInterceptor passes requests through unchanged.
type NopInterceptor struct{}

// Intercept implements Interceptor.
func (NopInterceptor) Intercept(req *http.Request) (*http.Request, error) {
	return req, nil
}

var errNilRequest = errors.New("interceptor returned nil request")

// ChainInterceptors applies interceptors in order. The first failure stops
// the chain. Nil entries are skipped.
func ChainInterceptors(interceptors ...Interceptor) Interceptor {
	return InterceptorFunc(func(req *http.Request) (*http.Request, error) {
		for _, ic := range interceptors {
			if ic == nil {
				continue
			}
			next, err := ic.Intercept(req)
			if err != nil {
				return nil, err
			}
			if next == nil {
				return nil, errNilRequest
			}
			req = next
		}
		return req, nil
	})
}

// HeaderInterceptor sets fixed headers on every request, e.g. an API token.
func HeaderInterceptor(headers map[string]string) Interceptor {
	return InterceptorFunc(func(req *http.Request) (*http.Request, error) {
		for key, value := range headers {
			req.Header.Set(key, value)
		}
		return req, nil
	})
}
