package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrInvalidURL is returned when a route does not resolve to an absolute URL.
	ErrInvalidURL = errors.New("invalid url")

	// ErrRequestBuild is returned when the route's task cannot be encoded.
	ErrRequestBuild = errors.New("request build failed")

	// ErrInterceptor is matched by every *InterceptorError.
	ErrInterceptor = errors.New("interceptor failed")

	// ErrTransport is matched by every *TransportError.
	ErrTransport = errors.New("transport failed")

	// ErrNoResponse is returned when the transport yields neither a response nor an error.
	ErrNoResponse = errors.New("no response")

	// ErrBadResponse is matched by every *ResponseError.
	ErrBadResponse = errors.New("bad response")

	// ErrUnsupportedRequestType is returned when a request type is used on a
	// path that cannot serve it.
	ErrUnsupportedRequestType = errors.New("unsupported request type")
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors (and other unexpected statuses).
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 Too Many Requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassInterceptor represents request interceptor failures.
	ErrorClassInterceptor ErrorClass = "interceptor"
)

// InterceptorError wraps the cause returned by an Interceptor.
type InterceptorError struct {
	Err error
}

// Error implements the error interface.
func (e *InterceptorError) Error() string {
	return fmt.Sprintf("%v: %v", ErrInterceptor, e.Err)
}

// Is reports whether target is ErrInterceptor.
func (e *InterceptorError) Is(target error) bool {
	return target == ErrInterceptor
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *InterceptorError) Unwrap() error {
	return e.Err
}

// TransportError wraps a failure of the underlying transport. Response is set
// when the transport received one before failing (e.g. a broken body).
type TransportError struct {
	Err      error
	Response *http.Response
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Response != nil {
		return fmt.Sprintf("%v (status %d): %v", ErrTransport, e.Response.StatusCode, e.Err)
	}
	return fmt.Sprintf("%v: %v", ErrTransport, e.Err)
}

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ResponseError is returned for a status outside [200,300) that is not a
// usable 304.
type ResponseError struct {
	StatusCode int
	ErrorClass ErrorClass
	Status     string
	Body       []byte
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	return fmt.Sprintf("%v: %s error (status %d): %s",
		ErrBadResponse, e.ErrorClass, e.StatusCode, e.Status)
}

// Is reports whether target is ErrBadResponse.
func (e *ResponseError) Is(target error) bool {
	return target == ErrBadResponse
}

// ClassifyError categorizes a request failure for observability and retry
// decisions. It returns "" for nil.
func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ""
	}

	var respErr *ResponseError
	if errors.As(err, &respErr) {
		if respErr.ErrorClass != "" {
			return respErr.ErrorClass
		}
		return classifyStatus(respErr.StatusCode)
	}

	if errors.Is(err, ErrInterceptor) {
		return ErrorClassInterceptor
	}

	return ErrorClassNetwork
}

func classifyStatus(code int) ErrorClass {
	switch {
	case code == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case code >= 500:
		return ErrorClassServer
	default:
		return ErrorClassClient
	}
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassClient:
		// 4xx errors will fail the same way again
		return false
	case ErrorClassServer:
		return true
	case ErrorClassRateLimit:
		return true
	case ErrorClassNetwork:
		return true
	default:
		return false
	}
}
