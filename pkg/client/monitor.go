package client

import (
	"net/http"

	"github.com/rs/zerolog"
)

// EventMonitor observes every transmission. RequestStarted is called with the
// final request right before the transport runs; RequestFinished right after,
// with whatever response, body and error the attempt produced.
type EventMonitor interface {
	RequestStarted(req *http.Request)
	RequestFinished(req *http.Request, resp *http.Response, body []byte, err error)
}

type nopMonitor struct{}

func (nopMonitor) RequestStarted(*http.Request)                                 {}
func (nopMonitor) RequestFinished(*http.Request, *http.Response, []byte, error) {}

// LogMonitor logs transmissions at debug level.
type LogMonitor struct {
	logger zerolog.Logger
}

// NewLogMonitor creates a monitor writing to logger.
func NewLogMonitor(logger zerolog.Logger) *LogMonitor {
	return &LogMonitor{logger: logger}
}

// RequestStarted implements EventMonitor.
func (m *LogMonitor) RequestStarted(req *http.Request) {
	m.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("etag", req.Header.Get("If-None-Match")).
		Msg("Request started")
}

// RequestFinished implements EventMonitor.
func (m *LogMonitor) RequestFinished(req *http.Request, resp *http.Response, body []byte, err error) {
	event := m.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("bytes", len(body))
	if resp != nil {
		event = event.Int("status", resp.StatusCode)
	}
	if err != nil {
		event = event.Err(err)
	}
	event.Msg("Request finished")
}

type multiMonitor []EventMonitor

// MultiMonitor fans every event out to monitors in order. Nil entries are skipped.
func MultiMonitor(monitors ...EventMonitor) EventMonitor {
	var m multiMonitor
	for _, monitor := range monitors {
		if monitor != nil {
			m = append(m, monitor)
		}
	}
	return m
}

func (m multiMonitor) RequestStarted(req *http.Request) {
	for _, monitor := range m {
		monitor.RequestStarted(req)
	}
}

func (m multiMonitor) RequestFinished(req *http.Request, resp *http.Response, body []byte, err error) {
	for _, monitor := range m {
		monitor.RequestFinished(req, resp, body, err)
	}
}
