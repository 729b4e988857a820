package cache

import (
	"net/http"
	"strings"
)

// Header names of the conditional request protocol.
const (
	HeaderIfNoneMatch = "If-None-Match"
	HeaderETag        = "Etag"
)

// ShouldMakeConditionalRequest reports whether entry can be revalidated.
func ShouldMakeConditionalRequest(entry *Entry) bool {
	return entry.HasValidator()
}

// AddConditionalHeaders sets If-None-Match from the entry's validator.
// It is a no-op when the entry has no validator.
func AddConditionalHeaders(req *http.Request, entry *Entry) {
	if req == nil || !entry.HasValidator() {
		return
	}
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	req.Header.Set(HeaderIfNoneMatch, entry.ETag)
}

// ValidatorFromHeader extracts the ETag from response headers.
// Header names are matched case-insensitively, including maps that were
// populated without canonicalization. An absent header yields "".
func ValidatorFromHeader(h http.Header) string {
	if v := h.Get(HeaderETag); v != "" {
		return v
	}
	for name, values := range h {
		if strings.EqualFold(name, HeaderETag) && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}
