package auth

import "net/http"

// Request is the slice of an inbound HTTP request the strategies look at.
type Request interface {
	// Header returns the first value of the named header and whether the
	// header was sent at all.
	Header(name string) (string, bool)
	Cookie(name string) (string, bool)
	Path() string
}

// HTTPRequest adapts *http.Request (and so gin's c.Request) to Request.
// A nil R behaves like a request with no headers, cookies or path.
type HTTPRequest struct {
	R *http.Request
}

func (h HTTPRequest) Header(name string) (string, bool) {
	if h.R == nil {
		return "", false
	}
	values := h.R.Header.Values(name)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func (h HTTPRequest) Cookie(name string) (string, bool) {
	if h.R == nil {
		return "", false
	}
	c, err := h.R.Cookie(name)
	if err != nil {
		return "", false
	}
	return c.Value, true
}

func (h HTTPRequest) Path() string {
	if h.R == nil || h.R.URL == nil {
		return ""
	}
	return h.R.URL.Path
}
