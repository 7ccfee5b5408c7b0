package throttle

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter decides whether a request is subject to throttling. A filter
// matches when Method is empty or equals the request method, and the URL
// matches either Prefix (string prefix) or Pattern (match anchored at the
// start of the URL). Pattern takes precedence when both are set.
type Filter struct {
	Method  string
	Prefix  string
	Pattern *regexp.Regexp
}

// httpMethods is the set of methods the filter engine recognizes.
var httpMethods = map[string]struct{}{
	"GET":     {},
	"POST":    {},
	"PUT":     {},
	"DELETE":  {},
	"HEAD":    {},
	"OPTIONS": {},
	"TRACE":   {},
	"CONNECT": {},
	"PATCH":   {},
}

// IsHTTPMethod reports whether method is a recognized HTTP method.
func IsHTTPMethod(method string) bool {
	_, ok := httpMethods[method]
	return ok
}

// AddFilter appends a filter rule. Rules are evaluated in insertion
// order; the first match wins.
func (s *Session) AddFilter(f Filter) error {
	if f.Method != "" && !IsHTTPMethod(f.Method) {
		return fmt.Errorf("throttle: not a valid HTTP method: %q", f.Method)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = append(s.filters, f)
	return nil
}

// IsLimited reports whether a request with the given method and URL is
// subject to throttling.
func (s *Session) IsLimited(method, url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isLimitedLocked(method, url)
}

// isLimitedLocked implements the filter contract. An unrecognized method
// is logged and treated as throttled rather than silently exempted.
// Callers must hold s.mu.
func (s *Session) isLimitedLocked(method, url string) bool {
	if s.rateLimit == 0 {
		return false
	}

	if !IsHTTPMethod(method) {
		s.logger.Errorf("throttle: not a valid HTTP method: %q", method)
		return true
	}

	for _, f := range s.filters {
		if f.Method != "" && f.Method != method {
			continue
		}
		if f.Pattern != nil {
			if loc := f.Pattern.FindStringIndex(url); loc != nil && loc[0] == 0 {
				return s.limitFiltered
			}
			continue
		}
		if strings.HasPrefix(url, f.Prefix) {
			return s.limitFiltered
		}
	}

	return !s.limitFiltered
}
