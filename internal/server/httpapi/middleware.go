package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/gatekeeper/internal/server/auth"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
)

const (
	apiPrefix   = "/api/v1"
	identityKey = "current_identity"
)

// gate authenticates every request under /api/v1 that is not excluded.
// No credentials at all is 401; credentials that resolve nobody is 403.
func (s *HTTPServer) gate() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if s.strategy == nil || !strings.HasPrefix(path, apiPrefix) {
			c.Next()
			return
		}

		r := auth.HTTPRequest{R: c.Request}
		if !s.strategy.RequireAuth(path, s.excluded) {
			s.metrics.decision(outcomeSkipped)
			c.Next()
			return
		}

		_, hasHeader := s.strategy.AuthorizationHeader(r)
		_, hasCookie := s.strategy.SessionCookie(r)
		if !hasHeader && !hasCookie {
			s.metrics.decision(outcomeUnauthorized)
			abortWithStatus(c, http.StatusUnauthorized)
			return
		}

		identity, ok := s.strategy.CurrentUser(c.Request.Context(), r)
		if !ok {
			s.metrics.decision(outcomeForbidden)
			abortWithStatus(c, http.StatusForbidden)
			return
		}

		s.metrics.decision(outcomeAllowed)
		c.Set(identityKey, identity)
		c.Next()
	}
}

// trimTrailingSlash serves "/users/" as "/users" in place of a redirect.
func trimTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := r.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
			u := *r.URL
			u.Path = strings.TrimSuffix(p, "/")
			u.RawPath = ""
			r2 := r.Clone(r.Context())
			r2.URL = &u
			r = r2
		}
		next.ServeHTTP(w, r)
	})
}

func currentIdentity(c *gin.Context) (*models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*models.Identity)
	return identity, ok && identity != nil
}

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.request(c.Request.Method, route, status)

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		switch {
		case status >= http.StatusInternalServerError:
			s.logger.Error(c.Request.Context(), "request", args...)
		case status >= http.StatusBadRequest:
			s.logger.Warn(c.Request.Context(), "request", args...)
		default:
			s.logger.Debug(c.Request.Context(), "request", args...)
		}
	}
}
