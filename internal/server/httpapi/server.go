// Package httpapi is the HTTP routing layer: request gating through the
// configured auth strategy, the session login/logout endpoints and the
// account flows backed by IdentityService.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/auth"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
)

const shutdownTimeout = 5 * time.Second

// IdentityService is what the handlers need from services.IdentityService.
type IdentityService interface {
	RegisterIdentity(ctx context.Context, email, password string) (*models.Identity, error)
	FindIdentity(ctx context.Context, email string) (*models.Identity, bool)
	VerifyLogin(ctx context.Context, email, password string) bool
	CreateSession(ctx context.Context, email string) (string, bool)
	ResolveSessionSubject(ctx context.Context, sessionID string) (*models.Identity, bool)
	DestroySession(ctx context.Context, subjectID string) error
	IssueResetToken(ctx context.Context, email string) (string, error)
	RedeemResetToken(ctx context.Context, token, newPassword string) error
}

// Options configures an HTTPServer. A nil Strategy turns request gating off.
type Options struct {
	Address       string
	Strategy      auth.Strategy
	Identities    IdentityService
	ExcludedPaths []string
	CookieName    string
	Logger        logging.Logger
	Registry      *prometheus.Registry
}

type HTTPServer struct {
	address    string
	strategy   auth.Strategy
	identities IdentityService
	excluded   []string
	cookieName string
	logger     logging.Logger
	metrics    *metrics
	engine     *gin.Engine
	handler    http.Handler
}

func NewHTTPServer(o Options) *HTTPServer {
	if o.Logger == nil {
		o.Logger = logging.Nop{}
	}
	if o.Registry == nil {
		o.Registry = prometheus.NewRegistry()
	}
	if o.CookieName == "" {
		o.CookieName = auth.NewNoAuth("").CookieName()
	}

	s := &HTTPServer{
		address:    o.Address,
		strategy:   o.Strategy,
		identities: o.Identities,
		excluded:   o.ExcludedPaths,
		cookieName: o.CookieName,
		logger:     o.Logger.With("module", "http_server"),
		metrics:    newMetrics(o.Registry),
	}
	s.engine = s.routes(promhttp.HandlerFor(o.Registry, promhttp.HandlerOpts{}))
	s.handler = trimTrailingSlash(s.engine)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

func (s *HTTPServer) routes(metricsHandler http.Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.RedirectTrailingSlash = false
	r.Use(gin.Recovery(), s.requestLogger(), s.gate())

	r.NoRoute(func(c *gin.Context) { abortWithStatus(c, http.StatusNotFound) })
	r.GET("/metrics", gin.WrapH(metricsHandler))

	v1 := r.Group(apiPrefix)
	v1.GET("/status", s.status)
	v1.GET("/unauthorized", func(c *gin.Context) { abortWithStatus(c, http.StatusUnauthorized) })
	v1.GET("/forbidden", func(c *gin.Context) { abortWithStatus(c, http.StatusForbidden) })
	v1.GET("/users/me", s.me)
	if ss, ok := s.strategy.(auth.SessionStrategy); ok {
		v1.POST("/auth_session/login", s.sessionLogin(ss))
		v1.DELETE("/auth_session/logout", s.sessionLogout(ss))
	}

	r.GET("/", s.index)
	r.POST("/users", s.registerUser)
	r.POST("/sessions", s.login)
	r.DELETE("/sessions", s.logout)
	r.GET("/profile", s.profile)
	r.POST("/reset_password", s.resetPasswordToken)
	r.PUT("/reset_password", s.updatePassword)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: s.handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
