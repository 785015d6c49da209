package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dentavia/case-api/pkg/metrics"

	"github.com/dentavia/case-api/internal/handler"
	authhandler "github.com/dentavia/case-api/internal/handler/auth"
	caseshandler "github.com/dentavia/case-api/internal/handler/cases"
	"github.com/dentavia/case-api/internal/middleware"
	"github.com/dentavia/case-api/internal/model"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// Config tunes the HTTP surface; zero values fall back to sane defaults in
// NewRouter.
type Config struct {
	RateLimitRPS    float64
	RateLimitBurst  int
	IntakeLimit     int
	IntakeWindow    time.Duration
	RequestTimeout  time.Duration
	CORS            middleware.CORSConfig
	MetricsRegistry prometheus.Gatherer
}

// Router wires middleware and the four caller surfaces: public intake, staff
// CRM, doctor workspace and the patient portal.
type Router struct {
	engine  *gin.Engine
	auth    *middleware.AuthMiddleware
	intakeH Handler
	casesH  *caseshandler.Handler
	doctorH Handler
	portalH Handler
	authH   *authhandler.Handler
	healthH *handler.HealthHandler
	metrics *metrics.Metrics
	config  Config
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	intakeH Handler,
	casesH *caseshandler.Handler,
	doctorH Handler,
	portalH Handler,
	authH *authhandler.Handler,
	healthH *handler.HealthHandler,
	m *metrics.Metrics,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	middleware.RegisterValidators()

	if config.RateLimitRPS <= 0 {
		config.RateLimitRPS = 50
	}
	if config.RateLimitBurst <= 0 {
		config.RateLimitBurst = 100
	}
	if config.IntakeLimit <= 0 {
		config.IntakeLimit = 10
	}
	if config.IntakeWindow <= 0 {
		config.IntakeWindow = time.Minute
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 30 * time.Second
	}

	engine := gin.New()

	r := &Router{
		engine:  engine,
		auth:    auth,
		intakeH: intakeH,
		casesH:  casesH,
		doctorH: doctorH,
		portalH: portalH,
		authH:   authH,
		healthH: healthH,
		metrics: m,
		config:  config,
	}

	engine.Use(
		gin.Recovery(),
		middleware.Logger(),
		middleware.RequestID(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.RequestTimeout}),
		middleware.CORS(config.CORS),
	)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RPS:   config.RateLimitRPS,
		Burst: config.RateLimitBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/health", r.healthH.Health)
	if r.config.MetricsRegistry != nil {
		r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.config.MetricsRegistry, promhttp.HandlerOpts{})))
	}

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.setupPublicRoutes(api)
	r.setupStaffRoutes(api)
	r.setupDoctorRoutes(api)
	r.setupPortalRoutes(api)
}

// setupPublicRoutes registers unauthenticated routes. Intake carries its own
// per-IP window on top of the global limiter.
func (r *Router) setupPublicRoutes(rg *gin.RouterGroup) {
	r.authH.RegisterRoutes(rg)

	public := rg.Group("")
	intakeLimiter := middleware.NewSlidingWindowLimiter(r.config.IntakeLimit, r.config.IntakeWindow)
	public.Use(intakeLimiter.RateLimit())
	r.intakeH.RegisterRoutes(public)
}

func (r *Router) setupStaffRoutes(rg *gin.RouterGroup) {
	staff := rg.Group("")
	staff.Use(
		r.auth.Authenticate(),
		r.auth.RequireRole(model.RoleAdmin, model.RoleEmployee),
	)
	r.casesH.RegisterRoutes(staff)
	r.authH.RegisterStaffRoutes(staff)
}

func (r *Router) setupDoctorRoutes(rg *gin.RouterGroup) {
	doctor := rg.Group("/doctor")
	doctor.Use(
		r.auth.Authenticate(),
		r.auth.RequireRole(model.RoleDoctor),
	)
	r.doctorH.RegisterRoutes(doctor)
}

func (r *Router) setupPortalRoutes(rg *gin.RouterGroup) {
	portal := rg.Group("/portal")
	portal.Use(
		r.auth.Authenticate(),
		r.auth.RequireRole(model.RolePatient),
	)
	r.portalH.RegisterRoutes(portal)
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.metrics == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		r.metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
		r.metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		if c.Writer.Status() >= 400 {
			r.metrics.HTTPErrorsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		}
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
