package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"catalog-service/internal/audit"
	"catalog-service/internal/auth"
	"catalog-service/internal/domain"
	"catalog-service/internal/metrics"
	"catalog-service/internal/repository"
	"catalog-service/internal/service"
)

// TokenVerifier validates bearer access tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Config wires HTTP routes to services.
type Config struct {
	Auth     service.AuthService
	Admin    service.UserAdminService
	Catalog  service.CatalogService
	Tokens   TokenVerifier
	Trail    *audit.Trail
	Archiver *audit.Archiver
	Metrics  *metrics.Metrics
	Logger   logrus.FieldLogger
	// AuthPerMinute and AuthBurst bound requests per client to the credential endpoints.
	AuthPerMinute int
	AuthBurst     int
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth     service.AuthService
	admin    service.UserAdminService
	catalog  service.CatalogService
	tokens   TokenVerifier
	trail    *audit.Trail
	archiver *audit.Archiver
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
	limiter  *clientLimiter
}

func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	if cfg.AuthPerMinute <= 0 {
		cfg.AuthPerMinute = 30
	}
	if cfg.AuthBurst <= 0 {
		cfg.AuthBurst = 10
	}
	return &Handler{
		auth:     cfg.Auth,
		admin:    cfg.Admin,
		catalog:  cfg.Catalog,
		tokens:   cfg.Tokens,
		trail:    cfg.Trail,
		archiver: cfg.Archiver,
		metrics:  cfg.Metrics,
		log:      cfg.Logger.WithField("component", "http"),
		limiter:  newClientLimiter(rate.Limit(float64(cfg.AuthPerMinute)/60), cfg.AuthBurst),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(), h.observe())

	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		authRoutes := api.Group("/auth")
		authRoutes.POST("/register", h.rateLimit(), h.register)
		authRoutes.POST("/login", h.rateLimit(), h.login)
		authRoutes.POST("/refresh", h.rateLimit(), h.refresh)
		authRoutes.POST("/logout", h.rateLimit(), h.logout)
		authRoutes.GET("/me", h.requireAuth(), h.me)
		authRoutes.POST("/password", h.rateLimit(), h.requireAuth(), h.changePassword)

		api.GET("/categories", h.listCategories)
		api.GET("/categories/:id", h.getCategory)
		api.GET("/products", h.listProducts)
		api.GET("/products/:id", h.getProduct)

		writes := api.Group("", h.requireAuth())
		writes.POST("/categories", h.createCategory)
		writes.PUT("/categories/:id", h.updateCategory)
		writes.DELETE("/categories/:id", h.deleteCategory)
		writes.POST("/products", h.createProduct)
		writes.PUT("/products/:id", h.updateProduct)
		writes.DELETE("/products/:id", h.deleteProduct)

		admin := api.Group("/admin", h.requireAuth(), requireAdmin())
		admin.GET("/users", h.listUsers)
		admin.GET("/users/:id", h.getUser)
		admin.PUT("/users/:id/role", h.changeRole)
		admin.POST("/users/:id/deactivate", h.deactivateUser)
		admin.POST("/users/:id/activate", h.activateUser)
		admin.GET("/audit", h.recentAudit)
		admin.GET("/audit/users/:id", h.userAudit)
		admin.POST("/audit/archive", h.archiveAudit)
		admin.GET("/audit/archives", h.listArchives)
		admin.GET("/audit/archives/url", h.archiveURL)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// writeError translates service failures into status codes. Internal errors
// are logged and replaced with a generic message.
func (h *Handler) writeError(c *gin.Context, err error) {
	var weak *auth.WeakPasswordError
	switch {
	case errors.As(err, &weak):
		c.JSON(http.StatusBadRequest, gin.H{"error": "weak password", "reasons": weak.Reasons})
	case errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrInvalidCatalogItem),
		errors.Is(err, audit.ErrArchiveKeyOutsidePrefix):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUserAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": service.ErrUserAlreadyExists.Error()})
	case errors.Is(err, repository.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrInvalidCredentials.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, audit.ErrArchiveDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"route":  c.FullPath(),
		}).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// intQuery reads an optional integer query parameter; absent yields 0.
func intQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func pageQuery(c *gin.Context) (int, int, bool) {
	page, ok := intQuery(c, "page")
	if !ok {
		return 0, 0, false
	}
	size, ok := intQuery(c, "size")
	if !ok {
		return 0, 0, false
	}
	return page, size, true
}
