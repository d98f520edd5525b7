package console

import (
	"log/slog"
	"net/http"

	"schoolpay/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the console routes. Keep this free of business logic.
//
// Route classes:
//   - public: sign-in, unauthorized, health, metrics
//   - signed in only: password change and sign-out, reachable while a change is pending
//   - guarded: every page, through guard.Require with the page requirement
func NewRouter(h *Handlers, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/login", h.LoginPage)
	r.POST("/login", h.Login)
	r.GET("/unauthorized", h.Unauthorized)

	r.GET("/", h.Guard.Home())

	signedIn := r.Group("/")
	signedIn.Use(h.Guard.Authenticated())
	{
		signedIn.GET("/change-password", h.ChangePasswordPage)
		signedIn.POST("/change-password", h.ChangePassword)
		signedIn.POST("/logout", h.Logout)
	}

	r.GET(h.Guard.Paths().Home, h.Guard.Require(dashboardRequirement), h.Dashboard)
	r.GET("/schools/:id", h.Guard.Require(schoolDetailRequirement), h.SchoolDetail)
	for _, p := range Pages() {
		r.GET(p.Path, h.Guard.Require(p.Requirement), h.page(p))
	}

	return r
}
