package mockapi

import (
	"log/slog"
	"net/http"

	"schoolpay/internal/auth"
	"schoolpay/internal/rbac"
	"schoolpay/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the demo API routes. Keep this free of business logic.
func NewRouter(h *Handlers, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	bearer := auth.RequireAccessToken(h.Auth, h.Now)

	// AUTH routes (token issuance)
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/change-password", bearer, h.ChangePassword)
	}

	// protected directory
	api := r.Group("/")
	api.Use(bearer)
	{
		api.GET("/me", h.Me)

		api.GET("/schools", rbac.RequireAnyPermission(rbac.SchoolsView), list(h, h.Directory.ListSchools))
		api.GET("/schools/:id", rbac.RequireAnyPermission(rbac.SchoolsView, rbac.SchoolView), h.SchoolDetail)
		api.GET("/students", rbac.RequireAnyPermission(rbac.StudentViewAll, rbac.StudentView, rbac.StudentViewBySchool), list(h, h.Directory.ListStudents))
		api.GET("/vendors", rbac.RequireAnyPermission(rbac.VendorManage), list(h, h.Directory.ListVendors))
		api.GET("/pos-devices", rbac.RequireAnyPermission(rbac.POSViews, rbac.POSView), list(h, h.Directory.ListPOSDevices))
		api.GET("/wristbands", rbac.RequireAnyPermission(rbac.WristbandsView, rbac.WristbandView), list(h, h.Directory.ListWristbands))
		api.GET("/parents", rbac.RequireAnyPermission(rbac.ParentManage), list(h, h.Directory.ListParents))
		api.GET("/users", rbac.RequireAnyPermission(rbac.UsersView, rbac.UserView), list(h, func(q ListQuery) Page[User] {
			return ListUsers(h.Accounts.Users(), q)
		}))
	}

	return r
}
