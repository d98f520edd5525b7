package rbac

import (
	"net/http"

	"schoolpay/internal/auth"

	"github.com/gin-gonic/gin"
)

// GrantsFromContext builds the caller's grants from the identity injected by auth.RequireAccessToken.
// Tokens outside the catalog are ignored.
func GrantsFromContext(c *gin.Context) Grants {
	raw := auth.Permissions(c.Request.Context())
	g := make(Grants, len(raw))
	for _, s := range raw {
		if p := Permission(s); p.Valid() {
			g[p] = struct{}{}
		}
	}
	return g
}

// RequireAnyPermission allows access if the caller holds at least one of the listed permissions.
// An empty list means no restriction. User type never bypasses the check.
func RequireAnyPermission(required ...Permission) gin.HandlerFunc {
	return requirePermissions(required, false)
}

// RequireAllPermissions allows access only if the caller holds every listed permission.
func RequireAllPermissions(required ...Permission) gin.HandlerFunc {
	return requirePermissions(required, true)
}

func requirePermissions(required []Permission, all bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := auth.UserID(c.Request.Context()); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "identity required"})
			return
		}
		if len(required) == 0 {
			c.Next()
			return
		}

		g := GrantsFromContext(c)
		ok := g.HasAny(required...)
		if all {
			ok = g.HasAll(required...)
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "forbidden"})
			return
		}
		c.Next()
	}
}
