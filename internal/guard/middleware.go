package guard

import (
	"net/http"

	"schoolpay/internal/session"
	"schoolpay/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Source provides the session state the guard evaluates. *session.Manager satisfies it.
type Source interface {
	State() session.State
}

// Guard binds Decide to a session source and a set of redirect paths.
type Guard struct {
	src   Source
	paths Paths
}

func New(src Source, paths Paths) *Guard {
	return &Guard{src: src, paths: paths}
}

func (g *Guard) Paths() Paths { return g.paths }

// Decide evaluates the guard against the current session.
func (g *Guard) Decide(target string, req Requirement) Decision {
	return Decide(g.src.State(), target, req, g.paths)
}

// Require is gin middleware enforcing req. Redirects abort the chain with 302 Found.
func (g *Guard) Require(req Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := g.Decide(c.Request.URL.RequestURI(), req)
		if d.Outcome == Render {
			c.Next()
			return
		}

		logger.From(c.Request.Context()).Debug("route guarded",
			"path", c.Request.URL.Path,
			"outcome", d.Outcome.String(),
			"location", d.Location,
		)
		c.Redirect(http.StatusFound, d.Location)
		c.Abort()
	}
}

// Authenticated only checks for a signed-in session. It protects the routes that must stay
// reachable while a password change is pending: the change itself and logout.
func (g *Guard) Authenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.src.State().IsAuthenticated() {
			c.Next()
			return
		}
		c.Redirect(http.StatusFound, LoginLocation(g.paths.Login, c.Request.URL.RequestURI()))
		c.Abort()
	}
}

// Home handles the root route.
func (g *Guard) Home() gin.HandlerFunc {
	return func(c *gin.Context) {
		d := DecideHome(g.src.State(), g.paths)
		c.Redirect(http.StatusFound, d.Location)
	}
}
