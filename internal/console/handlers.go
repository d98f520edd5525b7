// Package console serves the admin console: sign-in, the forced password change,
// the guarded pages and their data, proxied from the school payments API.
package console

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"schoolpay/internal/account"
	"schoolpay/internal/apiclient"
	"schoolpay/internal/audit"
	"schoolpay/internal/guard"
	"schoolpay/internal/session"
	"schoolpay/pkg/logger"

	"github.com/gin-gonic/gin"
)

// filterKeys are the table filters forwarded to list endpoints.
var filterKeys = []string{"search", "status", "schoolId", "page", "limit"}

const recentActivity = 10

// Session is the read side of the session manager.
type Session interface {
	State() session.State
}

// API is the part of *apiclient.Client the pages use.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
}

// Activity lists recent session events for the dashboard.
type Activity interface {
	Recent(ctx context.Context, n int) ([]audit.Event, error)
}

// Handlers groups console handlers for dependency injection.
// Keep these thin: parse input, call the flows, return JSON or a redirect.
type Handlers struct {
	Session  Session
	Guard    *guard.Guard
	Accounts *account.Service
	API      API
	Activity Activity
}

type profile struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	UserType   string `json:"userType"`
	SchoolID   *int64 `json:"schoolId,omitempty"`
	SchoolName string `json:"schoolName,omitempty"`
}

func profileOf(u *session.User) *profile {
	if u == nil {
		return nil
	}
	p := &profile{ID: u.ID, Name: u.DisplayName(), Email: u.Email, UserType: string(u.UserType)}
	if id, name, ok := u.HomeSchool(); ok {
		p.SchoolID, p.SchoolName = &id, name
	}
	return p
}

// --- Sign-in ---

func (h *Handlers) LoginPage(c *gin.Context) {
	st := h.Session.State()
	if st.IsAuthenticated() {
		c.Redirect(http.StatusFound, guard.DecideHome(st, h.Guard.Paths()).Location)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"page": "login",
		"from": guard.SafeReturn(c.Query(guard.FromParam), ""),
	})
}

type loginForm struct {
	account.LoginRequest
	From string `json:"from" form:"from"`
}

func (h *Handlers) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	if form.From == "" {
		form.From = c.Query(guard.FromParam)
	}

	res, err := h.Accounts.Login(c.Request.Context(), form.LoginRequest)
	var verr *account.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid input", "fields": verr.Fields})
		return
	case errors.Is(err, account.ErrInvalidCredentials):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	case errors.Is(err, account.ErrLoginDisabled):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "login is disabled for this account"})
		return
	case err != nil:
		logger.FromGin(c).Error("login failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "sign-in is unavailable"})
		return
	}

	paths := h.Guard.Paths()
	if res.MustChangePassword {
		c.Redirect(http.StatusSeeOther, paths.ChangePassword)
		return
	}
	c.Redirect(http.StatusSeeOther, guard.SafeReturn(form.From, paths.Home))
}

func (h *Handlers) Unauthorized(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{
		"page":    "unauthorized",
		"message": "You don't have permission to access this page.",
	})
}

// --- Password change ---

func (h *Handlers) ChangePasswordPage(c *gin.Context) {
	st := h.Session.State()
	c.JSON(http.StatusOK, gin.H{
		"page":     "change-password",
		"required": st.MustChangePassword,
		"user":     profileOf(st.User),
	})
}

func (h *Handlers) ChangePassword(c *gin.Context) {
	var req account.ChangePasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	err := h.Accounts.ChangePassword(c.Request.Context(), req)
	var verr *account.ValidationError
	switch {
	case err == nil:
		c.Redirect(http.StatusSeeOther, h.Guard.Paths().Home)
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid input", "fields": verr.Fields})
	case errors.Is(err, account.ErrIncorrectPassword):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "current password is incorrect"})
	case errors.Is(err, account.ErrNotSignedIn), errors.Is(err, apiclient.ErrSessionEnded):
		c.Redirect(http.StatusSeeOther, h.Guard.Paths().Login)
	default:
		logger.FromGin(c).Error("password change failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "password change is unavailable"})
	}
}

func (h *Handlers) Logout(c *gin.Context) {
	h.Accounts.Logout(c.Request.Context())
	c.Redirect(http.StatusSeeOther, h.Guard.Paths().Login)
}

// --- Pages ---

func (h *Handlers) Dashboard(c *gin.Context) {
	st := h.Session.State()
	body := gin.H{
		"page":       "dashboard",
		"user":       profileOf(st.User),
		"navigation": VisibleNavigation(Navigation(), st),
	}
	if h.Activity != nil {
		evs, err := h.Activity.Recent(c.Request.Context(), recentActivity)
		if err != nil {
			logger.FromGin(c).Warn("recent activity unavailable", "err", err)
		}
		body["recentActivity"] = evs
	}
	c.JSON(http.StatusOK, body)
}

// page renders p; list pages carry one page of API data filtered by the request query.
func (h *Handlers) page(p Page) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := h.Session.State()
		body := gin.H{
			"page":       p.Title,
			"path":       p.Path,
			"user":       profileOf(st.User),
			"navigation": VisibleNavigation(Navigation(), st),
		}
		if p.List != "" {
			q := filters(c)
			var data json.RawMessage
			if err := h.API.Get(c.Request.Context(), p.List, q, &data); err != nil {
				h.apiError(c, err)
				return
			}
			body["filters"] = q
			body["data"] = data
		}
		c.JSON(http.StatusOK, body)
	}
}

func (h *Handlers) SchoolDetail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "school not found"})
		return
	}

	var school json.RawMessage
	if err := h.API.Get(c.Request.Context(), "/schools/"+strconv.FormatInt(id, 10), nil, &school); err != nil {
		h.apiError(c, err)
		return
	}
	st := h.Session.State()
	c.JSON(http.StatusOK, gin.H{
		"page":       "School Detail",
		"user":       profileOf(st.User),
		"navigation": VisibleNavigation(Navigation(), st),
		"school":     school,
	})
}

// apiError maps an API failure to the console response.
// An ended session sends the operator to sign in again, back to this page afterwards.
func (h *Handlers) apiError(c *gin.Context, err error) {
	var se *apiclient.StatusError
	switch {
	case errors.Is(err, apiclient.ErrSessionEnded):
		c.Redirect(http.StatusFound, guard.LoginLocation(h.Guard.Paths().Login, c.Request.URL.RequestURI()))
		c.Abort()
	case errors.As(err, &se):
		msg := se.Message
		if msg == "" {
			msg = http.StatusText(se.StatusCode)
		}
		c.AbortWithStatusJSON(se.StatusCode, gin.H{"error": msg})
	default:
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "school payments API unavailable"})
	}
}

func filters(c *gin.Context) url.Values {
	q := url.Values{}
	for _, k := range filterKeys {
		if v := c.Query(k); v != "" {
			q.Set(k, v)
		}
	}
	return q
}
