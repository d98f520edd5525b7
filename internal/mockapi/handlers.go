package mockapi

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"schoolpay/internal/auth"
	"schoolpay/internal/rbac"
	"schoolpay/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups the demo API handlers for dependency injection.
// Keep these thin: parse input, call the stores, return JSON.
type Handlers struct {
	Auth      *auth.Manager
	Accounts  *Accounts
	Directory *Directory
	Now       func() time.Time

	used refreshLedger
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// --- Auth ---

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type accessToken struct {
	Token       string    `json:"token"`
	TokenType   string    `json:"tokenType"`
	CreatedDate time.Time `json:"createdDate"`
	ExpiresOn   time.Time `json:"expiresOn"`
}

type loginResponse struct {
	AccessToken    accessToken `json:"accessToken"`
	RefreshToken   string      `json:"refreshToken"`
	FirstTimeLogin bool        `json:"firstTimeLogin"`
	User           User        `json:"user"`
}

// Login checks credentials and issues a token pair.
// Disabled accounts get their profile back without credentials.
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "email and password required"})
		return
	}

	u, firstTime, err := h.Accounts.Authenticate(req.Email, req.Password)
	if err != nil {
		logger.FromGin(c).Info("login rejected", "reason", "invalid_credentials")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid email or password"})
		return
	}
	if !u.LoginEnabled {
		logger.FromGin(c).Info("login rejected", "reason", "disabled", "user_id", u.ID)
		c.JSON(http.StatusOK, loginResponse{User: u})
		return
	}

	now := h.now()
	pair, err := h.Auth.IssuePair(now, subjectOf(u))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "token issuance failed"})
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		AccessToken: accessToken{
			Token:       pair.AccessToken,
			TokenType:   "Bearer",
			CreatedDate: now.UTC(),
			ExpiresOn:   pair.AccessExpiresAt.UTC(),
		},
		RefreshToken:   pair.RefreshToken,
		FirstTimeLogin: firstTime,
		User:           u,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Refresh exchanges a refresh token for a new pair. Each refresh token is accepted once.
func (h *Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "refreshToken required"})
		return
	}

	now := h.now()
	claims, err := h.Auth.Verify(req.RefreshToken, auth.TokenTypeRefresh, now)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid refresh token"})
		return
	}
	if !h.used.consume(claims.ID, claims.ExpiresAt.Time, now) {
		logger.FromGin(c).Warn("refresh token replayed", "user_id", claims.UserID)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "refresh token already used"})
		return
	}

	u, err := h.accountOf(claims.UserID)
	if err != nil || !u.LoginEnabled {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "account unavailable"})
		return
	}

	pair, err := h.Auth.IssuePair(now, subjectOf(u))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": pair.AccessToken, "refreshToken": pair.RefreshToken})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,nefield=CurrentPassword"`
}

func (h *Handlers) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"message": "new password must be at least 6 characters and differ from the current one"})
		return
	}
	uid, err := h.callerID(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "identity required"})
		return
	}

	switch err := h.Accounts.ChangePassword(uid, req.CurrentPassword, req.NewPassword); {
	case errors.Is(err, ErrIncorrectPassword):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "current password is incorrect"})
	case errors.Is(err, ErrAccountNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "account not found"})
	case err != nil:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "password change failed"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "password changed"})
	}
}

func (h *Handlers) Me(c *gin.Context) {
	uid, err := h.callerID(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "identity required"})
		return
	}
	u, err := h.Accounts.ByID(uid)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "account not found"})
		return
	}
	c.JSON(http.StatusOK, u)
}

// --- Directory ---

// list binds the table filters, pins school-bound callers to their own school and renders a page.
func list[T any](h *Handlers, render func(ListQuery) Page[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q ListQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid filters"})
			return
		}
		if school, ok := h.schoolScope(c); ok {
			q.SchoolID = &school
		}
		c.JSON(http.StatusOK, render(q))
	}
}

func (h *Handlers) SchoolDetail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid school id"})
		return
	}
	if school, ok := h.schoolScope(c); ok && school != id {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "forbidden"})
		return
	}
	s, ok := h.Directory.School(id)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "school not found"})
		return
	}
	c.JSON(http.StatusOK, s)
}

// schoolScope returns the caller's school when the caller is bound to one.
// Super admins are never scoped.
func (h *Handlers) schoolScope(c *gin.Context) (int64, bool) {
	uid, err := h.callerID(c)
	if err != nil {
		return 0, false
	}
	u, err := h.Accounts.ByID(uid)
	if err != nil || u.UserType == rbac.SuperAdmin || u.SchoolID == nil {
		return 0, false
	}
	return *u.SchoolID, true
}

func (h *Handlers) callerID(c *gin.Context) (int64, error) {
	raw, err := auth.UserID(c.Request.Context())
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (h *Handlers) accountOf(rawID string) (User, error) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return User{}, ErrAccountNotFound
	}
	return h.Accounts.ByID(id)
}

func subjectOf(u User) auth.Subject {
	return auth.Subject{
		UserID:      strconv.FormatInt(u.ID, 10),
		UserType:    string(u.UserType),
		Permissions: rbac.Strings(u.Permissions),
	}
}

// refreshLedger remembers consumed refresh token ids until they expire.
type refreshLedger struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

// consume marks id as used and reports whether it was unused.
func (l *refreshLedger) consume(id string, expires, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen == nil {
		l.seen = map[string]time.Time{}
	}
	for k, exp := range l.seen {
		if now.After(exp) {
			delete(l.seen, k)
		}
	}
	if _, ok := l.seen[id]; ok {
		return false
	}
	l.seen[id] = expires
	return true
}
