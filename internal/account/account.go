// Package account implements the operator flows that change who is signed in:
// signing in, the forced password change, and signing out.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"schoolpay/internal/apiclient"
	"schoolpay/internal/audit"
	"schoolpay/internal/session"
	"schoolpay/pkg/logger"
)

var (
	ErrInvalidInput       = errors.New("account: invalid input")
	ErrInvalidCredentials = errors.New("account: invalid email or password")
	ErrLoginDisabled      = errors.New("account: login is disabled for this account")
	ErrNotSignedIn        = errors.New("account: not signed in")
	ErrIncorrectPassword  = errors.New("account: current password is incorrect")
)

const (
	loginPath          = "/auth/login"
	changePasswordPath = "/auth/change-password"
)

// API is the part of *apiclient.Client the flows use.
type API interface {
	Do(ctx context.Context, method, path string, body, out any) error
	DoPublic(ctx context.Context, method, path string, body, out any) error
}

// Session is the part of *session.Manager the flows use.
type Session interface {
	Establish(u session.User, access, refresh string, mustChangePassword bool)
	SetMustChangePassword(flag bool)
	Logout()
	State() session.State
}

type Service struct {
	api   API
	sess  Session
	audit *audit.Service
}

// NewService wires the flows. auditSvc may be nil.
func NewService(api API, sess Session, auditSvc *audit.Service) *Service {
	return &Service{api: api, sess: sess, audit: auditSvc}
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

// AccessToken is the access credential as issued by the login endpoint.
type AccessToken struct {
	Token       string    `json:"token"`
	TokenType   string    `json:"tokenType"`
	CreatedDate time.Time `json:"createdDate"`
	ExpiresOn   time.Time `json:"expiresOn"`
}

// LoginResponse is the wire shape of POST /auth/login.
type LoginResponse struct {
	AccessToken    AccessToken  `json:"accessToken"`
	RefreshToken   string       `json:"refreshToken"`
	FirstTimeLogin bool         `json:"firstTimeLogin"`
	User           session.User `json:"user"`
}

// LoginResult is what the console needs to route the operator after signing in.
type LoginResult struct {
	User               session.User
	MustChangePassword bool
}

// Login authenticates against the API and establishes the session.
// Nothing is stored unless every check passes.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	if err := check(req); err != nil {
		return LoginResult{}, err
	}

	var resp LoginResponse
	err := s.api.DoPublic(ctx, http.MethodPost, loginPath, req, &resp)
	if err != nil {
		if code, ok := apiclient.StatusCode(err); ok && (code == http.StatusUnauthorized || code == http.StatusBadRequest) {
			return LoginResult{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
		return LoginResult{}, fmt.Errorf("account: login: %w", err)
	}

	if err := resp.User.Validate(); err != nil {
		return LoginResult{}, fmt.Errorf("account: login response user: %w", err)
	}
	if !resp.User.LoginEnabled {
		return LoginResult{}, ErrLoginDisabled
	}
	if resp.AccessToken.Token == "" || resp.RefreshToken == "" {
		return LoginResult{}, errors.New("account: login response missing credentials")
	}

	s.sess.Establish(resp.User, resp.AccessToken.Token, resp.RefreshToken, resp.FirstTimeLogin)
	logger.From(ctx).Info("operator signed in",
		"user_id", resp.User.ID, "user_type", resp.User.UserType, "must_change_password", resp.FirstTimeLogin)
	s.audit.LogLogin(ctx, userID(resp.User), string(resp.User.UserType), resp.FirstTimeLogin)

	return LoginResult{User: resp.User, MustChangePassword: resp.FirstTimeLogin}, nil
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" form:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" form:"newPassword" validate:"required,min=6,notblank,nefield=CurrentPassword"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// ChangePassword updates the operator's password and lifts the forced-change flag.
// A *apiclient.SessionEndedError from the API call is returned unchanged.
func (s *Service) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	st := s.sess.State()
	if !st.IsAuthenticated() {
		return ErrNotSignedIn
	}
	if err := check(req); err != nil {
		return err
	}

	body := map[string]string{"currentPassword": req.CurrentPassword, "newPassword": req.NewPassword}
	if err := s.api.Do(ctx, http.MethodPost, changePasswordPath, body, nil); err != nil {
		if errors.Is(err, apiclient.ErrSessionEnded) {
			return err
		}
		if code, ok := apiclient.StatusCode(err); ok && code == http.StatusBadRequest {
			return fmt.Errorf("%w: %v", ErrIncorrectPassword, err)
		}
		return fmt.Errorf("account: change password: %w", err)
	}

	s.sess.SetMustChangePassword(false)
	logger.From(ctx).Info("operator changed password", "user_id", st.User.ID)
	s.audit.LogPasswordChanged(ctx, userID(*st.User), string(st.User.UserType))
	return nil
}

// Logout signs the operator out. It is safe to call when nobody is signed in.
func (s *Service) Logout(ctx context.Context) {
	st := s.sess.State()
	s.sess.Logout()
	if st.User == nil {
		return
	}
	logger.From(ctx).Info("operator signed out", "user_id", st.User.ID)
	s.audit.LogLogout(ctx, userID(*st.User), string(st.User.UserType))
}

func userID(u session.User) string {
	return strconv.FormatInt(u.ID, 10)
}
