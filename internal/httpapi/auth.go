package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"horse.fit/newsdesk/internal/auth"
	"horse.fit/newsdesk/internal/db"
	"horse.fit/newsdesk/internal/globaltime"
)

const defaultSessionTouchInterval = time.Minute

type authPrincipal struct {
	SessionID          string
	UserID             int64
	Username           string
	Role               string
	MustChangePassword bool
	ExpiresAt          time.Time
}

type authUserResponse struct {
	UserID             int64      `json:"user_id"`
	Username           string     `json:"username"`
	Role               string     `json:"role"`
	MustChangePassword bool       `json:"must_change_password"`
	CreatedAt          time.Time  `json:"created_at"`
	LastLoginAt        *time.Time `json:"last_login_at,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Server) requireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, err := s.resolvePrincipal(c)
			if err != nil {
				return err
			}
			if principal == nil {
				return unauthorizedResponse(c)
			}
			c.Set("auth.principal", *principal)
			return next(c)
		}
	}
}

// optionalAuth attaches a principal when a valid session cookie is present
// but lets anonymous requests through.
func (s *Server) optionalAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, err := s.resolvePrincipal(c)
			if err != nil {
				return err
			}
			if principal != nil {
				c.Set("auth.principal", *principal)
			}
			return next(c)
		}
	}
}

func (s *Server) requireRole(minRole string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := principalFromContext(c)
			if !ok {
				return unauthorizedResponse(c)
			}
			if !auth.RoleSatisfies(principal.Role, minRole) {
				return failForbidden(c, fmt.Sprintf("Requires %s role", minRole))
			}
			return next(c)
		}
	}
}

func (s *Server) resolvePrincipal(c echo.Context) (*authPrincipal, error) {
	if c == nil {
		return nil, nil
	}

	sessionID, found := s.sessionIDFromCookie(c)
	if !found {
		return nil, nil
	}

	session, err := s.pool.GetSession(c.Request().Context(), sessionID)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			s.clearSessionCookie(c)
			return nil, nil
		}
		s.logger.Error().Err(err).Msg("session lookup failed")
		return nil, internalError(c, "Failed to authorize request")
	}

	now := globaltime.UTC()
	if !session.ExpiresAt.After(now) {
		_ = s.pool.DeleteSession(c.Request().Context(), session.SessionID)
		s.clearSessionCookie(c)
		return nil, nil
	}

	if now.Sub(session.LastSeenAt) >= defaultSessionTouchInterval {
		_ = s.pool.TouchSession(c.Request().Context(), session.SessionID, now)
	}

	return &authPrincipal{
		SessionID:          session.SessionID,
		UserID:             session.UserID,
		Username:           session.Username,
		Role:               auth.NormalizeRole(session.Role),
		MustChangePassword: session.MustChangePassword,
		ExpiresAt:          session.ExpiresAt.UTC(),
	}, nil
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	username := auth.NormalizeUsername(req.Username)
	password := strings.TrimSpace(req.Password)
	if username == "" || password == "" {
		return failValidation(c, map[string]string{
			"username": "is required",
			"password": "is required",
		})
	}

	user, err := s.pool.GetUserByUsername(c.Request().Context(), username)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return fail(c, http.StatusUnauthorized, "Invalid username or password", nil)
		}
		s.logger.Error().Err(err).Str("username", username).Msg("login lookup failed")
		return internalError(c, "Failed to process login")
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return fail(c, http.StatusUnauthorized, "Invalid username or password", nil)
	}

	now := globaltime.UTC()
	expiresAt := s.sessionExpiry(now)
	sessionID, err := s.pool.CreateSession(c.Request().Context(), user.UserID, expiresAt, now)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.UserID).Msg("create session failed")
		return internalError(c, "Failed to process login")
	}

	if err := s.pool.SetUserLastLogin(c.Request().Context(), user.UserID, now); err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.UserID).Msg("update last login failed")
	}
	nowCopy := now
	user.LastLoginAt = &nowCopy

	s.setSessionCookie(c, sessionID, expiresAt)
	return success(c, map[string]any{
		"user": buildAuthUserResponse(user),
		"session": map[string]any{
			"session_id": sessionID,
			"expires_at": expiresAt.UTC(),
		},
	})
}

func (s *Server) handleLogout(c echo.Context) error {
	if sessionID, found := s.sessionIDFromCookie(c); found {
		_ = s.pool.DeleteSession(c.Request().Context(), sessionID)
	}
	s.clearSessionCookie(c)
	return success(c, map[string]any{"logged_out": true})
}

func (s *Server) handleMe(c echo.Context) error {
	principal, ok := principalFromContext(c)
	if !ok {
		return unauthorizedResponse(c)
	}

	user, err := s.pool.GetUserByID(c.Request().Context(), principal.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return unauthorizedResponse(c)
		}
		s.logger.Error().Err(err).Int64("user_id", principal.UserID).Msg("load me user failed")
		return internalError(c, "Failed to load user")
	}

	return success(c, map[string]any{
		"user": buildAuthUserResponse(user),
	})
}

func (s *Server) handleChangePassword(c echo.Context) error {
	principal, ok := principalFromContext(c)
	if !ok {
		return unauthorizedResponse(c)
	}

	var req changePasswordRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	current := strings.TrimSpace(req.CurrentPassword)
	next := strings.TrimSpace(req.NewPassword)
	if current == "" || next == "" {
		return failValidation(c, map[string]string{
			"current_password": "is required",
			"new_password":     "is required",
		})
	}
	if len(next) < 8 {
		return failValidation(c, map[string]string{"new_password": "must be at least 8 characters"})
	}

	user, err := s.pool.GetUserByID(c.Request().Context(), principal.UserID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", principal.UserID).Msg("load user for password change failed")
		return internalError(c, "Failed to change password")
	}
	if !auth.VerifyPassword(current, user.PasswordHash) {
		return fail(c, http.StatusUnauthorized, "Current password is incorrect", nil)
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		s.logger.Error().Err(err).Msg("hash new password failed")
		return internalError(c, "Failed to change password")
	}
	if err := s.pool.SetUserPasswordHash(c.Request().Context(), principal.UserID, hash, false); err != nil {
		s.logger.Error().Err(err).Int64("user_id", principal.UserID).Msg("store new password failed")
		return internalError(c, "Failed to change password")
	}

	return success(c, map[string]any{"changed": true})
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) handleCreateUser(c echo.Context) error {
	var req createUserRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}

	username := auth.NormalizeUsername(req.Username)
	password := strings.TrimSpace(req.Password)
	role := auth.NormalizeRole(req.Role)
	if role == "" {
		role = auth.RoleAuthor
	}
	fieldErrors := map[string]string{}
	if username == "" {
		fieldErrors["username"] = "is required"
	}
	if len(password) < 8 {
		fieldErrors["password"] = "must be at least 8 characters"
	}
	if strings.TrimSpace(req.Role) != "" && auth.NormalizeRole(req.Role) == "" {
		fieldErrors["role"] = "must be one of admin, editor, author"
	}
	if len(fieldErrors) > 0 {
		return failValidation(c, fieldErrors)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error().Err(err).Msg("hash password failed")
		return internalError(c, "Failed to create user")
	}

	user, err := s.pool.CreateUser(c.Request().Context(), username, hash, role, true)
	if err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("create user failed")
		return internalError(c, "Failed to create user")
	}

	return successWithStatus(c, http.StatusCreated, map[string]any{
		"user": buildAuthUserResponse(user),
	})
}

type setRoleRequest struct {
	Role string `json:"role"`
}

func (s *Server) handleSetUserRole(c echo.Context) error {
	userID, err := parseIDParam(c, "user_id")
	if err != nil {
		return failValidation(c, map[string]string{"user_id": err.Error()})
	}

	var req setRoleRequest
	if err := decodeJSONBody(c, &req); err != nil {
		return failValidation(c, map[string]string{"body": err.Error()})
	}
	if auth.NormalizeRole(req.Role) == "" {
		return failValidation(c, map[string]string{"role": "must be one of admin, editor, author"})
	}

	if err := s.pool.SetUserRole(c.Request().Context(), userID, req.Role); err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "User not found")
		}
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("set user role failed")
		return internalError(c, "Failed to update role")
	}

	user, err := s.pool.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("reload user after role change failed")
		return internalError(c, "Failed to update role")
	}
	return success(c, map[string]any{
		"user": buildAuthUserResponse(user),
	})
}

func (s *Server) sessionExpiry(now time.Time) time.Time {
	return now.Add(s.opts.SessionTTL)
}

func unauthorizedResponse(c echo.Context) error {
	if c == nil {
		return fmt.Errorf("authentication required")
	}
	return fail(c, http.StatusUnauthorized, "Authentication required", nil)
}

func buildAuthUserResponse(row *db.AuthUser) authUserResponse {
	if row == nil {
		return authUserResponse{}
	}
	return authUserResponse{
		UserID:             row.UserID,
		Username:           row.Username,
		Role:               auth.NormalizeRole(row.Role),
		MustChangePassword: row.MustChangePassword,
		CreatedAt:          row.CreatedAt.UTC(),
		LastLoginAt:        row.LastLoginAt,
	}
}

func principalFromContext(c echo.Context) (authPrincipal, bool) {
	if c == nil {
		return authPrincipal{}, false
	}
	value := c.Get("auth.principal")
	principal, ok := value.(authPrincipal)
	if !ok {
		return authPrincipal{}, false
	}
	return principal, true
}

func (s *Server) sessionIDFromCookie(c echo.Context) (string, bool) {
	if c == nil {
		return "", false
	}

	cookie, err := c.Cookie(s.opts.SessionCookie)
	if err != nil || cookie == nil {
		return "", false
	}

	sessionID := strings.TrimSpace(cookie.Value)
	if sessionID == "" {
		return "", false
	}
	return sessionID, true
}

func (s *Server) setSessionCookie(c echo.Context, sessionID string, expiresAt time.Time) {
	if c == nil {
		return
	}

	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}

	c.SetCookie(&http.Cookie{
		Name:     s.opts.SessionCookie,
		Value:    strings.TrimSpace(sessionID),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SessionSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  expiresAt.UTC(),
		MaxAge:   maxAge,
	})
}

func (s *Server) clearSessionCookie(c echo.Context) {
	if c == nil {
		return
	}

	c.SetCookie(&http.Cookie{
		Name:     s.opts.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SessionSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  globaltime.UTC().Add(-1 * time.Hour),
	})
}
