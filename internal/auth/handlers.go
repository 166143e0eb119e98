package auth

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/catalog/internal/access"
	"github.com/mrlokans/catalog/internal/entities"
)

// AuthEventLogger receives login, logout and token events.
type AuthEventLogger interface {
	LogAuth(userID uint, action string, ipAddr string, success bool)
}

// AuthController serves the JSON login, setup and token endpoints.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	limiter        *LoginLimiter
	events         AuthEventLogger

	setupMu sync.Mutex
}

func NewAuthController(service *Service, sessionManager *SessionManager, limiter *LoginLimiter, events AuthEventLogger) *AuthController {
	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		limiter:        limiter,
		events:         events,
	}
}

// RegisterRoutes mounts the endpoints under /api/auth. Role changes are
// admin only.
func (ac *AuthController) RegisterRoutes(router gin.IRouter, m *Middleware) {
	g := router.Group("/api/auth")
	g.GET("/csrf", ac.CSRF)
	g.GET("/setup", ac.SetupStatus)
	g.POST("/setup", ac.Setup)
	g.POST("/login", ac.Login)
	g.POST("/logout", ac.Logout)
	g.GET("/me", m.RequireAuth(), ac.Me)
	g.POST("/token", m.RequireAuth(), ac.GenerateToken)
	g.DELETE("/token", m.RequireAuth(), ac.RevokeToken)

	router.PUT("/api/users/:id/role", m.RequireRole(entities.UserRoleAdmin), ac.SetRole)
}

type loginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type setupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type roleRequest struct {
	Role entities.UserRole `json:"role" binding:"required"`
}

type userView struct {
	ID           uint                `json:"id"`
	Username     string              `json:"username"`
	Email        string              `json:"email,omitempty"`
	Role         entities.UserRole   `json:"role"`
	Capabilities []access.Capability `json:"capabilities"`
	AuthType     AuthType            `json:"auth_type,omitempty"`
}

func newUserView(user *entities.User) userView {
	caps := access.Capabilities(user)
	if caps == nil {
		caps = []access.Capability{}
	}
	return userView{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Role:         user.Role,
		Capabilities: caps,
	}
}

// CSRF hands out the token that cookie clients echo in X-CSRF-Token.
func (ac *AuthController) CSRF(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"csrf_token": CSRFToken(c), "header": CSRFTokenHeader})
}

func (ac *AuthController) SetupStatus(c *gin.Context) {
	hasUsers, err := ac.service.HasUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"setup_required": !hasUsers, "auth_enabled": ac.service.IsAuthEnabled()})
}

// Setup creates the first admin account. It is refused once any user exists.
func (ac *AuthController) Setup(c *gin.Context) {
	ac.setupMu.Lock()
	defer ac.setupMu.Unlock()

	ctx := c.Request.Context()
	hasUsers, err := ac.service.HasUsers(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check users"})
		return
	}
	if hasUsers {
		c.JSON(http.StatusConflict, gin.H{"error": "setup already completed"})
		return
	}

	var req setupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, email and password are required"})
		return
	}

	user, err := ac.service.CreateUser(ctx, NewUser{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     entities.UserRoleAdmin,
	})
	if err != nil {
		if isAccountInputError(err) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	if ac.sessionManager != nil {
		_ = ac.sessionManager.CreateSession(ctx, user)
	}
	c.JSON(http.StatusCreated, newUserView(user))
}

func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	clientIP := c.ClientIP()
	if ac.limiter != nil {
		if ok, retryAfter := ac.limiter.Allow(clientIP, req.Username); !ok {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts, try again later"})
			return
		}
	}

	ctx := c.Request.Context()
	user, err := ac.service.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if ac.limiter != nil {
			ac.limiter.RecordFailure(clientIP, req.Username)
		}
		ac.logEvent(0, "login", clientIP, false)
		if errors.Is(err, ErrAccountLocked) {
			c.JSON(http.StatusForbidden, gin.H{"error": "account is locked, try again later"})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}

	if ac.limiter != nil {
		ac.limiter.RecordSuccess(clientIP, req.Username)
	}
	if ac.sessionManager != nil {
		if err := ac.sessionManager.CreateSession(ctx, user); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
			return
		}
	}
	ac.logEvent(user.ID, "login", clientIP, true)
	c.JSON(http.StatusOK, newUserView(user))
}

func (ac *AuthController) Logout(c *gin.Context) {
	userID := CurrentUserID(c)
	if ac.sessionManager != nil {
		_ = ac.sessionManager.DestroySession(c.Request.Context())
	}
	ac.logEvent(userID, "logout", c.ClientIP(), true)
	c.Status(http.StatusNoContent)
}

func (ac *AuthController) Me(c *gin.Context) {
	view := newUserView(CurrentUser(c))
	view.AuthType = GetAuthType(c)
	c.JSON(http.StatusOK, view)
}

// GenerateToken returns a new bearer token; it is shown only once.
func (ac *AuthController) GenerateToken(c *gin.Context) {
	userID := CurrentUserID(c)
	if userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tokens require a stored account"})
		return
	}
	token, err := ac.service.GenerateToken(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	ac.logEvent(userID, "token_generate", c.ClientIP(), true)
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (ac *AuthController) RevokeToken(c *gin.Context) {
	userID := CurrentUserID(c)
	if userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tokens require a stored account"})
		return
	}
	if err := ac.service.RevokeToken(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	ac.logEvent(userID, "token_revoke", c.ClientIP(), true)
	c.Status(http.StatusNoContent)
}

// SetRole grants or withdraws the librarian role.
func (ac *AuthController) SetRole(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role is required"})
		return
	}

	user, err := ac.service.SetRole(c.Request.Context(), uint(id), req.Role)
	switch {
	case errors.Is(err, ErrInvalidRole):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update role"})
	default:
		c.JSON(http.StatusOK, newUserView(user))
	}
}

func (ac *AuthController) logEvent(userID uint, action, ip string, success bool) {
	if ac.events != nil {
		ac.events.LogAuth(userID, action, ip, success)
	}
}

func isAccountInputError(err error) bool {
	for _, target := range []error{
		ErrUsernameRequired, ErrUsernameInvalid,
		ErrEmailRequired, ErrEmailInvalid,
		ErrPasswordRequired, ErrPasswordTooShort, ErrPasswordTooLong,
		ErrInvalidRole, ErrUserExists,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
