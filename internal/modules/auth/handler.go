package auth

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/velasier/paperbase/internal/middleware"
	"github.com/velasier/paperbase/internal/pkg/response"
	sessionpkg "github.com/velasier/paperbase/internal/pkg/session"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type settingsRequest struct {
	APIKey string `json:"api_key"`
}

// Handler exposes authentication and account-settings endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an auth handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts auth and user routes under rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth, optionalAuth gin.HandlerFunc) {
	g := rg.Group("/auth")
	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/logout", auth, h.logout)
	g.GET("/status", optionalAuth, h.status)

	u := rg.Group("/user", auth)
	u.GET("/settings", h.getSettings)
	u.POST("/settings", h.updateSettings)
	u.DELETE("", h.deleteAccount)
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	user, err := h.svc.Register(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, ErrUsernameTaken) || errors.Is(err, ErrMissingFields) {
		response.BadRequest(c, err.Error())
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, gin.H{"username": user.Username})
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	token, user, err := h.svc.Login(c.Request.Context(), req.Username, req.Password, c.ClientIP(), c.Request.UserAgent())
	if errors.Is(err, ErrInvalidCredentials) {
		response.UnauthorizedMsg(c, err.Error())
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}

	c.SetCookie(middleware.AuthCookieName, token, int(sessionpkg.DefaultTTL.Seconds()), "/", "", false, true)
	response.OK(c, gin.H{"token": token, "username": user.Username})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), middleware.CurrentUserID(c), middleware.CurrentSessionID(c)); err != nil {
		response.InternalError(c, err)
		return
	}
	c.SetCookie(middleware.AuthCookieName, "", -1, "/", "", false, true)
	response.OK(c, gin.H{"logged_out": true})
}

func (h *Handler) status(c *gin.Context) {
	if !middleware.IsAuthenticated(c) {
		response.OK(c, gin.H{"isLoggedIn": false, "username": nil})
		return
	}
	user, err := h.svc.GetUser(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"isLoggedIn": true, "username": user.Username})
}

func (h *Handler) getSettings(c *gin.Context) {
	user, err := h.svc.GetUser(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"api_key_set": user.APIKey != ""})
}

func (h *Handler) updateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := h.svc.UpdateAPIKey(c.Request.Context(), middleware.CurrentUserID(c), req.APIKey); err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"saved": true})
}

func (h *Handler) deleteAccount(c *gin.Context) {
	if err := h.svc.DeleteAccount(c.Request.Context(), middleware.CurrentUserID(c)); err != nil {
		response.InternalError(c, err)
		return
	}
	c.SetCookie(middleware.AuthCookieName, "", -1, "/", "", false, true)
	response.OK(c, gin.H{"deleted": true})
}
