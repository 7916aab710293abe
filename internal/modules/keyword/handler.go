package keyword

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/velasier/paperbase/internal/middleware"
	"github.com/velasier/paperbase/internal/pkg/response"
)

type addRequest struct {
	Keyword string `json:"keyword"`
}

// Handler exposes the keyword endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a keyword handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the keyword routes under rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	g := rg.Group("/keywords", auth)
	g.GET("", h.list)
	g.POST("", h.add)
	g.DELETE("/:keyword", h.remove)
}

func (h *Handler) list(c *gin.Context) {
	keywords, err := h.svc.List(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, keywords)
}

func (h *Handler) add(c *gin.Context) {
	var req addRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	row, err := h.svc.Add(c.Request.Context(), middleware.CurrentUserID(c), req.Keyword)
	if errors.Is(err, ErrEmptyKeyword) {
		response.BadRequest(c, err.Error())
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, row)
}

func (h *Handler) remove(c *gin.Context) {
	err := h.svc.Remove(c.Request.Context(), middleware.CurrentUserID(c), c.Param("keyword"))
	if errors.Is(err, ErrEmptyKeyword) {
		response.BadRequest(c, err.Error())
		return
	}
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c)
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": true})
}
