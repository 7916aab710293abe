package article

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/velasier/paperbase/internal/middleware"
	"github.com/velasier/paperbase/internal/pkg/response"
)

// Handler exposes the library endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an article handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the article routes under rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	g := rg.Group("/articles", auth)
	g.GET("/latest", h.listLatest)
	g.GET("/favorites", h.listFavorites)
	g.GET("/:id", h.detail)
	g.POST("/:id/favorite", h.toggleFavorite)
	g.POST("/:id/ask", h.ask)
	g.DELETE("/:id", h.remove)
	g.GET("/:id/export/bibtex", h.exportBibTeX)
}

func (h *Handler) listLatest(c *gin.Context) {
	items, err := h.svc.ListLatest(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, items)
}

func (h *Handler) listFavorites(c *gin.Context) {
	items, err := h.svc.ListFavorites(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, items)
}

func (h *Handler) detail(c *gin.Context) {
	detail, err := h.svc.GetDetail(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c)
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, detail)
}

func (h *Handler) toggleFavorite(c *gin.Context) {
	favorited, err := h.svc.ToggleFavorite(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c)
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"is_favorited": favorited})
}

func (h *Handler) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	entry, err := h.svc.Ask(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), req.Question)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c)
		return
	}
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.OK(c, askResponse{Question: entry.Question, Answer: entry.Answer})
}

func (h *Handler) remove(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
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

func (h *Handler) exportBibTeX(c *gin.Context) {
	key, body, err := h.svc.ExportBibTeX(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c)
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.bib", key))
	c.Data(http.StatusOK, "application/x-bibtex", []byte(body))
}
