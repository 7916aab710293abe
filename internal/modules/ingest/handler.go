package ingest

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/velasier/paperbase/internal/middleware"
	"github.com/velasier/paperbase/internal/pkg/response"
)

// ErrArticleNotFound is returned when a regenerate target does not exist or
// belongs to another user.
var ErrArticleNotFound = errors.New("article not found")

type batchImportRequest struct {
	EntryIDs []string `json:"entry_ids"`
}

// Handler exposes the workflow endpoints that sit alongside the library
// routes: ad-hoc search, batch import, manual fetch, and re-analysis.
type Handler struct {
	svc *Service
}

// NewHandler creates an ingest handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the workflow routes under rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	g := rg.Group("/articles", auth)
	g.GET("/search", h.search)
	g.POST("/batch-import", h.batchImport)
	g.POST("/fetch", h.fetch)
	g.POST("/:id/regenerate", h.regenerate)
}

func (h *Handler) search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		response.BadRequest(c, "query is required")
		return
	}
	results, err := h.svc.SearchOnly(c.Request.Context(), query)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, results)
}

func (h *Handler) batchImport(c *gin.Context) {
	var req batchImportRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.EntryIDs) == 0 {
		response.BadRequest(c, "entry_ids is required")
		return
	}

	user, err := h.svc.loadUser(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	imported, err := h.svc.BatchImport(c.Request.Context(), user, req.EntryIDs)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"imported": imported})
}

func (h *Handler) fetch(c *gin.Context) {
	user, err := h.svc.loadUser(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	imported, err := h.svc.FetchForUser(c.Request.Context(), user)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"imported": imported})
}

func (h *Handler) regenerate(c *gin.Context) {
	analyses, err := h.svc.RegenerateForUser(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if errors.Is(err, ErrArticleNotFound) {
		response.NotFound(c)
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	out := gin.H{}
	for kind, content := range analyses {
		out[string(kind)+"_analysis"] = content
	}
	response.OK(c, out)
}

