package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/velasier/paperbase/internal/middleware"
	"github.com/velasier/paperbase/internal/modules/article"
	"github.com/velasier/paperbase/internal/modules/auth"
	"github.com/velasier/paperbase/internal/modules/ingest"
	"github.com/velasier/paperbase/internal/modules/keyword"
	"github.com/velasier/paperbase/internal/pkg/response"
)

func (a *App) registerRoutes(answerer article.Answerer) {
	authMW := middleware.Auth(a.db)
	optionalAuthMW := middleware.OptionalAuth(a.db)

	api := a.router.Group("/api")

	auth.NewHandler(auth.NewService(a.db, a.logger)).RegisterRoutes(api, authMW, optionalAuthMW)
	article.NewHandler(article.NewService(a.db, answerer, a.logger)).RegisterRoutes(api, authMW)
	ingest.NewHandler(a.ingestSvc).RegisterRoutes(api, authMW)
	keyword.NewHandler(keyword.NewService(a.db)).RegisterRoutes(api, authMW)

	jobs := api.Group("/jobs", authMW)
	jobs.GET("", a.listJobs)
	jobs.POST("/:name/run", a.runJob)

	// Downloaded artifacts (pdfs, extracted figures) are served as-is.
	a.router.Static("/media", a.cfg.StorageDir)

	a.router.NoRoute(func(c *gin.Context) { response.NotFound(c) })
	a.router.NoMethod(func(c *gin.Context) { response.MethodNotAllowed(c) })
}

func (a *App) listJobs(c *gin.Context) {
	response.OK(c, a.scheduler.List())
}

func (a *App) runJob(c *gin.Context) {
	// The job outlives the request, so it must not inherit its context.
	if err := a.scheduler.Run(context.Background(), c.Param("name")); err != nil {
		response.NotFoundMsg(c, err.Error())
		return
	}
	response.OK(c, gin.H{"triggered": true})
}
