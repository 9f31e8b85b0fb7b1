package server

import (
	"net/http"

	"github.com/OFFIS-RIT/studymap/internal/server/middleware"
	"github.com/OFFIS-RIT/studymap/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Mind map routes
	apiRoutes.GET("/mindmaps/schema", routes.GetSchemaHandler)
	apiRoutes.POST("/mindmaps", routes.BuildMindMapHandler, middleware.RequirePermission(middleware.PermBuild))

	// Job routes
	apiRoutes.GET("/mindmaps/jobs", routes.ListJobsHandler, middleware.RequirePermission(middleware.PermJobView))
	apiRoutes.POST("/mindmaps/jobs", routes.CreateJobHandler, middleware.RequirePermission(middleware.PermJobCreate))
	apiRoutes.GET("/mindmaps/jobs/:id", routes.GetJobHandler, middleware.RequireAnyPermission(middleware.PermJobView, middleware.PermJobCreate))
	apiRoutes.DELETE("/mindmaps/jobs/:id", routes.DeleteJobHandler, middleware.RequirePermission(middleware.PermJobDelete))
}
