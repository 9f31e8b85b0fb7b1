package routes

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/studymap/pkg/ai"
	"github.com/OFFIS-RIT/studymap/pkg/common"
	"github.com/OFFIS-RIT/studymap/pkg/graph"
	"github.com/OFFIS-RIT/studymap/pkg/logger"

	"github.com/labstack/echo/v4"
)

// BuildMindMapHandler builds a mind map synchronously and returns it with
// the build report.
func BuildMindMapHandler(c echo.Context) error {
	req, err := readMindMapRequest(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	resp, err := appFrom(c).Builder.BuildMindMap(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, graph.ErrUnknownComplexity) {
			return errorJSON(c, http.StatusBadRequest, err.Error())
		}
		logger.Error("[Server] Failed to build mind map", "err", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to build mind map")
	}

	return c.JSON(http.StatusOK, resp)
}

// GetSchemaHandler returns the JSON schema of the build request body.
func GetSchemaHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, ai.GenerateSchema(common.MindMapRequest{}))
}
