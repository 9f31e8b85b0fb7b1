package routes

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/OFFIS-RIT/studymap/internal/server/middleware"
	"github.com/OFFIS-RIT/studymap/pkg/ai"
	"github.com/OFFIS-RIT/studymap/pkg/common"

	"github.com/labstack/echo/v4"
)

func appFrom(c echo.Context) *middleware.App {
	return c.(*middleware.AppContext).App
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// readMindMapRequest decodes the body leniently so payloads produced by
// language models (fenced, double-encoded or slightly broken JSON) are
// accepted. The complexity query parameter overrides the body.
func readMindMapRequest(c echo.Context) (common.MindMapRequest, error) {
	var req common.MindMapRequest

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return req, fmt.Errorf("failed to read body: %w", err)
	}
	if strings.TrimSpace(string(body)) == "" {
		return req, fmt.Errorf("empty request body")
	}
	if err := ai.UnmarshalFlexible(string(body), &req); err != nil {
		return req, fmt.Errorf("invalid request body: %w", err)
	}

	if complexity := c.QueryParam("complexity"); complexity != "" {
		req.Complexity = complexity
	}

	if err := req.Validate(); err != nil {
		return req, err
	}
	return req, nil
}

type jobParams struct {
	JobID string `param:"id" validate:"required,max=64"`
}

func bindJobParams(c echo.Context) (*jobParams, error) {
	params := new(jobParams)
	if err := c.Bind(params); err != nil {
		return nil, err
	}
	if err := c.Validate(params); err != nil {
		return nil, err
	}
	return params, nil
}

func jobBackendReady(c echo.Context) bool {
	app := appFrom(c)
	return app.Results != nil && app.Queue != nil
}

func jobBackendUnavailable(c echo.Context) error {
	return errorJSON(c, http.StatusServiceUnavailable, "Job processing is not configured")
}
