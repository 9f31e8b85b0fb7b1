package routes

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/studymap/internal/queue"
	"github.com/OFFIS-RIT/studymap/internal/storage"
	"github.com/OFFIS-RIT/studymap/pkg/common"
	"github.com/OFFIS-RIT/studymap/pkg/logger"

	"github.com/labstack/echo/v4"
)

func CreateJobHandler(c echo.Context) error {
	if !jobBackendReady(c) {
		return jobBackendUnavailable(c)
	}
	req, err := readMindMapRequest(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	app := appFrom(c)
	jobID, err := queue.EnqueueMindMapJob(c.Request().Context(), app.Queue, app.Results, req)
	if err != nil {
		logger.Error("[Server] Failed to enqueue mind map job", "err", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to enqueue job")
	}

	return c.JSON(http.StatusAccepted, common.MindMapJobResult{JobID: jobID, Status: common.JobPending})
}

func ListJobsHandler(c echo.Context) error {
	if !jobBackendReady(c) {
		return jobBackendUnavailable(c)
	}

	ids, err := appFrom(c).Results.ListJobs(c.Request().Context())
	if err != nil {
		logger.Error("[Server] Failed to list jobs", "err", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to list jobs")
	}
	if ids == nil {
		ids = []string{}
	}

	return c.JSON(http.StatusOK, map[string][]string{"jobs": ids})
}

// GetJobHandler returns the stored job state. With ?download=true a
// presigned link to the stored document is returned instead.
func GetJobHandler(c echo.Context) error {
	if !jobBackendReady(c) {
		return jobBackendUnavailable(c)
	}
	params, err := bindJobParams(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request params")
	}

	app := appFrom(c)
	ctx := c.Request().Context()

	result, err := app.Results.GetResult(ctx, params.JobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, "Job not found")
		}
		logger.Error("[Server] Failed to load job", "job_id", params.JobID, "err", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to load job")
	}

	if c.QueryParam("download") == "true" {
		if result.Status != common.JobCompleted {
			return errorJSON(c, http.StatusConflict, "Job is "+result.Status)
		}
		link, err := app.Results.DownloadLink(ctx, params.JobID)
		if err != nil {
			logger.Error("[Server] Failed to create download link", "job_id", params.JobID, "err", err)
			return errorJSON(c, http.StatusInternalServerError, "Failed to create download link")
		}
		return c.JSON(http.StatusOK, map[string]string{"url": link})
	}

	return c.JSON(http.StatusOK, result)
}

func DeleteJobHandler(c echo.Context) error {
	if !jobBackendReady(c) {
		return jobBackendUnavailable(c)
	}
	params, err := bindJobParams(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request params")
	}

	app := appFrom(c)
	ctx := c.Request().Context()
	if _, err := app.Results.GetResult(ctx, params.JobID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, "Job not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "Failed to load job")
	}
	if err := app.Results.DeleteResult(ctx, params.JobID); err != nil {
		logger.Error("[Server] Failed to delete job", "job_id", params.JobID, "err", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to delete job")
	}

	return c.NoContent(http.StatusNoContent)
}
