package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/studymap/internal/storage"
	"github.com/OFFIS-RIT/studymap/internal/util"
	"github.com/OFFIS-RIT/studymap/pkg/common"
	"github.com/OFFIS-RIT/studymap/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	topicCompleted = "mindmap.completed"
	topicFailed    = "mindmap.failed"

	storeAttempts = 3
)

// MindMapBuilder builds a mind map for one request.
type MindMapBuilder interface {
	BuildMindMap(ctx context.Context, req common.MindMapRequest) (*common.MindMapResponse, error)
}

// JobEvent is published on the events exchange when a job finishes.
type JobEvent struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// EnqueueMindMapJob stores a pending result for a new job id and publishes
// the request to MindMapQueue.
func EnqueueMindMapJob(
	ctx context.Context,
	ch Channel,
	results storage.ResultStore,
	req common.MindMapRequest,
) (string, error) {
	jobID, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate job id: %w", err)
	}

	err = results.PutResult(ctx, &common.MindMapJobResult{JobID: jobID, Status: common.JobPending})
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(common.MindMapJobMsg{JobID: jobID, Request: req})
	if err != nil {
		return "", fmt.Errorf("failed to encode job: %w", err)
	}
	if err := PublishFIFO(ch, MindMapQueue, body); err != nil {
		return "", fmt.Errorf("failed to publish job: %w", err)
	}

	logger.Info("[Queue] Enqueued mind map job", "job_id", jobID)
	return jobID, nil
}

// ProcessMindMapJob builds the mind map for a queued job and stores the
// result. Malformed messages and rejected requests are stored as failed
// jobs and not retried; a returned error means the job should be retried.
func ProcessMindMapJob(
	ctx context.Context,
	builder MindMapBuilder,
	results storage.ResultStore,
	ch Channel,
	msg []byte,
) error {
	var data common.MindMapJobMsg
	if err := json.Unmarshal(msg, &data); err != nil {
		logger.Error("[Queue] Dropping malformed job message", "err", err)
		return nil
	}
	if strings.TrimSpace(data.JobID) == "" {
		logger.Error("[Queue] Dropping job message without id")
		return nil
	}

	if err := data.Request.Validate(); err != nil {
		return finishJob(ctx, results, ch, &common.MindMapJobResult{
			JobID:  data.JobID,
			Status: common.JobFailed,
			Error:  err.Error(),
		})
	}

	resp, err := builder.BuildMindMap(ctx, data.Request)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return finishJob(ctx, results, ch, &common.MindMapJobResult{
			JobID:  data.JobID,
			Status: common.JobFailed,
			Error:  err.Error(),
		})
	}

	logger.Info(
		"[Queue] Built mind map",
		"job_id", data.JobID,
		"nodes", len(resp.MindMap.Nodes),
		"edges", len(resp.MindMap.Edges),
		"degraded", resp.Report.Degraded,
	)

	return finishJob(ctx, results, ch, &common.MindMapJobResult{
		JobID:   data.JobID,
		Status:  common.JobCompleted,
		MindMap: &resp.MindMap,
		Report:  &resp.Report,
	})
}

func finishJob(ctx context.Context, results storage.ResultStore, ch Channel, result *common.MindMapJobResult) error {
	err := util.RetryErrWithContext(ctx, storeAttempts, func(ctx context.Context) error {
		return results.PutResult(ctx, result)
	})
	if err != nil {
		return fmt.Errorf("failed to store result for job %s: %w", result.JobID, err)
	}

	topic := topicCompleted
	if result.Status == common.JobFailed {
		topic = topicFailed
		logger.Warn("[Queue] Mind map job failed", "job_id", result.JobID, "err", result.Error)
	}

	event, _ := json.Marshal(JobEvent{JobID: result.JobID, Status: result.Status, Error: result.Error})
	if err := PublishTopic(ch, topic, event); err != nil {
		logger.Warn("[Queue] Failed to publish job event", "job_id", result.JobID, "topic", topic, "err", err)
	}
	return nil
}
