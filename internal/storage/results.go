package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/OFFIS-RIT/studymap/internal/util"
	"github.com/OFFIS-RIT/studymap/pkg/common"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	resultPrefix  = "mindmaps/"
	resultExt     = ".json"
	linkExpiresIn = 15 * time.Minute
)

// ResultStore persists the state of queued mind map builds.
type ResultStore interface {
	PutResult(ctx context.Context, result *common.MindMapJobResult) error
	GetResult(ctx context.Context, jobID string) (*common.MindMapJobResult, error)
	DeleteResult(ctx context.Context, jobID string) error
	ListJobs(ctx context.Context) ([]string, error)
	DownloadLink(ctx context.Context, jobID string) (string, error)
}

// S3ResultStore keeps one JSON document per job under mindmaps/<job id>.json.
type S3ResultStore struct {
	api    s3API
	client *s3.Client
	bucket string
}

// NewS3ResultStore creates a result store on client using AWS_BUCKET.
func NewS3ResultStore(client *s3.Client) *S3ResultStore {
	return &S3ResultStore{
		api:    client,
		client: client,
		bucket: util.GetEnvString("AWS_BUCKET", "studymap"),
	}
}

// ResultKey returns the object key for jobID.
func ResultKey(jobID string) string {
	return resultPrefix + jobID + resultExt
}

func (s *S3ResultStore) PutResult(ctx context.Context, result *common.MindMapJobResult) error {
	if result == nil || strings.TrimSpace(result.JobID) == "" {
		return fmt.Errorf("result without job id")
	}
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return PutFile(ctx, s.api, s.bucket, ResultKey(result.JobID), "application/json", body)
}

// GetResult returns ErrNotFound when no result was stored for jobID.
func (s *S3ResultStore) GetResult(ctx context.Context, jobID string) (*common.MindMapJobResult, error) {
	body, err := GetFile(ctx, s.api, s.bucket, ResultKey(jobID))
	if err != nil {
		return nil, err
	}
	result := new(common.MindMapJobResult)
	if err := json.Unmarshal(body, result); err != nil {
		return nil, fmt.Errorf("failed to decode result %s: %w", jobID, err)
	}
	return result, nil
}

func (s *S3ResultStore) DeleteResult(ctx context.Context, jobID string) error {
	return DeleteFile(ctx, s.api, s.bucket, ResultKey(jobID))
}

// ListJobs returns the ids of all stored jobs in ascending order.
func (s *S3ResultStore) ListJobs(ctx context.Context) ([]string, error) {
	keys, err := ListFilesWithPrefix(ctx, s.api, s.bucket, resultPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		if !strings.HasSuffix(key, resultExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(path.Base(key), resultExt))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *S3ResultStore) DownloadLink(ctx context.Context, jobID string) (string, error) {
	if s.client == nil {
		return "", errors.New("presigning requires an S3 client")
	}
	return GenerateDownloadLink(ctx, s.client, s.bucket, ResultKey(jobID), linkExpiresIn)
}
