package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-match-api/internal/dto"
	"github.com/noah-isme/tutor-match-api/internal/models"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
	"github.com/noah-isme/tutor-match-api/pkg/jobs"
)

const batchJobType = "suggestion.generate"

type suggestionGenerator interface {
	Generate(ctx context.Context, req dto.GenerateSuggestionRequest, actor string) (*models.MatchSuggestion, error)
}

type batchItem struct {
	BatchID string
	Request models.TutoringRequest
	Actor   string
}

// BatchSuggestionService generates suggestions for many requests on the background queue.
// Every request is ranked independently against the directory pool.
type BatchSuggestionService struct {
	generator suggestionGenerator
	queue     *jobs.Queue
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBatchSuggestionService builds the service and its worker queue. Call Start before Enqueue.
func NewBatchSuggestionService(generator suggestionGenerator, metrics *MetricsService, logger *zap.Logger, cfg jobs.QueueConfig) *BatchSuggestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &BatchSuggestionService{
		generator: generator,
		metrics:   metrics,
		validator: newValidator(),
		logger:    logger,
	}
	cfg.Logger = logger
	svc.queue = jobs.NewQueue("suggestion-batch", svc.process, cfg)
	return svc
}

// Start launches the workers.
func (s *BatchSuggestionService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop cancels the workers and waits for them.
func (s *BatchSuggestionService) Stop() {
	s.queue.Stop()
}

// Stats exposes queue counters.
func (s *BatchSuggestionService) Stats() jobs.Stats {
	return s.queue.Stats()
}

// Enqueue schedules one job per request. Requests that do not fit in the buffer are reported
// as rejected; the batch fails only when none were accepted.
func (s *BatchSuggestionService) Enqueue(ctx context.Context, req dto.BatchSuggestionRequest, actor string) (*dto.BatchSuggestionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	resp := &dto.BatchSuggestionResponse{BatchID: uuid.NewString(), JobIDs: make([]string, 0, len(req.Requests))}
	for _, request := range req.Requests {
		id, err := s.queue.Enqueue(jobs.Job{
			Type:    batchJobType,
			Payload: batchItem{BatchID: resp.BatchID, Request: request.Clone(), Actor: actor},
		})
		if err != nil {
			resp.Rejected++
			s.logger.Warn("batch request not queued", zap.String("batch_id", resp.BatchID), zap.String("student_id", request.StudentID), zap.Error(err))
			continue
		}
		resp.JobIDs = append(resp.JobIDs, id)
	}
	resp.Requests = len(resp.JobIDs)
	if resp.Requests == 0 {
		return nil, appErrors.Clone(appErrors.ErrServiceDisabled, "batch queue is unavailable")
	}
	return resp, nil
}

func (s *BatchSuggestionService) process(ctx context.Context, job jobs.Job) error {
	item, ok := job.Payload.(batchItem)
	if !ok {
		s.metrics.IncBatchRequest("failed")
		s.logger.Error("unexpected batch payload", zap.String("job_id", job.ID), zap.String("type", fmt.Sprintf("%T", job.Payload)))
		return nil
	}
	suggestion, err := s.generator.Generate(ctx, dto.GenerateSuggestionRequest{Request: item.Request}, item.Actor)
	if err != nil {
		if errors.Is(err, appErrors.ErrValidation) {
			s.metrics.IncBatchRequest("failed")
			s.logger.Warn("batch request rejected", zap.String("batch_id", item.BatchID), zap.String("student_id", item.Request.StudentID), zap.Error(err))
			return nil
		}
		return err
	}
	s.metrics.IncBatchRequest("created")
	s.logger.Debug("batch suggestion created", zap.String("batch_id", item.BatchID), zap.String("suggestion_id", suggestion.ID))
	return nil
}
