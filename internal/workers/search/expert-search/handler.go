// internal/workers/search/expert-search/handler.go
package expertsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stderrors "expert-search/internal/common/errors"
	"expert-search/internal/common/logger"
	"expert-search/internal/common/metrics"
	"expert-search/internal/common/observability"
	"expert-search/internal/common/validation"
	"expert-search/internal/search/orchestrator"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "expert-search"

var ErrNilInput = errors.New("input cannot be nil")

// Process variables carry more than this worker reads, so unknown properties are allowed.
var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["query"],
	"properties": {
		"query": {"type": "string", "maxLength": 1000},
		"useConstraintFiltering": {"type": "boolean"},
		"compare": {"type": "boolean"}
	}
}`)

// Searcher is the orchestrator surface the worker drives.
type Searcher interface {
	Search(ctx context.Context, query string, useConstraintFiltering bool) *orchestrator.Outcome
	Compare(ctx context.Context, query string) (*orchestrator.Outcome, *orchestrator.Outcome)
}

type Handler struct {
	config       *Config
	searcher     Searcher
	obs          *observability.Observability
	errorHandler *stderrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, searcher Searcher, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		searcher:     searcher,
		obs:          obs,
		errorHandler: stderrors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	started := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job.Variables)
	if err != nil {
		h.fail(ctx, client, job, err, started)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err, started)
		return
	}

	h.completeJob(ctx, client, job, output, started)
}

// parseInput validates the job variables before decoding them.
func parseInput(variables string) (*Input, error) {
	result := inputSchema.ValidateJSON(variables)
	if !result.Valid {
		return nil, stderrors.NewInvalidSearchInputError(result.Summary())
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, stderrors.NewInvalidSearchInputError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, stderrors.NewInvalidSearchInputError(ErrNilInput.Error())
	}

	if input.Compare {
		constrained, plain := h.searcher.Compare(ctx, input.Query)
		return &Output{Outcome: constrained, PlainOutcome: plain}, nil
	}

	return &Output{Outcome: h.searcher.Search(ctx, input.Query, input.filteringEnabled())}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output, started time.Time) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.obs.RecordJobProcessed(ctx, "completed")
	h.obs.RecordJobDuration(ctx, time.Since(started), "completed")

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":     job.Key,
		"provenance": output.Outcome.Provenance,
		"results":    len(output.Outcome.Candidates),
	})
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, started time.Time) {
	code := string(stderrors.AsStandardError(err).Code)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.obs.RecordJobProcessed(ctx, "failed")
	h.obs.RecordJobDuration(ctx, time.Since(started), "failed")

	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
