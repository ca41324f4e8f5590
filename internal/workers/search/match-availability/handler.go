// internal/workers/search/match-availability/handler.go
package matchavailability

import (
	"context"
	"encoding/json"
	"fmt"

	stderrors "expert-search/internal/common/errors"
	"expert-search/internal/common/logger"
	"expert-search/internal/common/metrics"
	"expert-search/internal/common/validation"
	"expert-search/internal/models"
	"expert-search/internal/search/availability"
	"expert-search/internal/search/constraint"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "match-availability"

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["candidates"],
	"properties": {
		"query": {"type": "string"},
		"constraint": {
			"type": "object",
			"properties": {
				"day": {"type": "string"},
				"time": {"type": "string", "pattern": "^$|^[0-9]{1,2}:[0-9]{2}$"}
			}
		},
		"candidates": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id"],
				"properties": {
					"id": {"type": "string"},
					"availability": {"type": "string"}
				}
			}
		}
	}
}`)

type Handler struct {
	config       *Config
	errorHandler *stderrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		errorHandler: stderrors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job.Variables)
	if err == nil {
		var output *Output
		if output, err = h.execute(ctx, input); err == nil {
			h.completeJob(ctx, client, job, output)
			return
		}
	}

	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stderrors.AsStandardError(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

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

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, stderrors.NewInvalidSearchInputError("input cannot be nil")
	}
	if h.config.MaxCandidates > 0 && len(input.Candidates) > h.config.MaxCandidates {
		return nil, stderrors.NewInvalidSearchInputError(
			fmt.Sprintf("too many candidates: %d > %d", len(input.Candidates), h.config.MaxCandidates))
	}

	c := constraint.Extract(input.Query)
	if input.Constraint != nil {
		c = *input.Constraint
	}

	output := &Output{
		Matched:    []models.Candidate{},
		Rejected:   []string{},
		Constraint: c,
	}
	for _, result := range availability.Evaluate(input.Candidates, c) {
		if result.Matched {
			output.Matched = append(output.Matched, result.Candidate)
		} else {
			output.Rejected = append(output.Rejected, result.Candidate.ID)
		}
	}
	output.MatchedCount = len(output.Matched)

	h.logger.Debug("availability evaluated", map[string]interface{}{
		"day":      c.Day.String(),
		"time":     c.Time.String(),
		"matched":  output.MatchedCount,
		"rejected": len(output.Rejected),
	})
	return output, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
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
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
