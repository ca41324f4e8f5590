// internal/workers/search/extract-constraints/handler.go
package extractconstraints

import (
	"context"
	"encoding/json"
	"fmt"

	stderrors "expert-search/internal/common/errors"
	"expert-search/internal/common/logger"
	"expert-search/internal/common/metrics"
	"expert-search/internal/search/constraint"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "extract-availability-constraints"

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

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stderrors.ErrCodeInvalidSearchInput)).Inc()
		h.errorHandler.HandleJobError(ctx, client, job,
			stderrors.NewInvalidSearchInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stderrors.AsStandardError(err).Code)).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, stderrors.NewInvalidSearchInputError("input cannot be nil")
	}

	c := constraint.Extract(input.Query)
	h.logger.Debug("constraint extracted", map[string]interface{}{
		"day":  c.Day.String(),
		"time": c.Time.String(),
	})

	return &Output{
		Constraint:    toView(c),
		HasConstraint: !c.IsEmpty(),
	}, nil
}

func toView(c constraint.Constraint) ConstraintView {
	view := ConstraintView{
		Day:     c.Day.String(),
		DayKind: c.Day.Kind().String(),
		Time:    c.Time.String(),
	}
	if c.Time.IsSet() {
		minutes := c.Time.Minutes()
		view.Minutes = &minutes
	}
	return view
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
