// internal/search/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	stderrors "expert-search/internal/common/errors"
	"expert-search/internal/common/logger"
	"expert-search/internal/common/metrics"
	"expert-search/internal/common/observability"
	"expert-search/internal/models"
	"expert-search/internal/search/availability"
	"expert-search/internal/search/constraint"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "expert-search/orchestrator"

// Collaborator names used in logs, diagnostics and metrics.
const (
	CollaboratorRanker = "ranker"
	CollaboratorLister = "lister"
	CollaboratorLookup = "lookup"
)

var (
	ErrRankerRequired = errors.New("ranker is required")
	ErrListerRequired = errors.New("lister is required")
	ErrLookupRequired = errors.New("lookup is required")
)

// Ranker returns candidates ordered by relevance to the raw query. An empty slice
// is a valid answer; errors are reserved for transport and auth failures.
type Ranker interface {
	RankedSearch(ctx context.Context, query string) ([]models.Candidate, error)
}

// Lister returns the unranked candidate population used for fallback broadening.
type Lister interface {
	ListAllCandidates(ctx context.Context) ([]models.Candidate, error)
}

// Lookup is the plain substring lookup behind the compare path.
type Lookup interface {
	PlainLookup(ctx context.Context, query string) ([]models.Candidate, error)
}

// Orchestrator runs the ranked fetch, availability filtering and fallback sequence.
type Orchestrator struct {
	ranker Ranker
	lister Lister
	lookup Lookup
	logger logger.Logger
	obs    *observability.Observability
	tracer trace.Tracer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(log logger.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.logger = log
		}
	}
}

// WithObservability records search counts and durations on the OpenTelemetry meter.
func WithObservability(obs *observability.Observability) Option {
	return func(o *Orchestrator) {
		o.obs = obs
	}
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Orchestrator) {
		if tp != nil {
			o.tracer = tp.Tracer(tracerName)
		}
	}
}

func New(ranker Ranker, lister Lister, lookup Lookup, opts ...Option) (*Orchestrator, error) {
	if ranker == nil {
		return nil, ErrRankerRequired
	}
	if lister == nil {
		return nil, ErrListerRequired
	}
	if lookup == nil {
		return nil, ErrLookupRequired
	}

	o := &Orchestrator{
		ranker: ranker,
		lister: lister,
		lookup: lookup,
		logger: logger.NewNoOpLogger(),
		tracer: otel.GetTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.WithFields(map[string]interface{}{"component": "orchestrator"})
	return o, nil
}

// Search runs one invocation. It never fails: collaborator errors are logged, listed
// in the diagnostics and end the invocation with an empty outcome.
func (o *Orchestrator) Search(ctx context.Context, query string, useConstraintFiltering bool) *Outcome {
	started := time.Now()
	out := newOutcome(query, uuid.NewString())

	ctx, span := o.tracer.Start(ctx, "orchestrator.Search", trace.WithAttributes(
		attribute.String("search.invocation_id", out.Diagnostics.InvocationID),
		attribute.Bool("search.use_constraint_filtering", useConstraintFiltering),
		attribute.Int("search.query_length", len(query)),
	))
	defer func() {
		out.finish(started)
		o.record(ctx, span, out)
		span.End()
	}()

	if strings.TrimSpace(query) == "" {
		return out
	}

	ranked, err := o.ranker.RankedSearch(ctx, query)
	if err != nil {
		o.collaboratorFailed(span, out, CollaboratorRanker, err)
		return out
	}
	out.Diagnostics.RankedCount = len(ranked)

	if !useConstraintFiltering {
		out.Candidates = ranked
		return out
	}

	c := constraint.Extract(query)
	if c.IsEmpty() {
		out.Candidates = ranked
		return out
	}
	out.Constraint = c
	span.SetAttributes(
		attribute.String("search.constraint.day", c.Day.String()),
		attribute.String("search.constraint.time", c.Time.String()),
	)

	filtered := availability.Filter(ranked, c)
	out.Diagnostics.FilteredCount = len(filtered)
	if len(filtered) > 0 {
		out.Candidates = filtered
		out.Provenance = ProvenanceRankedAndFiltered
		return out
	}

	o.logger.Info("no ranked candidate matched availability, broadening to full population", map[string]interface{}{
		"invocationId": out.Diagnostics.InvocationID,
		"rankedCount":  len(ranked),
		"day":          c.Day.String(),
		"time":         c.Time.String(),
	})

	out.Diagnostics.FallbackUsed = true
	population, err := o.lister.ListAllCandidates(ctx)
	if err != nil {
		o.collaboratorFailed(span, out, CollaboratorLister, err)
		// A failed listing still went through the broadening branch.
		out.Provenance = ProvenanceBroadenedFallback
		return out
	}

	out.Candidates = availability.Filter(population, c)
	out.Diagnostics.FallbackCount = len(out.Candidates)
	out.Provenance = ProvenanceBroadenedFallback
	return out
}

// Compare runs the constraint-aware search and the plain lookup side by side.
func (o *Orchestrator) Compare(ctx context.Context, query string) (constrained *Outcome, plain *Outcome) {
	var g errgroup.Group

	g.Go(func() error {
		constrained = o.Search(ctx, query, true)
		return nil
	})
	g.Go(func() error {
		plain = o.plainLookup(ctx, query)
		return nil
	})
	_ = g.Wait()

	return constrained, plain
}

func (o *Orchestrator) plainLookup(ctx context.Context, query string) *Outcome {
	started := time.Now()
	out := newOutcome(query, uuid.NewString())

	ctx, span := o.tracer.Start(ctx, "orchestrator.PlainLookup", trace.WithAttributes(
		attribute.String("search.invocation_id", out.Diagnostics.InvocationID),
	))
	defer func() {
		out.finish(started)
		span.SetAttributes(attribute.Int("search.result_count", len(out.Candidates)))
		span.End()
	}()

	if strings.TrimSpace(query) == "" {
		return out
	}

	found, err := o.lookup.PlainLookup(ctx, query)
	if err != nil {
		o.collaboratorFailed(span, out, CollaboratorLookup, err)
		return out
	}
	out.Candidates = found
	out.Diagnostics.RankedCount = len(found)
	return out
}

func (o *Orchestrator) collaboratorFailed(span trace.Span, out *Outcome, collaborator string, err error) {
	stdErr := stderrors.AsStandardError(err)
	out.Candidates = []models.Candidate{}
	out.Diagnostics.Errors = append(out.Diagnostics.Errors, fmt.Sprintf("%s: %s", collaborator, err.Error()))

	metrics.SearchCollaboratorFailures.WithLabelValues(collaborator).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, string(stdErr.Code))

	o.logger.Warn("search collaborator failed, continuing with empty result", map[string]interface{}{
		"invocationId":  out.Diagnostics.InvocationID,
		"collaborator":  collaborator,
		"errorCode":     string(stdErr.Code),
		"errorCategory": stderrors.GetErrorCategory(stdErr.Code),
		"error":         err,
	})
}

func (o *Orchestrator) record(ctx context.Context, span trace.Span, out *Outcome) {
	provenance := string(out.Provenance)

	metrics.SearchInvocations.WithLabelValues(provenance).Inc()
	metrics.SearchDuration.WithLabelValues(provenance).Observe(out.Diagnostics.Duration.Seconds())
	if out.Diagnostics.FallbackUsed {
		metrics.SearchFallbacks.Inc()
	}
	o.obs.RecordSearch(ctx, provenance, out.Diagnostics.Duration)

	span.SetAttributes(
		attribute.String("search.provenance", provenance),
		attribute.Int("search.ranked_count", out.Diagnostics.RankedCount),
		attribute.Int("search.result_count", len(out.Candidates)),
		attribute.Bool("search.fallback_used", out.Diagnostics.FallbackUsed),
	)

	o.logger.Debug("search completed", map[string]interface{}{
		"invocationId": out.Diagnostics.InvocationID,
		"provenance":   provenance,
		"results":      len(out.Candidates),
		"durationMs":   out.Diagnostics.DurationMs,
	})
}
