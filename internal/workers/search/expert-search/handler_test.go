// internal/workers/search/expert-search/handler_test.go
package expertsearch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	stderrors "expert-search/internal/common/errors"
	"expert-search/internal/common/logger"
	"expert-search/internal/models"
	"expert-search/internal/search/orchestrator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// ==========================
// Test Helper Functions
// ==========================

type stubSource struct {
	ranked    []models.Candidate
	rankedErr error
	all       []models.Candidate
	plain     []models.Candidate
}

func (s *stubSource) RankedSearch(ctx context.Context, query string) ([]models.Candidate, error) {
	return s.ranked, s.rankedErr
}

func (s *stubSource) ListAllCandidates(ctx context.Context) ([]models.Candidate, error) {
	return s.all, nil
}

func (s *stubSource) PlainLookup(ctx context.Context, query string) ([]models.Candidate, error) {
	return s.plain, nil
}

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func createTestHandler(t *testing.T, src *stubSource) *Handler {
	orch, err := orchestrator.New(src, src, src, orchestrator.WithLogger(createTestLogger(t)))
	require.NoError(t, err)
	return NewHandler(createTestConfig(), orch, nil, createTestLogger(t))
}

func boolPtr(b bool) *bool { return &b }

func weekendSource() *stubSource {
	return &stubSource{
		ranked: []models.Candidate{
			{ID: "1", Availability: "Weekends only"},
			{ID: "2", Availability: "Mon-Fri 9-5"},
		},
		plain: []models.Candidate{{ID: "2", Availability: "Mon-Fri 9-5"}},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name           string
		input          *Input
		wantIDs        []string
		wantProvenance orchestrator.Provenance
		wantPlain      bool
	}{
		{
			name:           "filtering defaults to on",
			input:          &Input{Query: "designer available on weekend"},
			wantIDs:        []string{"1"},
			wantProvenance: orchestrator.ProvenanceRankedAndFiltered,
		},
		{
			name:           "filtering disabled",
			input:          &Input{Query: "designer available on weekend", UseConstraintFiltering: boolPtr(false)},
			wantIDs:        []string{"1", "2"},
			wantProvenance: orchestrator.ProvenanceUnfiltered,
		},
		{
			name:           "compare adds the plain outcome",
			input:          &Input{Query: "designer available on weekend", Compare: true},
			wantIDs:        []string{"1"},
			wantProvenance: orchestrator.ProvenanceRankedAndFiltered,
			wantPlain:      true,
		},
		{
			name:           "empty query",
			input:          &Input{Query: ""},
			wantIDs:        []string{},
			wantProvenance: orchestrator.ProvenanceUnfiltered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := createTestHandler(t, weekendSource())

			output, err := handler.Execute(context.Background(), tt.input)

			require.NoError(t, err)
			require.NotNil(t, output.Outcome)
			assert.Equal(t, tt.wantIDs, output.Outcome.IDs())
			assert.Equal(t, tt.wantProvenance, output.Outcome.Provenance)
			if tt.wantPlain {
				require.NotNil(t, output.PlainOutcome)
				assert.Equal(t, []string{"2"}, output.PlainOutcome.IDs())
			} else {
				assert.Nil(t, output.PlainOutcome)
			}
		})
	}
}

func TestHandler_Execute_CollaboratorFailureDoesNotFailJob(t *testing.T) {
	src := weekendSource()
	src.rankedErr = stderrors.NewRankedSearchFailedError("elasticsearch", errors.New("down"))
	handler := createTestHandler(t, src)

	output, err := handler.Execute(context.Background(), &Input{Query: "weekend"})

	require.NoError(t, err)
	assert.Empty(t, output.Outcome.Candidates)
	assert.NotEmpty(t, output.Outcome.Diagnostics.Errors)
}

func TestHandler_Execute_NilInput(t *testing.T) {
	handler := createTestHandler(t, weekendSource())

	_, err := handler.Execute(context.Background(), nil)

	require.Error(t, err)
	assert.Equal(t, stderrors.ErrCodeInvalidSearchInput, stderrors.AsStandardError(err).Code)
}

// ==========================
// Input Validation Tests
// ==========================

func TestParseInput(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		wantErr   bool
		check     func(t *testing.T, in *Input)
	}{
		{
			name:      "minimal",
			variables: `{"query":"tuesday 10am"}`,
			check: func(t *testing.T, in *Input) {
				assert.Equal(t, "tuesday 10am", in.Query)
				assert.True(t, in.filteringEnabled())
				assert.False(t, in.Compare)
			},
		},
		{
			name:      "extra process variables are ignored",
			variables: `{"query":"q","useConstraintFiltering":false,"compare":true,"requestId":"r-1"}`,
			check: func(t *testing.T, in *Input) {
				assert.False(t, in.filteringEnabled())
				assert.True(t, in.Compare)
			},
		},
		{name: "missing query", variables: `{"compare":true}`, wantErr: true},
		{name: "query not a string", variables: `{"query":42}`, wantErr: true},
		{name: "flag not a boolean", variables: `{"query":"q","compare":"yes"}`, wantErr: true},
		{name: "not json", variables: `query=q`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := parseInput(tt.variables)
			if tt.wantErr {
				require.Error(t, err)
				stdErr := stderrors.AsStandardError(err)
				assert.Equal(t, stderrors.ErrCodeInvalidSearchInput, stdErr.Code)
				assert.Zero(t, stderrors.ConvertToBPMNError(stdErr).Retries)
				return
			}
			require.NoError(t, err)
			tt.check(t, in)
		})
	}
}

func TestOutput_JSONShape(t *testing.T) {
	handler := createTestHandler(t, weekendSource())
	output, err := handler.Execute(context.Background(), &Input{Query: "weekend"})
	require.NoError(t, err)

	data, err := json.Marshal(output)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "outcome")
	assert.NotContains(t, decoded, "plainOutcome")
}
