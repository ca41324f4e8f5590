// cmd/tools/availability-probe/probe_test.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"expert-search/internal/models"
	"expert-search/internal/search/orchestrator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySource struct {
	experts []models.Candidate
	queries []string
}

func (m *memorySource) RankedSearch(ctx context.Context, query string) ([]models.Candidate, error) {
	m.queries = append(m.queries, query)
	return m.experts, nil
}

func (m *memorySource) ListAllCandidates(ctx context.Context) ([]models.Candidate, error) {
	return m.experts, nil
}

func (m *memorySource) PlainLookup(ctx context.Context, query string) ([]models.Candidate, error) {
	return m.experts[:1], nil
}

func runProbe(t *testing.T, src *memorySource, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := newApp(strings.NewReader(stdin), &out)
	closed := false
	a.open = func(ctx context.Context, _ *app) (*backend, error) {
		if src == nil {
			return nil, errors.New("no backend")
		}
		orch, err := orchestrator.New(src, src, src)
		require.NoError(t, err)
		return &backend{orch: orch, debounce: time.Hour, close: func() { closed = true }}, nil
	}

	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if src != nil && err == nil && (args[0] == "search" || args[0] == "watch") {
		assert.True(t, closed, "backend released")
	}
	return out.String(), err
}

func experts() []models.Candidate {
	return []models.Candidate{
		{ID: "1", Name: "Ana", Availability: "Weekends only"},
		{ID: "2", Name: "Ben", Availability: "Tue 10am-2pm"},
	}
}

func TestExtractCmd(t *testing.T) {
	out, err := runProbe(t, nil, "", "extract", "mentor", "on", "Tuesday", "at", "10am")
	require.NoError(t, err)

	var report map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "mentor on Tuesday at 10am", report["query"])
	assert.Equal(t, map[string]interface{}{"day": "tuesday", "time": "10:00"}, report["constraint"])
	assert.Equal(t, "specific", report["dayKind"])
	assert.Equal(t, false, report["empty"])
}

func TestMatchCmd(t *testing.T) {
	out, err := runProbe(t, nil, "", "match", "--availability", "Sat mornings", "weekend")
	require.NoError(t, err)

	var report map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, true, report["matches"])

	_, err = runProbe(t, nil, "", "match", "weekend")
	assert.Error(t, err, "--availability is required")
}

func TestSearchCmd(t *testing.T) {
	t.Run("filtered", func(t *testing.T) {
		out, err := runProbe(t, &memorySource{experts: experts()}, "", "search", "weekend", "designer")
		require.NoError(t, err)

		var outcome orchestrator.Outcome
		require.NoError(t, json.Unmarshal([]byte(out), &outcome))
		assert.Equal(t, []string{"1"}, outcome.IDs())
		assert.Equal(t, orchestrator.ProvenanceRankedAndFiltered, outcome.Provenance)
	})

	t.Run("no filter", func(t *testing.T) {
		out, err := runProbe(t, &memorySource{experts: experts()}, "", "search", "--no-filter", "weekend")
		require.NoError(t, err)

		var outcome orchestrator.Outcome
		require.NoError(t, json.Unmarshal([]byte(out), &outcome))
		assert.Equal(t, []string{"1", "2"}, outcome.IDs())
	})

	t.Run("compare", func(t *testing.T) {
		out, err := runProbe(t, &memorySource{experts: experts()}, "", "search", "--compare", "weekend")
		require.NoError(t, err)

		var both map[string]*orchestrator.Outcome
		require.NoError(t, json.Unmarshal([]byte(out), &both))
		assert.Equal(t, []string{"1"}, both["outcome"].IDs())
		assert.Equal(t, []string{"1"}, both["plainOutcome"].IDs())
	})

	t.Run("conflicting flags", func(t *testing.T) {
		_, err := runProbe(t, &memorySource{experts: experts()}, "", "search", "--compare", "--no-filter", "q")
		assert.Error(t, err)
	})

	t.Run("backend unavailable", func(t *testing.T) {
		_, err := runProbe(t, nil, "", "search", "q")
		assert.EqualError(t, err, "no backend")
	})
}

func TestWatchCmd_PrintsOnlyLatestRevision(t *testing.T) {
	src := &memorySource{experts: experts()}

	out, err := runProbe(t, src, "t\ntue\ntuesday 10am\n", "watch")
	require.NoError(t, err)

	assert.Equal(t, []string{"tuesday 10am"}, src.queries)

	var result orchestrator.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, uint64(1), result.Seq)
	assert.Equal(t, []string{"2"}, result.Outcome.IDs())
}
