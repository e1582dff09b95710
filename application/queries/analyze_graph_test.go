package queries

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graph-engine/domain/core/aggregates"
	"graph-engine/domain/core/entities"
	pkgerrors "graph-engine/pkg/errors"
)

func diamond() *aggregates.Graph {
	nodes := []*entities.Node{{ID: "A"}, {ID: "B"}, {ID: "C"}, {ID: "D"}}
	rels := []*entities.Relationship{
		{ID: "1", FromNodeID: "A", ToNodeID: "B"},
		{ID: "2", FromNodeID: "B", ToNodeID: "C"},
		{ID: "3", FromNodeID: "A", ToNodeID: "D"},
		{ID: "4", FromNodeID: "D", ToNodeID: "C"},
	}
	return aggregates.NewGraph(nodes, rels)
}

func query(mutate func(*AnalyzeGraphQuery)) AnalyzeGraphQuery {
	q := AnalyzeGraphQuery{
		SourceNodeID:  "A",
		TargetNodeID:  "C",
		MaxDepth:      DefaultMaxDepth,
		AnalysisType:  DefaultAnalysisType,
		MaxDepthLimit: 25,
	}
	if mutate != nil {
		mutate(&q)
	}
	return q
}

func TestAnalyzeGraphQuery_Validate(t *testing.T) {
	tests := []struct {
		name     string
		query    AnalyzeGraphQuery
		wantMsg  string
		wantCode string
	}{
		{name: "valid shortest path", query: query(nil)},
		{
			name:  "neighborhood without target",
			query: query(func(q *AnalyzeGraphQuery) { q.AnalysisType = AnalysisNeighborhood; q.TargetNodeID = "" }),
		},
		{
			name:  "depth at limit",
			query: query(func(q *AnalyzeGraphQuery) { q.MaxDepth = 25 }),
		},
		{
			name:     "missing source",
			query:    query(func(q *AnalyzeGraphQuery) { q.SourceNodeID = "" }),
			wantMsg:  "source_node_id is required",
			wantCode: CodeSourceRequired,
		},
		{
			name:     "shortest path without target",
			query:    query(func(q *AnalyzeGraphQuery) { q.TargetNodeID = "" }),
			wantMsg:  "target_node_id is required for shortest_path analysis",
			wantCode: CodeTargetRequired,
		},
		{
			name:  "negative depth is left to the traversal",
			query: query(func(q *AnalyzeGraphQuery) { q.MaxDepth = -1 }),
		},
		{
			name:  "negative centrality depth",
			query: query(func(q *AnalyzeGraphQuery) { q.AnalysisType = AnalysisCentrality; q.MaxDepth = -7 }),
		},
		{
			name:  "no limit configured",
			query: query(func(q *AnalyzeGraphQuery) { q.MaxDepth = 30; q.MaxDepthLimit = 0 }),
		},
		{
			name:     "depth above limit",
			query:    query(func(q *AnalyzeGraphQuery) { q.MaxDepth = 26 }),
			wantMsg:  "max_depth must not exceed 25",
			wantCode: CodeMaxDepthTooLarge,
		},
		{
			name: "source reported before depth",
			query: query(func(q *AnalyzeGraphQuery) {
				q.SourceNodeID = ""
				q.MaxDepth = 40
			}),
			wantMsg: "source_node_id is required",
		},
		{
			name:    "unknown analysis type",
			query:   query(func(q *AnalyzeGraphQuery) { q.AnalysisType = "bogus" }),
			wantMsg: "Invalid analysis_type",
		},
		{
			name:    "empty analysis type",
			query:   query(func(q *AnalyzeGraphQuery) { q.AnalysisType = "" }),
			wantMsg: "Invalid analysis_type",
		},
		{
			name: "source reported before analysis type",
			query: query(func(q *AnalyzeGraphQuery) {
				q.SourceNodeID = ""
				q.AnalysisType = "bogus"
			}),
			wantMsg: "source_node_id is required",
		},
		{
			name: "target reported before depth",
			query: query(func(q *AnalyzeGraphQuery) {
				q.TargetNodeID = ""
				q.MaxDepth = 26
			}),
			wantMsg: "target_node_id is required for shortest_path analysis",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			appErr := pkgerrors.GetAppError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, pkgerrors.ErrorTypeValidation, appErr.Type)
			assert.Equal(t, tt.wantMsg, appErr.Message)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, appErr.Code)
			}
		})
	}
}

func TestRun_ShortestPath(t *testing.T) {
	result := Run(diamond(), query(nil))

	sp, ok := result.(ShortestPathResult)
	require.True(t, ok)
	assert.True(t, sp.Found)
	assert.Equal(t, 2, sp.Length)
	assert.Len(t, sp.Path, 3)
	assert.Equal(t, "A", sp.Path[0].ID)
	assert.Equal(t, "C", sp.Path[2].ID)
	assert.Equal(t, AnalysisShortestPath, result.AnalysisType())
	assert.Equal(t, 3, result.Size())
}

func TestRun_ShortestPath_NotFound(t *testing.T) {
	result := Run(diamond(), query(func(q *AnalyzeGraphQuery) { q.SourceNodeID = "C"; q.TargetNodeID = "A" }))

	raw, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"found":false,"path":[],"node_ids":[],"length":0}`, string(raw))
}

func TestRun_ShortestPath_UnknownNodeIsNull(t *testing.T) {
	result := Run(diamond(), query(func(q *AnalyzeGraphQuery) { q.SourceNodeID = "Q"; q.TargetNodeID = "Q" }))

	raw, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"found":true,"path":[null],"node_ids":["Q"],"length":0}`, string(raw))
}

func TestRun_Neighborhood(t *testing.T) {
	result := Run(diamond(), query(func(q *AnalyzeGraphQuery) { q.AnalysisType = AnalysisNeighborhood; q.MaxDepth = 1 }))

	nb, ok := result.(NeighborhoodResult)
	require.True(t, ok)
	assert.Equal(t, 3, nb.Count)
	depths := map[string]int{}
	for _, r := range nb.Nodes {
		depths[r.Node.ID] = r.Depth
	}
	assert.Equal(t, map[string]int{"A": 0, "B": 1, "D": 1}, depths)
}

func TestRun_NegativeDepthReachesNothing(t *testing.T) {
	nb, ok := Run(diamond(), query(func(q *AnalyzeGraphQuery) { q.AnalysisType = AnalysisNeighborhood; q.MaxDepth = -1 })).(NeighborhoodResult)
	require.True(t, ok)
	assert.Zero(t, nb.Count)
	assert.NotNil(t, nb.Nodes)

	inf, ok := Run(diamond(), query(func(q *AnalyzeGraphQuery) { q.AnalysisType = AnalysisInfluence; q.MaxDepth = -1 })).(InfluenceResult)
	require.True(t, ok)
	assert.Zero(t, inf.Score)
	assert.Zero(t, inf.NodesInfluenced)

	sp, ok := Run(diamond(), query(func(q *AnalyzeGraphQuery) { q.MaxDepth = -1 })).(ShortestPathResult)
	require.True(t, ok)
	assert.False(t, sp.Found)
}

func TestRun_Centrality(t *testing.T) {
	result := Run(diamond(), query(func(q *AnalyzeGraphQuery) { q.AnalysisType = AnalysisCentrality; q.SourceNodeID = "C" }))

	raw, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"node_id":"C","in_degree":2,"out_degree":0,"total_degree":2}`, string(raw))
}

func TestRun_Influence(t *testing.T) {
	result := Run(diamond(), query(func(q *AnalyzeGraphQuery) { q.AnalysisType = AnalysisInfluence; q.MaxDepth = 2 }))

	inf, ok := result.(InfluenceResult)
	require.True(t, ok)
	assert.InDelta(t, 7.0/3.0, inf.Score, 1e-9)
	assert.Equal(t, 4, inf.NodesInfluenced)
	assert.Equal(t, 4, result.Size())
}

func TestAnalyzeGraphResult_JSON(t *testing.T) {
	res := AnalyzeGraphResult{
		Success:      true,
		AnalysisType: AnalysisCentrality,
		Result:       Run(diamond(), query(func(q *AnalyzeGraphQuery) { q.AnalysisType = AnalysisCentrality })),
	}

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"analysis_type":"centrality","result":{"node_id":"A","in_degree":0,"out_degree":2,"total_degree":2}}`, string(raw))
}
