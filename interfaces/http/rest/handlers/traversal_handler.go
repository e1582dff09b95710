package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"

	"go.uber.org/zap"

	"graph-engine/application/queries"
	querybus "graph-engine/application/queries/bus"
	"graph-engine/pkg/auth"
	"graph-engine/pkg/common"
	pkgerrors "graph-engine/pkg/errors"
)

// QueryAsker dispatches a query. *querybus.QueryBus satisfies it.
type QueryAsker interface {
	Ask(ctx context.Context, query querybus.Query) (interface{}, error)
}

// TraversalLimits are the configured depth defaults applied to every request.
type TraversalLimits struct {
	DefaultMaxDepth int
	MaxDepthLimit   int
}

// traversalRequest is the wire form of a traversal request. Pointers and raw values let the
// handler tell an omitted field from an explicit one.
type traversalRequest struct {
	SourceNodeID string          `json:"source_node_id"`
	TargetNodeID string          `json:"target_node_id"`
	MaxDepth     json.RawMessage `json:"max_depth"`
	AnalysisType *string         `json:"analysis_type"`
}

// TraversalHandler handles graph traversal requests
type TraversalHandler struct {
	queryBus     QueryAsker
	errorHandler *pkgerrors.ErrorHandler
	limits       TraversalLimits
	logger       *zap.Logger
}

// NewTraversalHandler creates a new traversal handler
func NewTraversalHandler(queryBus QueryAsker, errorHandler *pkgerrors.ErrorHandler, limits TraversalLimits, logger *zap.Logger) *TraversalHandler {
	return &TraversalHandler{
		queryBus:     queryBus,
		errorHandler: errorHandler,
		limits:       limits,
		logger:       logger,
	}
}

// Traverse handles POST /api/v2/graph/traversal
func (h *TraversalHandler) Traverse(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewUnauthorizedError("").WithCause(err))
		return
	}

	var req traversalRequest
	if err := common.ParseJSONBody(w, r, &req, common.DefaultMaxBodyBytes); err != nil {
		h.logger.Debug("Rejected traversal body", zap.Error(err))
		h.errorHandler.HandleStatus(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	query, err := h.toQuery(user.ID, req)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := common.RespondJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write traversal response", zap.Error(err))
	}
}

// toQuery applies defaults. max_depth accepts any whole JSON number, so 3 and 3.0 are the same
// depth. Negative depths are kept; the traversals return nothing for them.
func (h *TraversalHandler) toQuery(userID string, req traversalRequest) (queries.AnalyzeGraphQuery, error) {
	query := queries.AnalyzeGraphQuery{
		UserID:        userID,
		SourceNodeID:  req.SourceNodeID,
		TargetNodeID:  req.TargetNodeID,
		MaxDepth:      h.limits.DefaultMaxDepth,
		AnalysisType:  queries.DefaultAnalysisType,
		MaxDepthLimit: h.limits.MaxDepthLimit,
	}

	if raw := bytes.TrimSpace(req.MaxDepth); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		depth, ok := wholeNumber(raw)
		if !ok {
			return query, pkgerrors.NewValidationError("max_depth must be a whole number").
				WithCode(queries.CodeMaxDepthInvalid)
		}
		query.MaxDepth = depth
	}

	if req.AnalysisType != nil {
		query.AnalysisType = queries.AnalysisType(*req.AnalysisType)
	}

	return query, nil
}

// wholeNumber decodes a JSON number with no fractional part. Magnitudes beyond int32 are clamped,
// which no graph can tell apart from the exact value.
func wholeNumber(raw json.RawMessage) (int, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil || f != math.Trunc(f) {
		return 0, false
	}
	return int(math.Max(math.MinInt32, math.Min(math.MaxInt32, f))), true
}
