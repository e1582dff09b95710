package queries

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"graph-engine/domain/core/aggregates"
	"graph-engine/domain/core/entities"
	"graph-engine/domain/services"
	pkgerrors "graph-engine/pkg/errors"
)

// AnalysisType selects the algorithm run by AnalyzeGraphQuery.
type AnalysisType string

const (
	AnalysisShortestPath AnalysisType = "shortest_path"
	AnalysisNeighborhood AnalysisType = "neighborhood"
	AnalysisCentrality   AnalysisType = "centrality"
	AnalysisInfluence    AnalysisType = "influence"
)

const (
	DefaultMaxDepth     = 5
	DefaultAnalysisType = AnalysisShortestPath
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("depthlimit", withinDepthLimit)
	return v
}

// withinDepthLimit checks MaxDepth against the sibling MaxDepthLimit. A limit of zero or less
// means depth is unbounded. Negative depths pass: the traversals treat them as "nothing reachable".
func withinDepthLimit(fl validator.FieldLevel) bool {
	limit := fl.Parent().FieldByName("MaxDepthLimit")
	if !limit.IsValid() || limit.Int() <= 0 {
		return true
	}
	return fl.Field().Int() <= limit.Int()
}

// AnalyzeGraphQuery asks for one analysis over the current graph snapshot.
// Field order is the order validation errors are reported in.
type AnalyzeGraphQuery struct {
	UserID        string       `json:"-"`
	SourceNodeID  string       `json:"source_node_id" validate:"required"`
	TargetNodeID  string       `json:"target_node_id,omitempty" validate:"required_if=AnalysisType shortest_path"`
	MaxDepth      int          `json:"max_depth" validate:"depthlimit"`
	AnalysisType  AnalysisType `json:"analysis_type" validate:"oneof=shortest_path neighborhood centrality influence"`
	MaxDepthLimit int          `json:"-"`
}

// Validate reports the first rule the query breaks as a validation AppError.
func (q AnalyzeGraphQuery) Validate() error {
	err := validate.Struct(q)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return pkgerrors.NewValidationError("Invalid request")
	}

	message, code := q.describe(fieldErrs[0])
	return pkgerrors.NewValidationError(message).WithCode(code)
}

// Validation error codes, returned next to the message.
const (
	CodeSourceRequired      = "SOURCE_REQUIRED"
	CodeTargetRequired      = "TARGET_REQUIRED"
	CodeMaxDepthInvalid     = "MAX_DEPTH_INVALID"
	CodeMaxDepthTooLarge    = "MAX_DEPTH_TOO_LARGE"
	CodeInvalidAnalysisType = "INVALID_ANALYSIS_TYPE"
)

func (q AnalyzeGraphQuery) describe(fe validator.FieldError) (string, string) {
	switch fe.StructField() {
	case "SourceNodeID":
		return "source_node_id is required", CodeSourceRequired
	case "TargetNodeID":
		return "target_node_id is required for shortest_path analysis", CodeTargetRequired
	case "MaxDepth":
		return fmt.Sprintf("max_depth must not exceed %d", q.MaxDepthLimit), CodeMaxDepthTooLarge
	case "AnalysisType":
		return "Invalid analysis_type", CodeInvalidAnalysisType
	default:
		return fmt.Sprintf("%s is invalid", fe.Field()), "INVALID_" + strings.ToUpper(fe.Field())
	}
}

// AnalysisResult is the payload of one analysis. Each analysis type has its own variant.
type AnalysisResult interface {
	AnalysisType() AnalysisType
	// Size is the number of nodes the result refers to.
	Size() int
}

// ShortestPathResult is returned for shortest_path. Path holds null for ids without a node record.
type ShortestPathResult struct {
	Found   bool             `json:"found"`
	Path    []*entities.Node `json:"path"`
	NodeIDs []string         `json:"node_ids"`
	Length  int              `json:"length"`
}

func (ShortestPathResult) AnalysisType() AnalysisType { return AnalysisShortestPath }
func (r ShortestPathResult) Size() int                { return len(r.NodeIDs) }

// NeighborhoodResult is returned for neighborhood.
type NeighborhoodResult struct {
	Nodes []aggregates.TraversalRecord `json:"nodes"`
	Count int                          `json:"count"`
}

func (NeighborhoodResult) AnalysisType() AnalysisType { return AnalysisNeighborhood }
func (r NeighborhoodResult) Size() int                { return r.Count }

// CentralityResult is returned for centrality.
type CentralityResult struct {
	services.DegreeCentrality
}

func (CentralityResult) AnalysisType() AnalysisType { return AnalysisCentrality }
func (CentralityResult) Size() int                  { return 1 }

// InfluenceResult is returned for influence.
type InfluenceResult struct {
	services.Influence
}

func (InfluenceResult) AnalysisType() AnalysisType { return AnalysisInfluence }
func (r InfluenceResult) Size() int                { return r.NodesInfluenced }

// AnalyzeGraphResult is the success envelope.
type AnalyzeGraphResult struct {
	Success      bool           `json:"success"`
	AnalysisType AnalysisType   `json:"analysis_type"`
	Result       AnalysisResult `json:"result"`
}

// Run executes the query against graph. It never fails: "nothing found" is a result.
func Run(graph *aggregates.Graph, q AnalyzeGraphQuery) AnalysisResult {
	switch q.AnalysisType {
	case AnalysisNeighborhood:
		records := graph.ExploreNeighborhood(q.SourceNodeID, q.MaxDepth)
		return NeighborhoodResult{Nodes: records, Count: len(records)}

	case AnalysisCentrality:
		return CentralityResult{services.CalculateCentrality(graph.Relationships(), q.SourceNodeID)}

	case AnalysisInfluence:
		return InfluenceResult{services.ScoreInfluence(graph, q.SourceNodeID, q.MaxDepth)}

	default:
		ids := graph.FindShortestPath(q.SourceNodeID, q.TargetNodeID, q.MaxDepth)
		if ids == nil {
			return ShortestPathResult{Path: []*entities.Node{}, NodeIDs: []string{}}
		}
		return ShortestPathResult{
			Found:   true,
			Path:    graph.ResolvePath(ids),
			NodeIDs: ids,
			Length:  len(ids) - 1,
		}
	}
}
